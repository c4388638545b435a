package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/export"
)

type reportRepoStub struct {
	reports map[string]*models.Report
	nextID  int
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{reports: make(map[string]*models.Report)}
}

func (s *reportRepoStub) Create(ctx context.Context, report *models.Report) error {
	s.nextID++
	report.ID = fmt.Sprintf("r-%d", s.nextID)
	report.ReportID = fmt.Sprintf("RPT-%04d", s.nextID)
	report.CreatedAt = time.Now().UTC()
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

func (s *reportRepoStub) GetByID(ctx context.Context, id string) (*models.Report, error) {
	if r, ok := s.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reportRepoStub) MarkSent(ctx context.Context, id, verifiedStudentID string, at time.Time) error {
	r, ok := s.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = models.ReportStatusSent
	r.StudentID = verifiedStudentID
	r.SentDate = &at
	return nil
}

func (s *reportRepoStub) ListByFaculty(ctx context.Context, facultyID string) ([]models.Report, error) {
	var out []models.Report
	for _, r := range s.reports {
		if r.FacultyID == facultyID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *reportRepoStub) ListSentByStudent(ctx context.Context, studentID string) ([]models.Report, error) {
	var out []models.Report
	for _, r := range s.reports {
		if r.StudentID == studentID && r.Status == models.ReportStatusSent {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *reportRepoStub) Delete(ctx context.Context, id string) error {
	r, ok := s.reports[id]
	if !ok || r.Status == models.ReportStatusSent {
		return sql.ErrNoRows
	}
	delete(s.reports, id)
	return nil
}

type studentDirStub struct {
	byStudentID map[string]*models.User
}

func (s *studentDirStub) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	if u, ok := s.byStudentID[studentID]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type approverStub struct {
	approved []string
	err      error
}

func (s *approverStub) ApproveViaReportDelivery(ctx context.Context, studentID string) (*models.Thesis, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.approved = append(s.approved, studentID)
	return &models.Thesis{ID: "t-1", StudentID: studentID, Status: models.ThesisStatusApproved}, nil
}

func reportFixture() (*reportRepoStub, *studentDirStub, *approverStub, *emitterStub, *ReportService) {
	repo := newReportRepoStub()
	sid := "STU001"
	students := &studentDirStub{byStudentID: map[string]*models.User{
		"STU001": {ID: "u-1", Email: "alice@univ.edu", FullName: "Alice Tan", StudentID: &sid, Role: models.RoleStudent},
	}}
	approver := &approverStub{}
	emitter := &emitterStub{}
	svc := NewReportService(repo, students, approver, emitter, export.NewPDFExporter(), nil)
	return repo, students, approver, emitter, svc
}

func saveReport(t *testing.T, svc *ReportService, reportType models.ReportType) *models.Report {
	t.Helper()
	report, err := svc.Save(context.Background(), dto.SaveReportRequest{
		StudentID:     "STU001",
		StudentName:   "Alice Tan",
		FacultyID:     "fac-1",
		ThesisID:      "t-1",
		ThesisVersion: 2,
		ThesisTitle:   "Adaptive Caching Strategies",
		ReportType:    reportType,
		ReportData:    json.RawMessage(`{"grade":"A","remarks":"solid work"}`),
	})
	require.NoError(t, err)
	return report
}

func TestSaveReportStartsSaved(t *testing.T) {
	_, _, _, _, svc := reportFixture()

	report := saveReport(t, svc, models.ReportTypeThesisEvaluation)
	require.Equal(t, models.ReportStatusSaved, report.Status)
	require.NotEmpty(t, report.ReportID)
}

func TestSaveReportRejectsInvalidPayloads(t *testing.T) {
	_, _, _, _, svc := reportFixture()

	_, err := svc.Save(context.Background(), dto.SaveReportRequest{
		StudentID:   "STU001",
		StudentName: "Alice Tan",
		FacultyID:   "fac-1",
		ReportType:  "book-review",
		ReportData:  json.RawMessage(`{}`),
	})
	requireErrCode(t, err, appErrors.ErrValidation)

	_, err = svc.Save(context.Background(), dto.SaveReportRequest{
		StudentID:   "STU001",
		StudentName: "Alice Tan",
		FacultyID:   "fac-1",
		ReportType:  models.ReportTypeThesisEvaluation,
		ReportData:  json.RawMessage(`{broken`),
	})
	requireErrCode(t, err, appErrors.ErrValidation)
}

func TestSendThesisEvaluationApprovesLatestThesis(t *testing.T) {
	repo, _, approver, emitter, svc := reportFixture()
	report := saveReport(t, svc, models.ReportTypeThesisEvaluation)

	resp, err := svc.Send(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusSent, resp.Status)
	require.Equal(t, "STU001", resp.StudentID)

	require.Equal(t, []string{"STU001"}, approver.approved)
	require.Equal(t, models.ReportStatusSent, repo.reports[report.ID].Status)

	require.Len(t, emitter.emitted, 1)
	require.Equal(t, models.NotificationTypeEvaluationReportReady, emitter.emitted[0].Type)
	require.Equal(t, "alice@univ.edu", emitter.emitted[0].Email)
}

func TestSendPlagiarismReportSkipsApproval(t *testing.T) {
	_, _, approver, _, svc := reportFixture()
	report := saveReport(t, svc, models.ReportTypePlagiarismDetection)

	_, err := svc.Send(context.Background(), report.ID)
	require.NoError(t, err)
	require.Empty(t, approver.approved)
}

func TestSendTwiceIsInvalidState(t *testing.T) {
	_, _, _, _, svc := reportFixture()
	report := saveReport(t, svc, models.ReportTypeThesisEvaluation)

	_, err := svc.Send(context.Background(), report.ID)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), report.ID)
	requireErrCode(t, err, appErrors.ErrInvalidState)
}

func TestSendSurvivesApprovalFailure(t *testing.T) {
	repo, _, approver, _, svc := reportFixture()
	approver.err = sql.ErrTxDone
	report := saveReport(t, svc, models.ReportTypeThesisEvaluation)

	resp, err := svc.Send(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusSent, resp.Status)
	require.Equal(t, models.ReportStatusSent, repo.reports[report.ID].Status)
}

func TestSendUnknownStudentKeepsOriginalID(t *testing.T) {
	_, students, _, emitter, svc := reportFixture()
	delete(students.byStudentID, "STU001")
	report := saveReport(t, svc, models.ReportTypeThesisEvaluation)

	resp, err := svc.Send(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, "STU001", resp.StudentID)
	// Without a directory match the notification targets the raw identifier.
	require.Equal(t, "STU001", emitter.emitted[0].Email)
}

func TestDeleteSentReportFails(t *testing.T) {
	_, _, _, _, svc := reportFixture()
	report := saveReport(t, svc, models.ReportTypeThesisEvaluation)
	_, err := svc.Send(context.Background(), report.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), report.ID)
	requireErrCode(t, err, appErrors.ErrNotFound)
}

func TestRenderPDFProducesDocument(t *testing.T) {
	_, _, _, _, svc := reportFixture()
	report := saveReport(t, svc, models.ReportTypeThesisEvaluation)

	pdf, filename, err := svc.RenderPDF(context.Background(), report.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	require.Equal(t, report.ReportID+".pdf", filename)
	require.Equal(t, "%PDF", string(pdf[:4]))
}
