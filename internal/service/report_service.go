package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/export"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	MarkSent(ctx context.Context, id, verifiedStudentID string, at time.Time) error
	ListByFaculty(ctx context.Context, facultyID string) ([]models.Report, error)
	ListSentByStudent(ctx context.Context, studentID string) ([]models.Report, error)
	Delete(ctx context.Context, id string) error
}

type studentDirectory interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
}

type thesisApprover interface {
	ApproveViaReportDelivery(ctx context.Context, studentID string) (*models.Thesis, error)
}

// ReportService owns faculty evaluation reports. Sending a thesis-evaluation
// report is the act that approves the student's latest thesis version.
type ReportService struct {
	repo      reportStore
	students  studentDirectory
	theses    thesisApprover
	notifier  notificationEmitter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs the service.
func NewReportService(repo reportStore, students studentDirectory, theses thesisApprover, notifier notificationEmitter, pdf *export.PDFExporter, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:      repo,
		students:  students,
		theses:    theses,
		notifier:  notifier,
		pdf:       pdf,
		validator: validator.New(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Save persists a report in the saved state.
func (s *ReportService) Save(ctx context.Context, req dto.SaveReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student, faculty, report type, and report data are required")
	}
	if !models.ValidReportType(req.ReportType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report type")
	}
	if !json.Valid(req.ReportData) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report data must be valid JSON")
	}

	report := &models.Report{
		StudentID:     req.StudentID,
		StudentName:   req.StudentName,
		FacultyID:     req.FacultyID,
		ThesisID:      req.ThesisID,
		ThesisVersion: req.ThesisVersion,
		ReportType:    req.ReportType,
		ReportData:    []byte(req.ReportData),
		Status:        models.ReportStatusSaved,
	}
	if req.ThesisTitle != "" {
		report.ThesisTitle = &req.ThesisTitle
	}
	if req.Filename != "" {
		report.Filename = &req.Filename
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save report")
	}
	return report, nil
}

// Send delivers a report to its student. The student identifier is verified
// against the user directory first; for thesis evaluations the delivery also
// approves the student's latest thesis, and the approval failure mode is a
// logged warning, never a rollback of the delivery.
func (s *ReportService) Send(ctx context.Context, id string) (*dto.SendReportResponse, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if report.Status == models.ReportStatusSent {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "report already sent")
	}

	verifiedID := report.StudentID
	var student *models.User
	if u, err := s.students.FindByStudentID(ctx, report.StudentID); err == nil {
		student = u
		if u.StudentID != nil && *u.StudentID != "" {
			verifiedID = *u.StudentID
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify student")
	}

	now := s.now()
	if err := s.repo.MarkSent(ctx, report.ID, verifiedID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send report")
	}

	if report.ReportType == models.ReportTypeThesisEvaluation && s.theses != nil {
		if _, err := s.theses.ApproveViaReportDelivery(ctx, verifiedID); err != nil {
			s.logger.Warn("thesis approval on report delivery failed",
				zap.String("report_id", report.ID),
				zap.String("student_id", verifiedID),
				zap.Error(err),
			)
		}
	}

	s.notifyStudent(ctx, report, student, verifiedID)

	return &dto.SendReportResponse{
		ID:          report.ID,
		StudentID:   verifiedID,
		StudentName: report.StudentName,
		Status:      models.ReportStatusSent,
		SentDate:    now.Format(time.RFC3339),
	}, nil
}

// Get returns a single report.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// ListByFaculty returns reports authored by the faculty user.
func (s *ReportService) ListByFaculty(ctx context.Context, facultyID string) ([]models.Report, error) {
	reports, err := s.repo.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// ListSentByStudent returns delivered reports visible to the student.
func (s *ReportService) ListSentByStudent(ctx context.Context, studentID string) ([]models.Report, error) {
	reports, err := s.repo.ListSentByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// Delete removes a report that has not been sent.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found or already sent")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}
	return nil
}

// RenderPDF produces a downloadable PDF rendering of the report payload.
func (s *ReportService) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(report.ReportData, &payload); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "report data is not renderable")
	}

	data := export.Dataset{Headers: []string{"Field", "Value"}}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		data.Rows = append(data.Rows, map[string]string{"Field": k, "Value": fmt.Sprintf("%v", payload[k])})
	}

	summary := map[string]string{
		"Student":     fmt.Sprintf("%s (%s)", report.StudentName, report.StudentID),
		"Report Type": string(report.ReportType),
		"Status":      string(report.Status),
	}
	if report.ThesisTitle != nil {
		summary["Thesis"] = *report.ThesisTitle
	}

	pdf, err := s.pdf.Render(data, "Thesis Evaluation Report", summary)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report PDF")
	}

	filename := fmt.Sprintf("%s.pdf", report.ReportID)
	if report.Filename != nil && *report.Filename != "" {
		filename = *report.Filename
	}
	return pdf, filename, nil
}

func (s *ReportService) notifyStudent(ctx context.Context, report *models.Report, student *models.User, verifiedID string) {
	if s.notifier == nil {
		return
	}
	email := verifiedID
	userID := verifiedID
	if student != nil {
		email = student.Email
		userID = student.ID
	}
	n := &models.Notification{
		Email:       email,
		UserID:      userID,
		Type:        models.NotificationTypeEvaluationReportReady,
		Title:       "Evaluation Report Available",
		Message:     fmt.Sprintf("Your %s report has been delivered by your supervisor.", report.ReportType),
		Priority:    models.NotificationPriorityHigh,
		ScheduledAt: s.now(),
		ActionURL:   strPtr("/student-reports"),
		ActionLabel: strPtr("View Report"),
		Metadata: models.NotificationMetadata{
			"reportId":   report.ReportID,
			"reportType": string(report.ReportType),
		},
	}
	if err := s.notifier.Emit(ctx, n); err != nil {
		s.logger.Warn("report notification failed",
			zap.String("report_id", report.ID),
			zap.Error(err),
		)
	}
}
