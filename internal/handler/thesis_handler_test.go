package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/deskinspect/deskinspect-api/internal/models"
	"github.com/deskinspect/deskinspect-api/internal/service"
	"github.com/deskinspect/deskinspect-api/pkg/response"
)

type thesisStoreFake struct {
	theses map[string]*models.Thesis
	nextID int
}

func newThesisStoreFake() *thesisStoreFake {
	return &thesisStoreFake{theses: make(map[string]*models.Thesis)}
}

func (s *thesisStoreFake) Create(ctx context.Context, thesis *models.Thesis) error {
	s.nextID++
	thesis.ID = fmt.Sprintf("t-%d", s.nextID)
	thesis.CreatedAt = time.Now().UTC()
	cp := *thesis
	s.theses[thesis.ID] = &cp
	return nil
}

func (s *thesisStoreFake) GetByID(ctx context.Context, id string) (*models.Thesis, error) {
	if t, ok := s.theses[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *thesisStoreFake) ExistsForStudent(ctx context.Context, studentID string) (bool, error) {
	for _, t := range s.theses {
		if t.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *thesisStoreFake) ListAll(ctx context.Context) ([]models.Thesis, error) {
	out := make([]models.Thesis, 0, len(s.theses))
	for _, t := range s.theses {
		out = append(out, *t)
	}
	return out, nil
}

func (s *thesisStoreFake) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.Thesis, error) {
	var out []models.Thesis
	for _, t := range s.theses {
		if t.SupervisorID == supervisorID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *thesisStoreFake) LatestForStudent(ctx context.Context, studentID string) (*models.Thesis, error) {
	var latest *models.Thesis
	for _, t := range s.theses {
		if t.StudentID == studentID && (latest == nil || t.Version > latest.Version) {
			latest = t
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (s *thesisStoreFake) FindOutstandingRequest(ctx context.Context, studentID string) (*models.Thesis, error) {
	for _, t := range s.theses {
		if t.StudentID == studentID && t.ResubmissionRequested {
			cp := *t
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *thesisStoreFake) ListChain(ctx context.Context, rootID string) ([]models.Thesis, error) {
	var out []models.Thesis
	for _, t := range s.theses {
		if t.ID == rootID ||
			(t.OriginalSubmissionID != nil && *t.OriginalSubmissionID == rootID) ||
			(t.ParentThesisID != nil && *t.ParentThesisID == rootID) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *thesisStoreFake) MarkResubmissionRequested(ctx context.Context, id, facultyID, reason string, at time.Time) error {
	t, ok := s.theses[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Status = models.ThesisStatusResubmit
	t.ResubmissionRequested = true
	t.ResubmissionRequestedAt = &at
	t.ResubmissionRequestedBy = &facultyID
	t.ResubmissionReason = &reason
	return nil
}

func (s *thesisStoreFake) UpdateStatus(ctx context.Context, id string, status models.ThesisStatus) error {
	t, ok := s.theses[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Status = status
	return nil
}

func (s *thesisStoreFake) ApproveLatestForStudent(ctx context.Context, studentID string) (*models.Thesis, error) {
	latest, err := s.LatestForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	s.theses[latest.ID].Status = models.ThesisStatusApproved
	latest.Status = models.ThesisStatusApproved
	return latest, nil
}

func (s *thesisStoreFake) CreateNextVersion(ctx context.Context, original *models.Thesis, next *models.Thesis) error {
	next.Version = original.Version + 1
	if err := s.Create(ctx, next); err != nil {
		return err
	}
	stored := s.theses[original.ID]
	stored.Status = models.ThesisStatusResubmitted
	stored.ResubmissionRequested = false
	return nil
}

type supervisorDirFake struct{}

func (supervisorDirFake) FindSupervisor(ctx context.Context, ref string) (*models.User, error) {
	if ref == "fac-1" {
		return &models.User{ID: "fac-1", Email: "reyes@univ.edu", FullName: "Dr. Reyes", Role: models.RoleFaculty}, nil
	}
	return nil, sql.ErrNoRows
}

func (supervisorDirFake) ListSupervisors(ctx context.Context) ([]models.User, error) {
	return []models.User{{ID: "fac-1", Email: "reyes@univ.edu", FullName: "Dr. Reyes", Role: models.RoleFaculty}}, nil
}

type emitterFake struct{}

func (emitterFake) Emit(ctx context.Context, n *models.Notification) error { return nil }

func newThesisTestRouter() (*gin.Engine, *thesisStoreFake) {
	gin.SetMode(gin.TestMode)
	store := newThesisStoreFake()
	svc := service.NewThesisService(store, supervisorDirFake{}, emitterFake{}, nil)
	h := NewThesisHandler(svc, nil)

	router := gin.New()
	router.POST("/thesis/submit", h.Submit)
	router.POST("/thesis/request-resubmission", h.RequestResubmission)
	router.POST("/thesis/resubmit", h.Resubmit)
	router.GET("/thesis/:id/versions", h.VersionHistory)
	router.GET("/thesis/resubmission-status/:studentId", h.ResubmissionStatus)
	router.GET("/thesis/student/:studentId", h.LatestByStudent)
	router.PUT("/thesis/:id/status", h.UpdateStatus)
	return router, store
}

func performJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const submitPayload = `{
	"studentName": "Alice Tan",
	"studentId": "STU001",
	"department": "CS",
	"fileUrl": "https://files.example.com/v1.pdf",
	"supervisorId": "fac-1"
}`

func TestThesisSubmitEndpoint(t *testing.T) {
	router, _ := newThesisTestRouter()

	rec := performJSON(router, http.MethodPost, "/thesis/submit", submitPayload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error)
	data := envelope.Data.(map[string]interface{})
	require.EqualValues(t, 1, data["version"])
	require.Equal(t, string(models.ThesisStatusUnderReview), data["status"])
}

func TestThesisSubmitDuplicateReturnsConflict(t *testing.T) {
	router, _ := newThesisTestRouter()

	rec := performJSON(router, http.MethodPost, "/thesis/submit", submitPayload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = performJSON(router, http.MethodPost, "/thesis/submit", submitPayload)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"CONFLICT"`)
}

func TestThesisSubmitMalformedBody(t *testing.T) {
	router, _ := newThesisTestRouter()

	rec := performJSON(router, http.MethodPost, "/thesis/submit", `{broken`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThesisResubmissionFlowOverHTTP(t *testing.T) {
	router, store := newThesisTestRouter()

	rec := performJSON(router, http.MethodPost, "/thesis/submit", submitPayload)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	thesisID := created.Data.(map[string]interface{})["id"].(string)

	// Resubmitting before the supervisor asks for it is rejected.
	resubmitBody := fmt.Sprintf(`{"originalThesisId":%q,"studentId":"STU001","fileUrl":"https://files.example.com/v2.pdf"}`, thesisID)
	rec = performJSON(router, http.MethodPost, "/thesis/resubmit", resubmitBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"INVALID_STATE"`)

	// Wrong supervisor cannot request it.
	rec = performJSON(router, http.MethodPost, "/thesis/request-resubmission",
		fmt.Sprintf(`{"thesisId":%q,"reason":"revise","facultyId":"fac-2"}`, thesisID))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = performJSON(router, http.MethodPost, "/thesis/request-resubmission",
		fmt.Sprintf(`{"thesisId":%q,"reason":"revise","facultyId":"fac-1"}`, thesisID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performJSON(router, http.MethodGet, "/thesis/resubmission-status/STU001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"resubmissionRequested":true`)

	rec = performJSON(router, http.MethodPost, "/thesis/resubmit", resubmitBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resubmitted response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resubmitted))
	require.EqualValues(t, 2, resubmitted.Data.(map[string]interface{})["version"])

	require.Equal(t, models.ThesisStatusResubmitted, store.theses[thesisID].Status)
}

func TestThesisVersionHistoryNotFound(t *testing.T) {
	router, _ := newThesisTestRouter()

	rec := performJSON(router, http.MethodGet, "/thesis/t-404/versions", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThesisLatestByStudentNotFound(t *testing.T) {
	router, _ := newThesisTestRouter()

	rec := performJSON(router, http.MethodGet, "/thesis/student/STU404", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
