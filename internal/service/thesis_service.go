package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
)

type thesisStore interface {
	Create(ctx context.Context, thesis *models.Thesis) error
	GetByID(ctx context.Context, id string) (*models.Thesis, error)
	ExistsForStudent(ctx context.Context, studentID string) (bool, error)
	ListAll(ctx context.Context) ([]models.Thesis, error)
	ListBySupervisor(ctx context.Context, supervisorID string) ([]models.Thesis, error)
	LatestForStudent(ctx context.Context, studentID string) (*models.Thesis, error)
	FindOutstandingRequest(ctx context.Context, studentID string) (*models.Thesis, error)
	ListChain(ctx context.Context, rootID string) ([]models.Thesis, error)
	MarkResubmissionRequested(ctx context.Context, id, facultyID, reason string, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.ThesisStatus) error
	ApproveLatestForStudent(ctx context.Context, studentID string) (*models.Thesis, error)
	CreateNextVersion(ctx context.Context, original *models.Thesis, next *models.Thesis) error
}

type supervisorDirectory interface {
	FindSupervisor(ctx context.Context, ref string) (*models.User, error)
	ListSupervisors(ctx context.Context) ([]models.User, error)
}

// notificationEmitter commits a notification record and schedules its
// best-effort email delivery. Emission failures never abort the primary
// state transition.
type notificationEmitter interface {
	Emit(ctx context.Context, n *models.Notification) error
}

// ThesisService owns the submission/resubmission version chain.
type ThesisService struct {
	repo      thesisStore
	users     supervisorDirectory
	notifier  notificationEmitter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewThesisService constructs the service.
func NewThesisService(repo thesisStore, users supervisorDirectory, notifier notificationEmitter, logger *zap.Logger) *ThesisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThesisService{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		validator: validator.New(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInitial records a student's first submission as version 1.
func (s *ThesisService) SubmitInitial(ctx context.Context, req dto.SubmitThesisRequest) (*models.Thesis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	supervisor, err := s.users.FindSupervisor(ctx, req.SupervisorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidReference, "invalid supervisor selected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve supervisor")
	}

	exists, err := s.repo.ExistsForStudent(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing submissions")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "thesis already submitted")
	}

	thesis := &models.Thesis{
		StudentName:  strings.TrimSpace(req.StudentName),
		StudentID:    strings.TrimSpace(req.StudentID),
		Department:   strings.TrimSpace(req.Department),
		FileURL:      req.FileURL,
		SupervisorID: supervisor.ID,
		Status:       models.ThesisStatusUnderReview,
		Version:      1,
	}
	if err := s.repo.Create(ctx, thesis); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create thesis")
	}
	return thesis, nil
}

// RequestResubmission flags a thesis for resubmission on behalf of its
// supervisor. Calling it again on an already flagged thesis re-stamps the
// request fields.
func (s *ThesisService) RequestResubmission(ctx context.Context, req dto.RequestResubmissionRequest) (*models.Thesis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "thesis ID, reason, and faculty ID are required")
	}

	thesis, err := s.repo.GetByID(ctx, req.ThesisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}

	if thesis.SupervisorID != req.FacultyID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to request resubmission for this thesis")
	}

	now := s.now()
	if err := s.repo.MarkResubmissionRequested(ctx, thesis.ID, req.FacultyID, req.Reason, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to request resubmission")
	}

	thesis.Status = models.ThesisStatusResubmit
	thesis.ResubmissionRequested = true
	thesis.ResubmissionRequestedAt = &now
	thesis.ResubmissionRequestedBy = &req.FacultyID
	thesis.ResubmissionReason = &req.Reason

	// In this domain the notification layer treats the student identifier
	// and the student email address interchangeably.
	s.emit(ctx, &models.Notification{
		Email:           thesis.StudentID,
		UserID:          thesis.StudentID,
		Type:            models.NotificationTypeResubmissionRequest,
		Title:           "Thesis Resubmission Required",
		Message:         fmt.Sprintf("Your supervisor has requested a resubmission of your thesis. Reason: %s", req.Reason),
		RelatedThesisID: &thesis.ID,
		ActionURL:       strPtr("/thesis-resubmission"),
		ActionLabel:     strPtr("Submit Revised Thesis"),
		Priority:        models.NotificationPriorityHigh,
		ScheduledAt:     now,
		Metadata: models.NotificationMetadata{
			"supervisorId": thesis.SupervisorID,
			"reason":       req.Reason,
		},
	})

	return thesis, nil
}

// SubmitResubmission creates the next version in a chain. The version
// number is allocated atomically against the chain root so sibling branches
// never collide.
func (s *ThesisService) SubmitResubmission(ctx context.Context, req dto.SubmitResubmissionRequest) (*models.Thesis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "original thesis ID, student ID, and file URL are required")
	}

	original, err := s.repo.GetByID(ctx, req.OriginalThesisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "original thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load original thesis")
	}

	if !studentIDMatches(original.StudentID, req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to resubmit this thesis")
	}

	if !original.ResubmissionRequested {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "resubmission was not requested for this thesis")
	}

	chainID := original.ChainRootID()

	history := append(models.SubmissionHistory{}, original.SubmissionHistory...)
	history = append(history, models.SubmissionSnapshot{
		Version:     original.Version,
		SubmittedAt: original.CreatedAt,
		FileURL:     original.FileURL,
		Status:      original.Status,
	})

	next := &models.Thesis{
		StudentName:          fallback(req.StudentName, original.StudentName),
		StudentID:            req.StudentID,
		Department:           fallback(req.Department, original.Department),
		FileURL:              req.FileURL,
		SupervisorID:         original.SupervisorID,
		Status:               models.ThesisStatusUnderReview,
		IsResubmission:       true,
		ParentThesisID:       &original.ID,
		OriginalSubmissionID: &chainID,
		SubmissionHistory:    history,
	}

	if err := s.repo.CreateNextVersion(ctx, original, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resubmission")
	}

	supervisorEmail := original.SupervisorID
	supervisorName := ""
	if supervisor, err := s.users.FindSupervisor(ctx, original.SupervisorID); err == nil {
		supervisorEmail = supervisor.Email
		supervisorName = supervisor.FullName
	}

	s.emit(ctx, &models.Notification{
		Email:           supervisorEmail,
		UserID:          original.SupervisorID,
		Type:            models.NotificationTypeResubmissionReceived,
		Title:           "Revised Thesis Submitted",
		Message:         fmt.Sprintf("Student %s has submitted a revised thesis (Version %d).", next.StudentName, next.Version),
		RelatedThesisID: &next.ID,
		ActionURL:       strPtr("/faculty-thesis-review"),
		ActionLabel:     strPtr("Review Thesis"),
		Priority:        models.NotificationPriorityMedium,
		ScheduledAt:     s.now(),
		Metadata: models.NotificationMetadata{
			"studentName":     next.StudentName,
			"version":         next.Version,
			"previousVersion": original.Version,
			"supervisorName":  supervisorName,
		},
	})

	return next, nil
}

// VersionHistory returns every record in the chain containing thesisID,
// newest version first.
func (s *ThesisService) VersionHistory(ctx context.Context, thesisID string) (*dto.VersionHistoryResponse, error) {
	thesis, err := s.repo.GetByID(ctx, thesisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}

	rootID := thesis.ChainRootID()
	versions, err := s.repo.ListChain(ctx, rootID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load version history")
	}

	return &dto.VersionHistoryResponse{
		OriginalThesisID: rootID,
		CurrentVersion:   thesis.Version,
		TotalVersions:    len(versions),
		Versions:         versions,
	}, nil
}

// ResubmissionStatus reports whether the student has an outstanding
// resubmission request.
func (s *ThesisService) ResubmissionStatus(ctx context.Context, studentID string) (*dto.ResubmissionStatusResponse, error) {
	thesis, err := s.repo.FindOutstandingRequest(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.ResubmissionStatusResponse{ResubmissionRequested: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check resubmission status")
	}

	status := &dto.ResubmissionStatusResponse{
		ResubmissionRequested: true,
		Thesis: &dto.ResubmissionStatusThesis{
			ID:          thesis.ID,
			Reason:      thesis.ResubmissionReason,
			RequestedAt: thesis.ResubmissionRequestedAt,
			Version:     thesis.Version,
			StudentID:   thesis.StudentID,
			StudentName: thesis.StudentName,
		},
	}
	if supervisor, err := s.users.FindSupervisor(ctx, thesis.SupervisorID); err == nil {
		status.Thesis.Supervisor = &dto.Supervisor{
			ID:         supervisor.ID,
			FullName:   supervisor.FullName,
			Email:      supervisor.Email,
			Department: supervisor.Department,
		}
	}
	return status, nil
}

// ApproveViaReportDelivery approves the student's latest thesis when a
// faculty evaluation report is marked sent. A missing thesis is a logged
// no-op, not an error.
func (s *ThesisService) ApproveViaReportDelivery(ctx context.Context, studentID string) (*models.Thesis, error) {
	thesis, err := s.repo.ApproveLatestForStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("no thesis to approve for student", zap.String("student_id", studentID))
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve thesis")
	}
	s.logger.Info("thesis approved via report delivery",
		zap.String("student_id", studentID),
		zap.String("thesis_id", thesis.ID),
		zap.Int("version", thesis.Version),
	)
	return thesis, nil
}

// GetAll returns every thesis, newest first.
func (s *ThesisService) GetAll(ctx context.Context) ([]models.Thesis, error) {
	theses, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list theses")
	}
	return theses, nil
}

// Get returns a single thesis.
func (s *ThesisService) Get(ctx context.Context, id string) (*models.Thesis, error) {
	thesis, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	return thesis, nil
}

// LatestByStudent returns the student's most recent version.
func (s *ThesisService) LatestByStudent(ctx context.Context, studentID string) (*models.Thesis, error) {
	thesis, err := s.repo.LatestForStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	return thesis, nil
}

// ListBySupervisor returns every thesis supervised by the faculty user.
func (s *ThesisService) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.Thesis, error) {
	theses, err := s.repo.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list theses")
	}
	return theses, nil
}

// ListSupervisors returns the public view of all faculty users.
func (s *ThesisService) ListSupervisors(ctx context.Context) ([]dto.Supervisor, error) {
	users, err := s.users.ListSupervisors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list supervisors")
	}
	supervisors := make([]dto.Supervisor, 0, len(users))
	for _, u := range users {
		supervisors = append(supervisors, dto.Supervisor{
			ID:         u.ID,
			FullName:   u.FullName,
			Email:      u.Email,
			Department: u.Department,
		})
	}
	return supervisors, nil
}

// UpdateStatus applies a faculty review decision to a single record.
func (s *ThesisService) UpdateStatus(ctx context.Context, thesisID string, req dto.UpdateThesisStatusRequest) (*models.Thesis, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status and faculty ID are required")
	}
	if !models.ValidThesisStatus(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown thesis status")
	}

	thesis, err := s.repo.GetByID(ctx, thesisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	if thesis.SupervisorID != req.FacultyID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to review this thesis")
	}

	if err := s.repo.UpdateStatus(ctx, thesisID, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update thesis status")
	}
	thesis.Status = req.Status
	return thesis, nil
}

func (s *ThesisService) emit(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, n); err != nil {
		s.logger.Warn("notification emission failed",
			zap.String("type", string(n.Type)),
			zap.String("email", n.Email),
			zap.Error(err),
		)
	}
}

// studentIDMatches applies the lenient identity comparison used for
// resubmission authorization: exact, case-insensitive, or either identifier
// containing the other.
func studentIDMatches(original, submitted string) bool {
	if original == "" || submitted == "" {
		return false
	}
	if strings.EqualFold(original, submitted) {
		return true
	}
	return strings.Contains(submitted, original) || strings.Contains(original, submitted)
}

func fallback(preferred, def string) string {
	if strings.TrimSpace(preferred) != "" {
		return preferred
	}
	return def
}

func strPtr(s string) *string { return &s }
