package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/jobs"
	"github.com/deskinspect/deskinspect-api/pkg/storage"
)

// JobTypeFolderProvision labels queued folder-provisioning work.
const JobTypeFolderProvision = "folder.provision"

type folderStore interface {
	CreateSchedule(ctx context.Context, s *models.FolderSchedule) error
	GetScheduleByEvent(ctx context.Context, eventID string) (*models.FolderSchedule, error)
	ListSchedules(ctx context.Context) ([]models.FolderSchedule, error)
	ListPendingSchedules(ctx context.Context) ([]models.FolderSchedule, error)
	MarkScheduleCreated(ctx context.Context, eventID, folderPath, folderURL string, at time.Time) error
	MarkScheduleFailed(ctx context.Context, eventID, cause string, at time.Time) error
	CreateFolder(ctx context.Context, f *models.ThesisFolder) error
	GetFolderByEvent(ctx context.Context, eventID string) (*models.ThesisFolder, error)
}

type folderEventStore interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	MarkFolderCreated(ctx context.Context, id, folderPath, folderURL string, at time.Time) error
}

type deferredEnqueuer interface {
	Enqueue(job jobs.Job) error
	EnqueueAfter(job jobs.Job, delay time.Duration) error
}

var folderNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// FolderService schedules and provisions submission folders for thesis
// events. Folder creation fires a configurable lead time before the event's
// due date; every attempt leaves an auditable schedule row.
type FolderService struct {
	repo     folderStore
	events   folderEventStore
	provider storage.FolderProvider
	signer   *storage.SignedURLSigner
	queue    deferredEnqueuer
	leadTime time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewFolderService constructs the service.
func NewFolderService(repo folderStore, events folderEventStore, provider storage.FolderProvider, signer *storage.SignedURLSigner, queue deferredEnqueuer, leadTime time.Duration, logger *zap.Logger) *FolderService {
	if leadTime <= 0 {
		leadTime = 14 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderService{
		repo:     repo,
		events:   events,
		provider: provider,
		signer:   signer,
		queue:    queue,
		leadTime: leadTime,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ScheduleForEvent records a provisioning schedule for a thesis event and
// arms its timer. Scheduling an already scheduled event is a no-op.
func (s *FolderService) ScheduleForEvent(ctx context.Context, event *models.Event) (*models.FolderSchedule, error) {
	if !event.Type.IsThesisEvent() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "folder scheduling applies to thesis events only")
	}

	if existing, err := s.repo.GetScheduleByEvent(ctx, event.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check folder schedule")
	}

	creationDate := event.EndDate.Add(-s.leadTime)
	schedule := &models.FolderSchedule{
		EventID:            event.ID,
		EventName:          event.Name,
		EventType:          event.Type,
		DueDate:            event.EndDate,
		FolderCreationDate: creationDate,
		Status:             models.FolderScheduleStatusScheduled,
	}
	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create folder schedule")
	}

	s.arm(schedule)
	return schedule, nil
}

// Provision creates the event's submission folder. Safe to call repeatedly;
// an already provisioned event returns the existing folder untouched.
func (s *FolderService) Provision(ctx context.Context, eventID string) (*models.ThesisFolder, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if !event.Type.IsThesisEvent() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "folder provisioning applies to thesis events only")
	}

	if existing, err := s.repo.GetFolderByEvent(ctx, eventID); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing folder")
	}

	now := s.now()
	relPath := folderPathFor(event)
	folderURL, err := s.provider.EnsureFolder(relPath)
	if err != nil {
		if markErr := s.repo.MarkScheduleFailed(ctx, eventID, err.Error(), now); markErr != nil {
			s.logger.Error("failed to record folder provisioning failure",
				zap.String("event_id", eventID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision folder")
	}

	folder := &models.ThesisFolder{
		EventID:            event.ID,
		EventName:          event.Name,
		EventType:          event.Type,
		DueDate:            event.EndDate,
		FolderCreationDate: now,
		FolderPath:         relPath,
		FolderURL:          folderURL,
		VirtualFolderID:    fmt.Sprintf("folder_%s", event.ID),
		Status:             "active",
	}
	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record folder")
	}

	if err := s.events.MarkFolderCreated(ctx, event.ID, relPath, folderURL, now); err != nil {
		s.logger.Error("failed to flag event folder", zap.String("event_id", event.ID), zap.Error(err))
	}
	if err := s.repo.MarkScheduleCreated(ctx, event.ID, relPath, folderURL, now); err != nil {
		s.logger.Error("failed to flag folder schedule", zap.String("event_id", event.ID), zap.Error(err))
	}

	s.logger.Info("thesis folder provisioned",
		zap.String("event_id", event.ID),
		zap.String("path", relPath),
	)
	return folder, nil
}

// Schedules lists every schedule row for the admin view.
func (s *FolderService) Schedules(ctx context.Context) ([]models.FolderSchedule, error) {
	items, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list folder schedules")
	}
	return items, nil
}

// FolderForEvent returns the provisioned folder for an event.
func (s *FolderService) FolderForEvent(ctx context.Context, eventID string) (*models.ThesisFolder, error) {
	folder, err := s.repo.GetFolderByEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load folder")
	}
	return folder, nil
}

// AccessToken issues a signed, expiring access token for an event's folder.
func (s *FolderService) AccessToken(ctx context.Context, eventID string) (*dto.FolderAccessResponse, error) {
	folder, err := s.FolderForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(eventID, folder.FolderPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign folder access token")
	}
	return &dto.FolderAccessResponse{
		EventID:   eventID,
		FolderURL: folder.FolderURL,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// ResumePending re-arms timers for schedules that never completed, called
// once at startup so restarts do not lose deferred provisioning.
func (s *FolderService) ResumePending(ctx context.Context) error {
	pending, err := s.repo.ListPendingSchedules(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending folder schedules")
	}
	for i := range pending {
		s.arm(&pending[i])
	}
	if len(pending) > 0 {
		s.logger.Info("resumed pending folder schedules", zap.Int("count", len(pending)))
	}
	return nil
}

// HandleProvisionJob is the queue handler for deferred provisioning.
func (s *FolderService) HandleProvisionJob(ctx context.Context, job jobs.Job) error {
	eventID, ok := job.Payload.(string)
	if !ok || eventID == "" {
		s.logger.Error("provision job carries no event id", zap.String("job_id", job.ID))
		return nil
	}
	if _, err := s.Provision(ctx, eventID); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			// Event was deleted between scheduling and firing.
			return nil
		}
		return err
	}
	return nil
}

func (s *FolderService) arm(schedule *models.FolderSchedule) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:      schedule.ID,
		Type:    JobTypeFolderProvision,
		Payload: schedule.EventID,
	}
	delay := time.Until(schedule.FolderCreationDate)
	if err := s.queue.EnqueueAfter(job, delay); err != nil {
		s.logger.Error("failed to arm folder schedule",
			zap.String("event_id", schedule.EventID),
			zap.Error(err),
		)
	}
}

// folderPathFor derives a stable folder path from the event name and due
// date, safe for both filesystems and URLs.
func folderPathFor(event *models.Event) string {
	name := folderNameSanitizer.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(event.Name), " ", "_"), "")
	if name == "" {
		name = "thesis_event"
	}
	return fmt.Sprintf("thesis-submissions/%s_%s", name, event.EndDate.Format("2006-01-02"))
}
