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

type eventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type audienceDirectory interface {
	ListByRoles(ctx context.Context, roles ...models.UserRole) ([]models.User, error)
}

type folderScheduler interface {
	ScheduleForEvent(ctx context.Context, event *models.Event) (*models.FolderSchedule, error)
}

// EventService manages the academic calendar. Creating an event fans out
// notifications to students and faculty; thesis events additionally get a
// folder-provisioning schedule. Both side effects are best effort.
type EventService struct {
	repo      eventStore
	users     audienceDirectory
	notifier  notificationEmitter
	folders   folderScheduler
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventService constructs the service.
func NewEventService(repo eventStore, users audienceDirectory, notifier notificationEmitter, folders folderScheduler, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		folders:   folders,
		validator: validator.New(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the payload, persists the event, notifies the audience,
// and schedules folder provisioning for thesis events.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest) (*dto.EventItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and end date are required")
	}

	endDate, err := parseEventDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}

	event := &models.Event{
		Name:    strings.TrimSpace(req.Name),
		Type:    req.Type,
		EndDate: endDate,
	}
	if req.StartDate != "" {
		startDate, err := parseEventDate(req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
		}
		event.StartDate = &startDate
	}
	if req.Description != "" {
		event.Description = &req.Description
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.notifyAudience(ctx, event)

	if event.Type.IsThesisEvent() && s.folders != nil {
		if _, err := s.folders.ScheduleForEvent(ctx, event); err != nil {
			s.logger.Warn("folder scheduling failed",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
		}
	}

	item := dto.NewEventItem(*event)
	return &item, nil
}

// List returns every event, soonest due date first.
func (s *EventService) List(ctx context.Context) ([]dto.EventItem, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	items := make([]dto.EventItem, 0, len(events))
	for _, e := range events {
		items = append(items, dto.NewEventItem(e))
	}
	return items, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*dto.EventItem, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	item := dto.NewEventItem(*event)
	return &item, nil
}

// Update applies the provided fields to an existing event.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest) (*dto.EventItem, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if req.Name != "" {
		event.Name = strings.TrimSpace(req.Name)
	}
	if req.Type != "" {
		event.Type = req.Type
	}
	if req.StartDate != "" {
		startDate, err := parseEventDate(req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
		}
		event.StartDate = &startDate
	}
	if req.EndDate != "" {
		endDate, err := parseEventDate(req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
		}
		event.EndDate = endDate
	}
	if req.Description != "" {
		event.Description = &req.Description
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	item := dto.NewEventItem(*event)
	return &item, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}

// notifyAudience emits one notification per student and faculty member.
// Failures are logged per recipient and never abort event creation.
func (s *EventService) notifyAudience(ctx context.Context, event *models.Event) {
	if s.notifier == nil || s.users == nil {
		return
	}
	audience, err := s.users.ListByRoles(ctx, models.RoleStudent, models.RoleFaculty)
	if err != nil {
		s.logger.Warn("failed to load event audience", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	dueDate := event.EndDate.Format("January 2, 2006")
	for _, recipient := range audience {
		n := &models.Notification{
			Email:       recipient.Email,
			UserID:      recipient.ID,
			Type:        models.NotificationTypeGeneral,
			Title:       fmt.Sprintf("New Event: %s", event.Name),
			Message:     fmt.Sprintf("%s is due on %s.", event.Name, dueDate),
			Priority:    models.NotificationPriorityMedium,
			ScheduledAt: s.now(),
			Metadata: models.NotificationMetadata{
				"eventId":   event.ID,
				"eventType": string(event.Type),
			},
		}
		if err := s.notifier.Emit(ctx, n); err != nil {
			s.logger.Warn("event notification failed",
				zap.String("event_id", event.ID),
				zap.String("recipient", recipient.Email),
				zap.Error(err),
			)
		}
	}
}

// parseEventDate accepts RFC 3339 timestamps or date-only strings. Bare
// dates are pinned to midday UTC so they render as the same calendar day in
// every campus timezone.
func parseEventDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC), nil
}
