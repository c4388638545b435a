package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/jobs"
	"github.com/deskinspect/deskinspect-api/pkg/mailer"
)

// JobTypeNotificationEmail labels queued email deliveries.
const JobTypeNotificationEmail = "notification.email"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID, email string, at time.Time) (int64, error)
	MarkDelivered(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Counts(ctx context.Context, userID, email string) (total int, unread int, err error)
	DueUndelivered(ctx context.Context, email string, now time.Time) ([]models.Notification, error)
}

type recipientDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService persists notification records and hands their email
// delivery to the background queue. Persisting and sending are deliberately
// two separate steps: the record commits first, and a failed or slow email
// never blocks or reverts the write.
type NotificationService struct {
	repo      notificationStore
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewNotificationService constructs the service. queue may be nil in tests;
// emission then stops at the database write.
func NewNotificationService(repo notificationStore, queue jobEnqueuer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:      repo,
		queue:     queue,
		validator: validator.New(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Emit commits the notification record, then schedules its email delivery.
// A queue failure is logged and swallowed so callers' state transitions
// stand regardless of the side channel.
func (s *NotificationService) Emit(ctx context.Context, n *models.Notification) error {
	if n.Email == "" {
		return appErrors.Clone(appErrors.ErrValidation, "notification recipient is required")
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	s.enqueueEmail(n)
	return nil
}

// Create builds a notification from the manual-creation payload and emits it.
func (s *NotificationService) Create(ctx context.Context, req dto.CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email, message, and scheduled time are required")
	}
	n := &models.Notification{
		Email:           req.Email,
		UserID:          req.UserID,
		Type:            req.Type,
		Title:           req.Title,
		Message:         req.Message,
		ScheduledAt:     req.ScheduledAt.UTC(),
		Priority:        req.Priority,
		RelatedThesisID: req.RelatedThesisID,
		ActionURL:       req.ActionURL,
		ActionLabel:     req.ActionLabel,
		Metadata:        req.Metadata,
	}
	if err := s.Emit(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns notifications for the filter, newest first.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, nil
}

// MarkRead acknowledges a single notification.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.repo.MarkRead(ctx, id, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification as read")
	}
	return nil
}

// MarkAllRead acknowledges every unread notification for the recipient.
func (s *NotificationService) MarkAllRead(ctx context.Context, req dto.MarkAllReadRequest) (*dto.MarkAllReadResponse, error) {
	if req.UserID == "" && req.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId or email is required")
	}
	modified, err := s.repo.MarkAllRead(ctx, req.UserID, req.Email, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications as read")
	}
	return &dto.MarkAllReadResponse{ModifiedCount: modified}, nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

// Counts returns total and unread counters for the recipient.
func (s *NotificationService) Counts(ctx context.Context, userID, email string) (*dto.NotificationCountResponse, error) {
	if userID == "" && email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "userId or email is required")
	}
	total, unread, err := s.repo.Counts(ctx, userID, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return &dto.NotificationCountResponse{TotalCount: total, UnreadCount: unread}, nil
}

// Deliver returns the recipient's due, undelivered notifications and marks
// them delivered. Records whose delivery mark fails are still returned.
func (s *NotificationService) Deliver(ctx context.Context, email string) ([]models.Notification, error) {
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	due, err := s.repo.DueUndelivered(ctx, email, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load due notifications")
	}
	for i := range due {
		if err := s.repo.MarkDelivered(ctx, due[i].ID); err != nil {
			s.logger.Warn("failed to mark notification delivered",
				zap.String("notification_id", due[i].ID),
				zap.Error(err),
			)
			continue
		}
		due[i].Delivered = true
	}
	return due, nil
}

func (s *NotificationService) enqueueEmail(n *models.Notification) {
	if s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:      n.ID,
		Type:    JobTypeNotificationEmail,
		Payload: n.ID,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification email",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
	}
}

// EmailDispatcher resolves recipients and sends notification emails from the
// background queue. Returned errors drive the queue's retry policy.
type EmailDispatcher struct {
	repo      notificationStore
	users     recipientDirectory
	mailer    mailer.Mailer
	clientURL string
	logger    *zap.Logger
}

// NewEmailDispatcher constructs the dispatcher.
func NewEmailDispatcher(repo notificationStore, users recipientDirectory, m mailer.Mailer, clientURL string, logger *zap.Logger) *EmailDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailDispatcher{repo: repo, users: users, mailer: m, clientURL: clientURL, logger: logger}
}

// Handle processes one queued email job.
func (d *EmailDispatcher) Handle(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok || id == "" {
		d.logger.Error("email job carries no notification id", zap.String("job_id", job.ID))
		return nil
	}

	n, err := d.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			d.logger.Warn("notification vanished before email dispatch", zap.String("notification_id", id))
			return nil
		}
		return fmt.Errorf("load notification %s: %w", id, err)
	}
	if n.Delivered {
		return nil
	}

	to, toName, ok := d.resolveRecipient(ctx, n)
	if !ok {
		// Recipient opted out or has no resolvable address. The in-app
		// record stands on its own.
		return d.markDelivered(ctx, n.ID)
	}

	msg := mailer.Message{
		To:       to,
		ToName:   toName,
		Subject:  n.Title,
		Title:    n.Title,
		Body:     n.Message,
		Priority: string(n.Priority),
	}
	if msg.Subject == "" {
		msg.Subject = "DeskInspect Notification"
	}
	if n.ActionURL != nil {
		msg.ActionURL = d.clientURL + *n.ActionURL
	}
	if n.ActionLabel != nil {
		msg.ActionLabel = *n.ActionLabel
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send notification email %s: %w", n.ID, err)
	}
	return d.markDelivered(ctx, n.ID)
}

// resolveRecipient maps the stored recipient onto a real mailbox. The email
// column may hold a student identifier rather than an address, so the lookup
// tries both before falling back to the raw value.
func (d *EmailDispatcher) resolveRecipient(ctx context.Context, n *models.Notification) (string, string, bool) {
	var user *models.User
	if u, err := d.users.FindByEmail(ctx, n.Email); err == nil {
		user = u
	} else if u, err := d.users.FindByStudentID(ctx, n.Email); err == nil {
		user = u
	} else if n.UserID != "" && n.UserID != n.Email {
		if u, err := d.users.FindByStudentID(ctx, n.UserID); err == nil {
			user = u
		}
	}

	if user != nil {
		if !user.EmailNotifications {
			d.logger.Debug("recipient opted out of email",
				zap.String("notification_id", n.ID),
				zap.String("user_id", user.ID),
			)
			return "", "", false
		}
		return user.Email, user.FullName, true
	}

	// No account match. Only send if the stored value already looks like a
	// deliverable address.
	if isEmailAddress(n.Email) {
		return n.Email, "", true
	}
	d.logger.Warn("no mailbox resolved for notification",
		zap.String("notification_id", n.ID),
		zap.String("recipient", n.Email),
	)
	return "", "", false
}

func (d *EmailDispatcher) markDelivered(ctx context.Context, id string) error {
	if err := d.repo.MarkDelivered(ctx, id); err != nil {
		return fmt.Errorf("mark notification %s delivered: %w", id, err)
	}
	return nil
}

func isEmailAddress(s string) bool {
	at := -1
	for i, r := range s {
		if r == '@' {
			if at >= 0 {
				return false
			}
			at = i
		}
	}
	return at > 0 && at < len(s)-1
}
