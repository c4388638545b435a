package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

const notificationColumns = `id, email, user_id, type, title, message, scheduled_at, priority,
       read, read_at, delivered, related_thesis_id, action_url, action_label, metadata, created_at, updated_at`

// NotificationRepository persists notification records.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = models.NotificationTypeGeneral
	}
	if n.Priority == "" {
		n.Priority = models.NotificationPriorityMedium
	}
	if n.Metadata == nil {
		n.Metadata = models.NotificationMetadata{}
	}
	now := time.Now().UTC()
	if n.ScheduledAt.IsZero() {
		n.ScheduledAt = now
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	const query = `INSERT INTO notifications
	(id, email, user_id, type, title, message, scheduled_at, priority, read, read_at, delivered, related_thesis_id, action_url, action_label, metadata, created_at, updated_at)
	VALUES (:id, :email, :user_id, :type, :title, :message, :scheduled_at, :priority, :read, :read_at, :delivered, :related_thesis_id, :action_url, :action_label, :metadata, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// GetByID fetches a notification by identifier.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns notifications matching the filter, newest first.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	query, args := buildNotificationQuery(fmt.Sprintf(`SELECT %s FROM notifications`, notificationColumns), filter)
	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// MarkRead acknowledges a single notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notifications SET read = TRUE, read_at = $2, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(result)
}

// MarkAllRead acknowledges every unread notification for the recipient and
// returns the number of affected rows.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID, email string, at time.Time) (int64, error) {
	conditions := make([]string, 0, 2)
	args := []interface{}{at}
	if userID != "" {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if email != "" {
		args = append(args, email)
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return 0, fmt.Errorf("mark all read: recipient required")
	}
	query := fmt.Sprintf(`UPDATE notifications SET read = TRUE, read_at = $1, updated_at = $1
	WHERE NOT read AND (%s)`, strings.Join(conditions, " OR "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return result.RowsAffected()
}

// MarkDelivered records that the side-channel delivery completed.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET delivered = TRUE, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return requireRow(result)
}

// Delete removes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireRow(result)
}

// Counts returns total and unread counters for the recipient.
func (r *NotificationRepository) Counts(ctx context.Context, userID, email string) (total int, unread int, err error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if userID != "" {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if email != "" {
		args = append(args, email)
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return 0, 0, fmt.Errorf("notification counts: recipient required")
	}
	where := strings.Join(conditions, " OR ")

	query := fmt.Sprintf(`SELECT COUNT(*) FROM notifications WHERE %s`, where)
	if err = r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, 0, fmt.Errorf("count notifications: %w", err)
	}
	query = fmt.Sprintf(`SELECT COUNT(*) FROM notifications WHERE NOT read AND (%s)`, where)
	if err = r.db.GetContext(ctx, &unread, query, args...); err != nil {
		return 0, 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return total, unread, nil
}

// DueUndelivered returns scheduled, not yet delivered notifications for the
// email, oldest scheduled first.
func (r *NotificationRepository) DueUndelivered(ctx context.Context, email string, now time.Time) ([]models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications
	WHERE email = $1 AND scheduled_at <= $2 AND NOT delivered
	ORDER BY scheduled_at ASC`, notificationColumns)
	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, email, now); err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	return items, nil
}

func buildNotificationQuery(base string, filter models.NotificationFilter) (string, []interface{}) {
	builder := strings.Builder{}
	builder.WriteString(base)
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)

	recipient := make([]string, 0, 2)
	if filter.Email != "" {
		args = append(args, filter.Email)
		recipient = append(recipient, fmt.Sprintf("email = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		recipient = append(recipient, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(recipient) > 0 {
		conditions = append(conditions, "("+strings.Join(recipient, " OR ")+")")
	}

	switch filter.Status {
	case "read":
		conditions = append(conditions, "read")
	case "unread":
		conditions = append(conditions, "NOT read")
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}

	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	return builder.String(), args
}
