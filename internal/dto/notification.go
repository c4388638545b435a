package dto

import (
	"time"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

// CreateNotificationRequest is the payload for manual notification creation.
type CreateNotificationRequest struct {
	Email           string                      `json:"email" validate:"required,email"`
	UserID          string                      `json:"userId,omitempty"`
	Type            models.NotificationType     `json:"type,omitempty"`
	Title           string                      `json:"title,omitempty"`
	Message         string                      `json:"message" validate:"required"`
	ScheduledAt     time.Time                   `json:"scheduledAt" validate:"required"`
	RelatedThesisID *string                     `json:"relatedThesisId,omitempty"`
	ActionURL       *string                     `json:"actionUrl,omitempty"`
	ActionLabel     *string                     `json:"actionLabel,omitempty"`
	Priority        models.NotificationPriority `json:"priority,omitempty"`
	Metadata        models.NotificationMetadata `json:"metadata,omitempty"`
}

// MarkAllReadRequest identifies the recipient whose notifications are
// bulk-acknowledged.
type MarkAllReadRequest struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
}

// MarkAllReadResponse reports the number of affected rows.
type MarkAllReadResponse struct {
	ModifiedCount int64 `json:"modifiedCount"`
}

// NotificationCountResponse carries unread counters for a recipient.
type NotificationCountResponse struct {
	TotalCount  int `json:"totalCount"`
	UnreadCount int `json:"unreadCount"`
}
