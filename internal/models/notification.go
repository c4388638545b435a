package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType enumerates the notification categories emitted by the
// workflow engine and the event calendar.
type NotificationType string

const (
	NotificationTypeGeneral               NotificationType = "general"
	NotificationTypeResubmissionRequest   NotificationType = "resubmission_request"
	NotificationTypeResubmissionReceived  NotificationType = "resubmission_received"
	NotificationTypeEvaluationReportReady NotificationType = "evaluation_report_ready"
)

// NotificationPriority orders delivery urgency.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// NotificationMetadata is free-form context stored as JSONB.
type NotificationMetadata map[string]interface{}

// Value implements driver.Valuer.
func (m NotificationMetadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *NotificationMetadata) Scan(src interface{}) error {
	if src == nil {
		*m = NotificationMetadata{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("notification metadata: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*m = NotificationMetadata{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Notification is a single message instance. read/delivered are the only
// fields mutated after creation, each at most once in the common path.
type Notification struct {
	ID              string               `db:"id" json:"id"`
	Email           string               `db:"email" json:"email"`
	UserID          string               `db:"user_id" json:"user_id"`
	Type            NotificationType     `db:"type" json:"type"`
	Title           string               `db:"title" json:"title"`
	Message         string               `db:"message" json:"message"`
	ScheduledAt     time.Time            `db:"scheduled_at" json:"scheduled_at"`
	Priority        NotificationPriority `db:"priority" json:"priority"`
	Read            bool                 `db:"read" json:"read"`
	ReadAt          *time.Time           `db:"read_at" json:"read_at,omitempty"`
	Delivered       bool                 `db:"delivered" json:"delivered"`
	RelatedThesisID *string              `db:"related_thesis_id" json:"related_thesis_id,omitempty"`
	ActionURL       *string              `db:"action_url" json:"action_url,omitempty"`
	ActionLabel     *string              `db:"action_label" json:"action_label,omitempty"`
	Metadata        NotificationMetadata `db:"metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at" json:"updated_at"`
}

// NotificationFilter constrains listing queries. Status is one of
// "all", "read", "unread" (empty treated as all).
type NotificationFilter struct {
	Email  string
	UserID string
	Status string
	Type   NotificationType
	Limit  int
}
