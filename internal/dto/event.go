package dto

import (
	"time"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

// CreateEventRequest is the admin payload for a calendar entry. Date fields
// accept either RFC 3339 timestamps or date-only strings (YYYY-MM-DD), the
// latter normalised to midday UTC to sidestep timezone drift.
type CreateEventRequest struct {
	Name        string           `json:"name" validate:"required"`
	Type        models.EventType `json:"type,omitempty"`
	StartDate   string           `json:"startDate,omitempty"`
	EndDate     string           `json:"endDate" validate:"required"`
	Description string           `json:"description,omitempty"`
}

// UpdateEventRequest mirrors CreateEventRequest for partial updates.
type UpdateEventRequest struct {
	Name        string           `json:"name,omitempty"`
	Type        models.EventType `json:"type,omitempty"`
	StartDate   string           `json:"startDate,omitempty"`
	EndDate     string           `json:"endDate,omitempty"`
	Description string           `json:"description,omitempty"`
}

// EventItem decorates an event with the dueDate alias clients expect.
type EventItem struct {
	models.Event
	DueDate time.Time `json:"dueDate"`
}

// NewEventItem wraps an event for API responses.
func NewEventItem(e models.Event) EventItem {
	return EventItem{Event: e, DueDate: e.EndDate}
}
