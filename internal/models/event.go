package models

import "time"

// EventType enumerates calendar entry categories. Folder provisioning is
// only performed for the thesis event types.
type EventType string

const (
	EventTypeThesisSubmission   EventType = "Thesis Submission"
	EventTypeThesisResubmission EventType = "Thesis Resubmission"
	EventTypeGeneral            EventType = "General"
	EventTypeMeeting            EventType = "Meeting"
	EventTypeWorkshop           EventType = "Workshop"
	EventTypeDeadline           EventType = "Deadline"
)

// IsThesisEvent reports whether the event type participates in folder
// provisioning.
func (t EventType) IsThesisEvent() bool {
	return t == EventTypeThesisSubmission || t == EventTypeThesisResubmission
}

// Event is a calendar entry. EndDate doubles as the submission due date.
type Event struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Type                EventType  `db:"type" json:"type"`
	StartDate           *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate             time.Time  `db:"end_date" json:"end_date"`
	ThesisFolderCreated bool       `db:"thesis_folder_created" json:"thesis_folder_created"`
	ThesisFolderPath    *string    `db:"thesis_folder_path" json:"thesis_folder_path,omitempty"`
	ThesisFolderURL     *string    `db:"thesis_folder_url" json:"thesis_folder_url,omitempty"`
	FolderCreatedAt     *time.Time `db:"folder_created_at" json:"folder_created_at,omitempty"`
	Description         *string    `db:"description" json:"description,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
