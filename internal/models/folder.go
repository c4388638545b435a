package models

import "time"

// FolderScheduleStatus tracks the provisioning lifecycle for an event.
type FolderScheduleStatus string

const (
	FolderScheduleStatusScheduled FolderScheduleStatus = "scheduled"
	FolderScheduleStatusCreated   FolderScheduleStatus = "created"
	FolderScheduleStatusFailed    FolderScheduleStatus = "failed"
)

// FolderSchedule is the auditable record of a deferred folder-provisioning
// action. One row per event; failures keep the row with an error message so
// a manual trigger can retry.
type FolderSchedule struct {
	ID                 string               `db:"id" json:"id"`
	EventID            string               `db:"event_id" json:"event_id"`
	EventName          string               `db:"event_name" json:"event_name"`
	EventType          EventType            `db:"event_type" json:"event_type"`
	DueDate            time.Time            `db:"due_date" json:"due_date"`
	FolderCreationDate time.Time            `db:"folder_creation_date" json:"folder_creation_date"`
	Status             FolderScheduleStatus `db:"status" json:"status"`
	FolderPath         *string              `db:"folder_path" json:"folder_path,omitempty"`
	FolderURL          *string              `db:"folder_url" json:"folder_url,omitempty"`
	Error              *string              `db:"error" json:"error,omitempty"`
	LastAttempt        *time.Time           `db:"last_attempt" json:"last_attempt,omitempty"`
	CreatedAt          time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time            `db:"updated_at" json:"updated_at"`
}

// ThesisFolder is the provisioned storage folder for a thesis event.
type ThesisFolder struct {
	ID                  string    `db:"id" json:"id"`
	EventID             string    `db:"event_id" json:"event_id"`
	EventName           string    `db:"event_name" json:"event_name"`
	EventType           EventType `db:"event_type" json:"event_type"`
	DueDate             time.Time `db:"due_date" json:"due_date"`
	FolderCreationDate  time.Time `db:"folder_creation_date" json:"folder_creation_date"`
	FolderPath          string    `db:"folder_path" json:"folder_path"`
	FolderURL           string    `db:"folder_url" json:"folder_url"`
	VirtualFolderID     string    `db:"virtual_folder_id" json:"virtual_folder_id"`
	Status              string    `db:"status" json:"status"`
	TotalStudents       int       `db:"total_students" json:"total_students"`
	SubmissionsReceived int       `db:"submissions_received" json:"submissions_received"`
	Department          string    `db:"department" json:"department"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
