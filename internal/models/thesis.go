package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ThesisStatus captures the lifecycle states of a submission.
type ThesisStatus string

const (
	ThesisStatusNotSubmitted          ThesisStatus = "Not Submitted"
	ThesisStatusSubmitted             ThesisStatus = "Submitted"
	ThesisStatusUnderReview           ThesisStatus = "Under Review"
	ThesisStatusResubmit              ThesisStatus = "Resubmit"
	ThesisStatusApproved              ThesisStatus = "Approved"
	ThesisStatusRejected              ThesisStatus = "Rejected"
	ThesisStatusResubmissionRequested ThesisStatus = "Resubmission Requested"
	ThesisStatusResubmitted           ThesisStatus = "Resubmitted"
)

// ValidThesisStatus reports whether the given status is a known lifecycle state.
func ValidThesisStatus(s ThesisStatus) bool {
	switch s {
	case ThesisStatusNotSubmitted, ThesisStatusSubmitted, ThesisStatusUnderReview,
		ThesisStatusResubmit, ThesisStatusApproved, ThesisStatusRejected,
		ThesisStatusResubmissionRequested, ThesisStatusResubmitted:
		return true
	}
	return false
}

// SubmissionSnapshot is one frozen entry of a thesis version prior to a
// resubmission. Snapshots are append-only.
type SubmissionSnapshot struct {
	Version     int          `json:"version"`
	SubmittedAt time.Time    `json:"submittedAt"`
	FileURL     string       `json:"fileUrl"`
	Status      ThesisStatus `json:"status"`
	Score       *float64     `json:"score,omitempty"`
	Feedback    *string      `json:"feedback,omitempty"`
}

// SubmissionHistory is stored as a JSONB column.
type SubmissionHistory []SubmissionSnapshot

// Value implements driver.Valuer.
func (h SubmissionHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *SubmissionHistory) Scan(src interface{}) error {
	if src == nil {
		*h = SubmissionHistory{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("submission history: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*h = SubmissionHistory{}
		return nil
	}
	return json.Unmarshal(raw, h)
}

// Thesis is one submission artifact at a specific version. Identity and
// chain pointers are immutable after creation; status, the resubmission
// request fields, and the append-only history are the only mutable parts.
type Thesis struct {
	ID           string       `db:"id" json:"id"`
	StudentName  string       `db:"student_name" json:"student_name"`
	StudentID    string       `db:"student_id" json:"student_id"`
	Department   string       `db:"department" json:"department"`
	FileURL      string       `db:"file_url" json:"file_url"`
	SupervisorID string       `db:"supervisor_id" json:"supervisor_id"`
	Status       ThesisStatus `db:"status" json:"status"`

	Version              int     `db:"version" json:"version"`
	IsResubmission       bool    `db:"is_resubmission" json:"is_resubmission"`
	ParentThesisID       *string `db:"parent_thesis_id" json:"parent_thesis_id,omitempty"`
	OriginalSubmissionID *string `db:"original_submission_id" json:"original_submission_id,omitempty"`

	ResubmissionRequested   bool       `db:"resubmission_requested" json:"resubmission_requested"`
	ResubmissionRequestedAt *time.Time `db:"resubmission_requested_at" json:"resubmission_requested_at,omitempty"`
	ResubmissionRequestedBy *string    `db:"resubmission_requested_by" json:"resubmission_requested_by,omitempty"`
	ResubmissionReason      *string    `db:"resubmission_reason" json:"resubmission_reason,omitempty"`

	SubmissionHistory SubmissionHistory `db:"submission_history" json:"submission_history"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChainRootID returns the identifier of the first version in this thesis's
// chain. A record without an original-submission pointer is its own root.
func (t *Thesis) ChainRootID() string {
	if t.OriginalSubmissionID != nil && *t.OriginalSubmissionID != "" {
		return *t.OriginalSubmissionID
	}
	return t.ID
}
