package models

import "time"

// ReportType enumerates supported evaluation report categories.
type ReportType string

const (
	ReportTypeThesisEvaluation    ReportType = "thesis-evaluation"
	ReportTypePlagiarismDetection ReportType = "plagiarism-detection"
	ReportTypeAIDetection         ReportType = "ai-detection"
)

// ValidReportType reports whether the type is known.
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportTypeThesisEvaluation, ReportTypePlagiarismDetection, ReportTypeAIDetection:
		return true
	}
	return false
}

// ReportStatus tracks the report workflow.
type ReportStatus string

const (
	ReportStatusDraft ReportStatus = "draft"
	ReportStatusSaved ReportStatus = "saved"
	ReportStatusSent  ReportStatus = "sent"
)

// Report is a faculty evaluation document for a thesis version. Marking a
// thesis-evaluation report as sent approves the student's latest thesis.
type Report struct {
	ID            string       `db:"id" json:"id"`
	ReportID      string       `db:"report_id" json:"report_id"`
	StudentID     string       `db:"student_id" json:"student_id"`
	StudentName   string       `db:"student_name" json:"student_name"`
	FacultyID     string       `db:"faculty_id" json:"faculty_id"`
	ThesisID      string       `db:"thesis_id" json:"thesis_id"`
	ThesisVersion int          `db:"thesis_version" json:"thesis_version"`
	ThesisTitle   *string      `db:"thesis_title" json:"thesis_title,omitempty"`
	Filename      *string      `db:"filename" json:"filename,omitempty"`
	ReportType    ReportType   `db:"report_type" json:"report_type"`
	ReportData    []byte       `db:"report_data" json:"report_data"`
	Status        ReportStatus `db:"status" json:"status"`
	SentDate      *time.Time   `db:"sent_date" json:"sent_date,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}
