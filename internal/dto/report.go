package dto

import (
	"encoding/json"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

// SaveReportRequest is the faculty payload persisting an evaluation report.
type SaveReportRequest struct {
	StudentID     string            `json:"studentId" validate:"required"`
	StudentName   string            `json:"studentName" validate:"required"`
	FacultyID     string            `json:"facultyId" validate:"required"`
	ThesisID      string            `json:"thesisId,omitempty"`
	ThesisVersion int               `json:"thesisVersion,omitempty"`
	ThesisTitle   string            `json:"thesisTitle,omitempty"`
	Filename      string            `json:"filename,omitempty"`
	ReportType    models.ReportType `json:"reportType" validate:"required"`
	ReportData    json.RawMessage   `json:"reportData" validate:"required"`
}

// SendReportResponse summarises the delivered report.
type SendReportResponse struct {
	ID          string              `json:"id"`
	StudentID   string              `json:"studentId"`
	StudentName string              `json:"studentName"`
	Status      models.ReportStatus `json:"status"`
	SentDate    string              `json:"sentDate"`
}
