package dto

import (
	"time"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

// SubmitThesisRequest is the payload for an initial submission.
type SubmitThesisRequest struct {
	StudentName  string `json:"studentName" validate:"required"`
	StudentID    string `json:"studentId" validate:"required"`
	Department   string `json:"department" validate:"required"`
	FileURL      string `json:"fileUrl" validate:"required,url"`
	SupervisorID string `json:"supervisorId" validate:"required"`
}

// RequestResubmissionRequest is the faculty payload flagging a thesis for
// resubmission.
type RequestResubmissionRequest struct {
	ThesisID  string `json:"thesisId" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
	FacultyID string `json:"facultyId" validate:"required"`
}

// SubmitResubmissionRequest is the student payload submitting a new version.
type SubmitResubmissionRequest struct {
	OriginalThesisID string `json:"originalThesisId" validate:"required"`
	StudentID        string `json:"studentId" validate:"required"`
	FileURL          string `json:"fileUrl" validate:"required,url"`
	StudentName      string `json:"studentName,omitempty"`
	Department       string `json:"department,omitempty"`
}

// UpdateThesisStatusRequest is the faculty review decision payload.
type UpdateThesisStatusRequest struct {
	Status    models.ThesisStatus `json:"status" validate:"required"`
	FacultyID string              `json:"facultyId" validate:"required"`
}

// VersionHistoryResponse lists every record in a thesis chain, newest
// version first.
type VersionHistoryResponse struct {
	OriginalThesisID string          `json:"originalThesisId"`
	CurrentVersion   int             `json:"currentVersion"`
	TotalVersions    int             `json:"totalVersions"`
	Versions         []models.Thesis `json:"versions"`
}

// ResubmissionStatusResponse reports whether a student has an outstanding
// resubmission request.
type ResubmissionStatusResponse struct {
	ResubmissionRequested bool                      `json:"resubmissionRequested"`
	Thesis                *ResubmissionStatusThesis `json:"thesis,omitempty"`
}

// ResubmissionStatusThesis is the subset of thesis fields surfaced with an
// outstanding request.
type ResubmissionStatusThesis struct {
	ID          string      `json:"id"`
	Reason      *string     `json:"reason,omitempty"`
	RequestedAt *time.Time  `json:"requestedAt,omitempty"`
	Supervisor  *Supervisor `json:"supervisor,omitempty"`
	Version     int         `json:"version"`
	StudentID   string      `json:"studentId"`
	StudentName string      `json:"studentName"`
}

// Supervisor is the public view of a faculty user.
type Supervisor struct {
	ID         string  `json:"id"`
	FullName   string  `json:"fullName"`
	Email      string  `json:"email"`
	Department *string `json:"department,omitempty"`
}
