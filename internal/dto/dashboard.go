package dto

import "github.com/deskinspect/deskinspect-api/internal/models"

// StudentProgress summarises one student's submission state for the admin
// dashboard.
type StudentProgress struct {
	StudentID     string              `json:"studentId"`
	StudentName   string              `json:"studentName"`
	Department    string              `json:"department"`
	SupervisorID  string              `json:"supervisorId"`
	Status        models.ThesisStatus `json:"status"`
	Version       int                 `json:"version"`
	ProgressPct   int                 `json:"progressPct"`
	LastSubmitted string              `json:"lastSubmitted"`
}

// DashboardStats aggregates headline counters for the admin dashboard.
type DashboardStats struct {
	Students            int `json:"students"`
	Faculty             int `json:"faculty"`
	Theses              int `json:"theses"`
	ApprovedTheses      int `json:"approvedTheses"`
	UnderReview         int `json:"underReview"`
	Resubmissions       int `json:"resubmissions"`
	Events              int `json:"events"`
	UnreadNotifications int `json:"unreadNotifications"`
}
