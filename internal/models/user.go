package models

import (
	"strings"
	"time"
)

// UserRole represents the canonical roles for the RBAC system. Role strings
// arriving from clients or legacy data are normalised once at the boundary
// via NormalizeRole.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleFaculty UserRole = "FACULTY"
	RoleStudent UserRole = "STUDENT"
)

// NormalizeRole maps free-form role strings ("faculty", "Faculty", "admin")
// onto the canonical enum. Unknown strings map to the empty role.
func NormalizeRole(raw string) UserRole {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ADMIN", "SUPERADMIN":
		return RoleAdmin
	case "FACULTY", "SUPERVISOR", "TEACHER":
		return RoleFaculty
	case "STUDENT":
		return RoleStudent
	default:
		return ""
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID                 string    `db:"id" json:"id"`
	Email              string    `db:"email" json:"email"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	FullName           string    `db:"full_name" json:"full_name"`
	Role               UserRole  `db:"role" json:"role"`
	StudentID          *string   `db:"student_id" json:"student_id,omitempty"`
	Department         *string   `db:"department" json:"department,omitempty"`
	ContactNumber      *string   `db:"contact_number" json:"contact_number,omitempty"`
	ProfileImageURL    *string   `db:"profile_image_url" json:"profile_image_url,omitempty"`
	EmailNotifications bool      `db:"email_notifications" json:"email_notifications"`
	Active             bool      `db:"active" json:"active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
