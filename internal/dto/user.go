package dto

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FullName   string `json:"fullName" validate:"required"`
	Role       string `json:"role" validate:"required"`
	StudentID  string `json:"studentId,omitempty"`
	Department string `json:"department,omitempty"`
}

// UpdateProfileRequest carries the mutable profile fields. Pointer fields
// distinguish "clear" from "leave unchanged".
type UpdateProfileRequest struct {
	FullName           string  `json:"fullName,omitempty"`
	ContactNumber      *string `json:"contactNumber,omitempty"`
	Department         *string `json:"department,omitempty"`
	ProfileImageURL    *string `json:"profileImageUrl,omitempty"`
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
}
