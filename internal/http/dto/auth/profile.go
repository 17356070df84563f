package auth

import "time"

// ProfileResponse is the sanitized view of a user for GET /v1/me.
// Never includes password material ni tokens de reset.
type ProfileResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Role         string    `json:"role"`
	TeamID       string    `json:"team_id,omitempty"`
	HasPassword  bool      `json:"has_password"`
	GoogleLinked bool      `json:"google_linked"`
	MSLinked     bool      `json:"microsoft_linked"`
	CreatedAt    time.Time `json:"created_at"`
}

// UpdateProfileRequest represents the request body for PATCH /v1/profile.
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty"`
}

// ChangePasswordRequest represents the request body for POST /v1/profile/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePasswordResponse confirms a password change.
type ChangePasswordResponse struct {
	Message string `json:"message"`
}
