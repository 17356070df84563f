package auth

// RegisterRequest represents the request body for POST /v1/auth/register
type RegisterRequest struct {
	// Email is required and must be a valid email format.
	Email string `json:"email"`
	// Password is required and subject to password policy.
	Password string `json:"password"`
	// Name is optional display name.
	Name string `json:"name,omitempty"`
	// TeamID is optional; empty means the default team.
	TeamID string `json:"team_id,omitempty"`
}

// RegisterResponse represents the response for a successful registration.
// Tokens travel in httpOnly cookies, never in the body.
type RegisterResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	ExpiresIn int64  `json:"expires_in"`
	Claimed   int    `json:"claimed_submissions,omitempty"`
}
