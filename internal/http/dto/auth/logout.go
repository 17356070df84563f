package auth

// LogoutResponse represents the response for POST /v1/auth/logout.
type LogoutResponse struct {
	Message string `json:"message"`
}

// LogoutAllResponse represents the response for POST /v1/auth/logout-all.
type LogoutAllResponse struct {
	Message string `json:"message"`
	Revoked int    `json:"revoked_sessions"`
}
