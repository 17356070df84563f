package auth

import "time"

// SessionInfo is one active refresh session for GET /v1/auth/sessions.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	TokenID   string    `json:"token_id"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	// Current marca la sesión desde la que se hace la consulta.
	Current bool `json:"current"`
}

// SessionsResponse lists the caller's active sessions.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
	Total    int           `json:"total"`
}

// RevokeSessionResponse confirms a single-session revocation.
type RevokeSessionResponse struct {
	Message string `json:"message"`
}
