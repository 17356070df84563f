package auth

// RefreshResponse represents the response for POST /v1/auth/refresh.
// The new access token travels in the cookie; the body only confirms.
type RefreshResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

// RotateResponse represents the response for POST /v1/auth/rotate.
type RotateResponse struct {
	SessionID string `json:"session_id"`
	ExpiresIn int64  `json:"expires_in"`
}
