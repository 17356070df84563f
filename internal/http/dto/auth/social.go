package auth

// SocialLoginRequest represents the request body for POST /v1/auth/social/{provider}.
// IDToken is the identity token issued by the provider to the frontend.
type SocialLoginRequest struct {
	IDToken string `json:"id_token"`
}

// SocialLoginResponse represents the response for a successful social login.
type SocialLoginResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	ExpiresIn int64  `json:"expires_in"`
	// Created indica si la cuenta se creó en este login.
	Created bool `json:"created"`
}
