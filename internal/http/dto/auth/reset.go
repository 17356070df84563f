package auth

// ResetRequestRequest represents the request body for POST /v1/auth/reset-request.
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// ResetRequestResponse is always the same, exista o no la cuenta.
type ResetRequestResponse struct {
	Message string `json:"message"`
}

// ResetConfirmRequest represents the request body for POST /v1/auth/reset-confirm.
type ResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResetConfirmResponse confirms the password reset.
type ResetConfirmResponse struct {
	Message string `json:"message"`
}
