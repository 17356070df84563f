// Package auth contiene los servicios del flujo de autenticación.
package auth

import (
	"context"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/oauth"
	"github.com/vantadev/readiq/internal/token"
)

// RegisterService define el alta de cuentas locales.
type RegisterService interface {
	// Register crea la cuenta, reclama submissions anónimas y emite tokens.
	Register(ctx context.Context, in dto.RegisterRequest, meta token.Metadata) (*dto.RegisterResponse, *token.Pair, error)
}

// LoginService define el login con email/password.
type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest, meta token.Metadata) (*dto.LoginResponse, *token.Pair, error)
}

// RefreshService define la renovación y rotación del par de tokens.
type RefreshService interface {
	// Refresh emite un access token nuevo contra un refresh válido.
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, string, error)
	// Rotate revoca el refresh actual y emite un par nuevo en la misma sesión.
	// La metadata del dispositivo se preserva desde la entrada anterior.
	Rotate(ctx context.Context, refreshToken string) (*dto.RotateResponse, *token.Pair, error)
}

// LogoutService define el cierre de sesión.
type LogoutService interface {
	// Logout revoca el refresh token presentado. Idempotente.
	Logout(ctx context.Context, refreshToken string) error
	// LogoutAll revoca todas las sesiones del usuario.
	LogoutAll(ctx context.Context, userID string) (int, error)
}

// ProfileService define la vista y edición del perfil propio.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	Update(ctx context.Context, userID string, in dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) error
}

// ResetService define el flujo de reset de contraseña por email.
type ResetService interface {
	// Request genera el token de reset y dispara el correo.
	// Nunca revela si el email existe.
	Request(ctx context.Context, email string) error
	// Confirm consume el token y fija la nueva contraseña.
	Confirm(ctx context.Context, in dto.ResetConfirmRequest) error
}

// SocialService define el login federado find-or-create.
type SocialService interface {
	Login(ctx context.Context, verifier oauth.Verifier, idToken string, meta token.Metadata) (*dto.SocialLoginResponse, *token.Pair, error)
}

// SessionsService define la consulta y revocación de sesiones activas.
type SessionsService interface {
	List(ctx context.Context, userID, currentSessionID string) (*dto.SessionsResponse, error)
	Revoke(ctx context.Context, userID, tokenID string) error
}
