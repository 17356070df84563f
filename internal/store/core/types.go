package core

import (
	"time"

	"github.com/vantadev/readiq/internal/security/password"
)

// Role del usuario dentro de la plataforma.
type Role string

const (
	RoleUser       Role = "user"
	RoleTeamLead   Role = "team_lead"
	RoleAdmin      Role = "admin"
)

// User es la cuenta local. PasswordHash nunca es vacío: las cuentas federadas
// llevan un password generado que jamás se usa para login.
type User struct {
	ID    string
	Email string // normalizado lowercase
	Name  string
	Role  Role

	// TeamID agrupa usuarios para los reportes de readiness.
	TeamID string

	PasswordHash    string
	PasswordHistory []password.HistoryEntry

	// IDs de identity providers federados (vacíos si no vinculados)
	GoogleID    string
	MicrosoftID string

	// Reset de contraseña: hash del token opaco y su expiry.
	ResetTokenHash string
	ResetExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword indica si la cuenta tiene un password utilizable (no federado puro).
// Desvincular el último provider OAuth sin password de fallback está prohibido.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
