package core

import "context"

// UserRepository es el contrato mínimo contra el user record store:
// lookups por clave + insert/update. El resto del sistema no conoce el motor.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetByMicrosoftID(ctx context.Context, microsoftID string) (*User, error)

	// Create falla con ErrConflict si el email ya existe.
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error

	Ping(ctx context.Context) error
}

// SubmissionClaimer transfiere submissions anónimas pre-existentes que
// matchean el email al usuario recién registrado. Colaborador externo:
// el subsistema de surveys lo implementa.
type SubmissionClaimer interface {
	ClaimByEmail(ctx context.Context, email, userID string) (int, error)
}

// NoopClaimer se usa cuando el subsistema de surveys no está montado.
type NoopClaimer struct{}

func (NoopClaimer) ClaimByEmail(ctx context.Context, email, userID string) (int, error) {
	return 0, nil
}
