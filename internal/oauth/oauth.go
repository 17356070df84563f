// Package oauth define el contrato común para login federado vía ID token.
// Cada provider valida el id_token emitido a nuestro client y devuelve una
// Identity mínima; el resto del flujo (find-or-create, emisión de pareja de
// tokens) vive en la capa de servicios.
package oauth

import "context"

// Identity es lo que un provider verificado nos dice del usuario.
type Identity struct {
	Provider      string
	Subject       string // ID estable del usuario en el provider
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier valida un id_token de un provider concreto.
type Verifier interface {
	Provider() string
	Verify(ctx context.Context, idToken string) (*Identity, error)
}
