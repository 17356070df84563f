package auth

import (
	"context"

	"github.com/vantadev/readiq/internal/metrics"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/token"
)

// LogoutDeps contiene las dependencias para el logout service.
type LogoutDeps struct {
	Tokens *token.Service
}

type logoutService struct {
	deps LogoutDeps
}

// NewLogoutService crea un nuevo servicio de logout.
func NewLogoutService(deps LogoutDeps) LogoutService {
	return &logoutService{deps: deps}
}

// Logout revoca la entrada del refresh presentado. Con un token ilegible o
// ya revocado no hay nada que hacer: el logout es idempotente y nunca filtra
// el estado del token al cliente.
func (s *logoutService) Logout(ctx context.Context, refreshToken string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("Logout"),
	)

	if refreshToken == "" {
		return nil
	}

	claims, err := s.deps.Tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		log.Error("logout store failure", logger.Err(err))
		return ErrStoreUnavailable
	}
	if claims == nil {
		// inválido o ya revocado: nada que revocar
		return nil
	}

	if err := s.deps.Tokens.Revoke(ctx, claims.TokenID); err != nil {
		log.Error("revoke failed", logger.Err(err), logger.TokenID(claims.TokenID))
		return ErrStoreUnavailable
	}

	log.Info("session revoked",
		logger.UserID(claims.UserID),
		logger.SessionID(claims.SessionID),
	)
	metrics.ObserveRevocation("logout", 1)
	return nil
}

// LogoutAll revoca todas las sesiones del usuario y devuelve cuántas cayeron.
func (s *logoutService) LogoutAll(ctx context.Context, userID string) (int, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("LogoutAll"),
		logger.UserID(userID),
	)

	n, err := s.deps.Tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		log.Error("revoke all failed", logger.Err(err), logger.Count(n))
		return n, ErrStoreUnavailable
	}

	log.Info("all sessions revoked", logger.Count(n))
	metrics.ObserveRevocation("logout_all", n)
	return n, nil
}
