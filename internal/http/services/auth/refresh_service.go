package auth

import (
	"context"
	"fmt"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/metrics"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/token"
)

// RefreshDeps contiene las dependencias para el refresh service.
type RefreshDeps struct {
	Tokens *token.Service
}

type refreshService struct {
	deps RefreshDeps
}

// NewRefreshService crea un nuevo servicio de refresh.
func NewRefreshService(deps RefreshDeps) RefreshService {
	return &refreshService{deps: deps}
}

// Errores de refresh
var (
	ErrRefreshInvalid = fmt.Errorf("refresh token invalid or revoked")
)

// Refresh emite un access token nuevo. El refresh presentado sigue vigente:
// la renovación no rota la sesión.
func (s *refreshService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	if refreshToken == "" {
		return nil, "", ErrRefreshInvalid
	}

	access, _, err := s.deps.Tokens.RefreshAccess(ctx, refreshToken)
	if err != nil {
		log.Error("refresh store failure", logger.Err(err))
		metrics.ObserveRefresh("error")
		return nil, "", ErrStoreUnavailable
	}
	if access == "" {
		log.Debug("refresh rejected")
		metrics.ObserveRefresh("invalid")
		return nil, "", ErrRefreshInvalid
	}
	metrics.ObserveRefresh("ok")

	return &dto.RefreshResponse{
		ExpiresIn: int64(s.deps.Tokens.AccessTTL().Seconds()),
	}, access, nil
}

// Rotate revoca el refresh presentado y emite un par nuevo, misma sesión.
func (s *refreshService) Rotate(ctx context.Context, refreshToken string) (*dto.RotateResponse, *token.Pair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Rotate"),
	)

	if refreshToken == "" {
		return nil, nil, ErrRefreshInvalid
	}

	pair, err := s.deps.Tokens.Rotate(ctx, refreshToken)
	if err != nil {
		log.Error("rotate store failure", logger.Err(err))
		return nil, nil, ErrStoreUnavailable
	}
	if pair == nil {
		log.Debug("rotate rejected")
		return nil, nil, ErrRefreshInvalid
	}

	log.Info("refresh rotated",
		logger.SessionID(pair.SessionID),
		logger.TokenID(pair.TokenID),
	)
	metrics.ObserveRevocation("rotate", 1)

	return &dto.RotateResponse{
		SessionID: pair.SessionID,
		ExpiresIn: int64(s.deps.Tokens.AccessTTL().Seconds()),
	}, pair, nil
}
