package auth

import (
	"context"
	"fmt"
	"sort"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/metrics"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/token"
)

// SessionsDeps contiene las dependencias para el sessions service.
type SessionsDeps struct {
	Tokens *token.Service
}

type sessionsService struct {
	deps SessionsDeps
}

// NewSessionsService crea un nuevo servicio de sesiones.
func NewSessionsService(deps SessionsDeps) SessionsService {
	return &sessionsService{deps: deps}
}

// Errores de sesiones
var (
	ErrSessionNotFound = fmt.Errorf("session not found")
)

func (s *sessionsService) List(ctx context.Context, userID, currentSessionID string) (*dto.SessionsResponse, error) {
	sessions, err := s.deps.Tokens.SessionsForUser(ctx, userID)
	if err != nil {
		logger.From(ctx).Error("session scan failed",
			logger.Layer("service"),
			logger.Component("auth.sessions"),
			logger.Err(err),
		)
		return nil, ErrStoreUnavailable
	}

	// más reciente primero
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	out := make([]dto.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, dto.SessionInfo{
			SessionID: sess.SessionID,
			TokenID:   sess.TokenID,
			CreatedAt: sess.CreatedAt,
			LastUsed:  sess.LastUsed,
			ExpiresAt: sess.ExpiresAt,
			UserAgent: sess.UserAgent,
			IPAddress: sess.IPAddress,
			Current:   sess.SessionID == currentSessionID,
		})
	}

	return &dto.SessionsResponse{Sessions: out, Total: len(out)}, nil
}

// Revoke tumba una sesión puntual del propio usuario. El tokenID tiene que
// pertenecerle: no hay revocación cross-user por esta vía.
func (s *sessionsService) Revoke(ctx context.Context, userID, tokenID string) error {
	sessions, err := s.deps.Tokens.SessionsForUser(ctx, userID)
	if err != nil {
		return ErrStoreUnavailable
	}

	for _, sess := range sessions {
		if sess.TokenID == tokenID {
			if err := s.deps.Tokens.Revoke(ctx, tokenID); err != nil {
				return ErrStoreUnavailable
			}
			logger.From(ctx).Info("session revoked",
				logger.Layer("service"),
				logger.Component("auth.sessions"),
				logger.UserID(userID),
				logger.TokenID(tokenID),
			)
			metrics.ObserveRevocation("session", 1)
			return nil
		}
	}
	return ErrSessionNotFound
}
