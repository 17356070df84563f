package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	httperrors "github.com/vantadev/readiq/internal/http/errors"
	"github.com/vantadev/readiq/internal/http/middlewares"
	svc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/observability/logger"
)

// SessionsController expone las sesiones activas del usuario autenticado.
type SessionsController struct {
	service svc.SessionsService
}

// NewSessionsController crea un nuevo controller de sesiones.
func NewSessionsController(service svc.SessionsService) *SessionsController {
	return &SessionsController{service: service}
}

// List maneja GET /v1/auth/sessions
func (c *SessionsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionsController.List"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	claims := middlewares.GetClaims(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	resp, err := c.service.List(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		log.Error("session list failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Revoke maneja DELETE /v1/auth/sessions/{tokenID}
func (c *SessionsController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionsController.Revoke"))

	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	tokenID := chi.URLParam(r, "tokenID")
	if tokenID == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("tokenID requerido"))
		return
	}

	if err := c.service.Revoke(ctx, userID, tokenID); err != nil {
		if errors.Is(err, svc.ErrSessionNotFound) {
			httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("sesión no encontrada"))
			return
		}
		log.Error("session revoke failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.RevokeSessionResponse{Message: "sesión revocada"})
}
