package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/vantadev/readiq/internal/http/errors"
	svc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/token"
)

// RefreshController maneja renovación y rotación del par de tokens.
// El refresh token viaja exclusivamente en su cookie httpOnly.
type RefreshController struct {
	service svc.RefreshService
	tokens  *token.Service
}

// NewRefreshController crea un nuevo controller de refresh.
func NewRefreshController(service svc.RefreshService, tokens *token.Service) *RefreshController {
	return &RefreshController{service: service, tokens: tokens}
}

// Refresh maneja POST /v1/auth/refresh
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	refresh := token.FromRequest(r, token.KindRefresh)
	if refresh == "" {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	resp, access, err := c.service.Refresh(ctx, refresh)
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		writeRefreshError(w, c.tokens, err)
		return
	}

	c.tokens.SetAccessCookie(w, access)
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// Rotate maneja POST /v1/auth/rotate
func (c *RefreshController) Rotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Rotate"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	refresh := token.FromRequest(r, token.KindRefresh)
	if refresh == "" {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	resp, pair, err := c.service.Rotate(ctx, refresh)
	if err != nil {
		log.Debug("rotate failed", logger.Err(err))
		writeRefreshError(w, c.tokens, err)
		return
	}

	c.tokens.SetCookies(w, pair)
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// ─── Helpers ───

func writeRefreshError(w http.ResponseWriter, tokens *token.Service, err error) {
	switch {
	case errors.Is(err, svc.ErrRefreshInvalid):
		// cookie muerta: limpiarla evita reintentos inútiles del cliente
		tokens.ClearCookies(w)
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)

	case errors.Is(err, svc.ErrStoreUnavailable):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
