package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	httperrors "github.com/vantadev/readiq/internal/http/errors"
	"github.com/vantadev/readiq/internal/http/middlewares"
	svc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/token"
)

// LogoutController maneja el cierre de sesión.
type LogoutController struct {
	service svc.LogoutService
	tokens  *token.Service
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(service svc.LogoutService, tokens *token.Service) *LogoutController {
	return &LogoutController{service: service, tokens: tokens}
}

// Logout maneja POST /v1/auth/logout.
// Siempre limpia las cookies, incluso con un refresh inválido o ausente.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	refresh := token.FromRequest(r, token.KindRefresh)
	err := c.service.Logout(ctx, refresh)

	c.tokens.ClearCookies(w)

	if err != nil {
		log.Warn("logout degraded", logger.Err(err))
		if errors.Is(err, svc.ErrStoreUnavailable) {
			httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
			return
		}
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.LogoutResponse{Message: "sesión cerrada"})
}

// LogoutAll maneja POST /v1/auth/logout-all. Requiere access token válido.
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.LogoutAll"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	n, err := c.service.LogoutAll(ctx, userID)
	if err != nil {
		log.Error("logout all failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	c.tokens.ClearCookies(w)
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.LogoutAllResponse{
		Message: "todas las sesiones cerradas",
		Revoked: n,
	})
}
