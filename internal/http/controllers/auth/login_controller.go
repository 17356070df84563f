package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	httperrors "github.com/vantadev/readiq/internal/http/errors"
	svc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/token"
)

// LoginController maneja el endpoint de login.
type LoginController struct {
	service svc.LoginService
	tokens  *token.Service
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService, tokens *token.Service) *LoginController {
	return &LoginController{service: service, tokens: tokens}
}

// Login maneja POST /v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, pair, err := c.service.Login(ctx, req, requestMetadata(r))
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeLoginError(w, err)
		return
	}

	c.tokens.SetCookies(w, pair)
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// ─── Helpers ───

func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrInvalidCredentials):
		// mensaje genérico: nunca distinguimos email de password
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)

	case errors.Is(err, svc.ErrAccountLocked):
		httperrors.WriteError(w, httperrors.ErrAccountLocked)

	case errors.Is(err, svc.ErrStoreUnavailable):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)

	case errors.Is(err, svc.ErrTokenIssue):
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir tokens"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
