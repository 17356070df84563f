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

// RegisterController maneja el endpoint de registro.
type RegisterController struct {
	service svc.RegisterService
	tokens  *token.Service
}

// NewRegisterController crea un nuevo controller de registro.
func NewRegisterController(service svc.RegisterService, tokens *token.Service) *RegisterController {
	return &RegisterController{service: service, tokens: tokens}
}

// Register maneja POST /v1/auth/register
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, pair, err := c.service.Register(ctx, req, requestMetadata(r))
	if err != nil {
		log.Debug("register failed", logger.Err(err))
		writeRegisterError(w, err)
		return
	}

	c.tokens.SetCookies(w, pair)
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

// ─── Helpers ───

func writeRegisterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email y password son obligatorios"))

	case errors.Is(err, svc.ErrInvalidEmail):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("formato de email inválido"))

	case errors.Is(err, svc.ErrWeakPassword):
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(err.Error()))

	case errors.Is(err, svc.ErrEmailTaken):
		httperrors.WriteError(w, httperrors.ErrEmailAlreadyInUse)

	case errors.Is(err, svc.ErrStoreUnavailable):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)

	case errors.Is(err, svc.ErrTokenIssue):
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("error al emitir tokens"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

// requestMetadata captura el contexto de dispositivo que viaja al registro
// de refresh tokens.
func requestMetadata(r *http.Request) token.Metadata {
	return token.Metadata{
		UserAgent: r.UserAgent(),
		IPAddress: remoteIP(r),
	}
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
