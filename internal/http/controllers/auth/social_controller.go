package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	httperrors "github.com/vantadev/readiq/internal/http/errors"
	svc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/oauth"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/token"
)

// SocialController maneja login federado por id_token.
type SocialController struct {
	service   svc.SocialService
	tokens    *token.Service
	verifiers map[string]oauth.Verifier
}

// NewSocialController crea un nuevo controller de social login.
func NewSocialController(service svc.SocialService, tokens *token.Service, verifiers map[string]oauth.Verifier) *SocialController {
	if verifiers == nil {
		verifiers = map[string]oauth.Verifier{}
	}
	return &SocialController{service: service, tokens: tokens, verifiers: verifiers}
}

// Login maneja POST /v1/auth/social/{provider}
func (c *SocialController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SocialController.Login"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	provider := chi.URLParam(r, "provider")
	verifier, ok := c.verifiers[provider]
	if !ok {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("provider no soportado"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.SocialLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, pair, err := c.service.Login(ctx, verifier, req.IDToken, requestMetadata(r))
	if err != nil {
		log.Debug("social login failed", logger.Provider(provider), logger.Err(err))
		writeSocialError(w, err)
		return
	}

	c.tokens.SetCookies(w, pair)
	w.Header().Set("Content-Type", contentTypeJSON)
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// ─── Helpers ───

func writeSocialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrIDTokenInvalid):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("id_token inválido"))

	case errors.Is(err, svc.ErrEmailUnverified):
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("el provider no verificó el email"))

	case errors.Is(err, svc.ErrProviderLinked):
		httperrors.WriteError(w, httperrors.ErrProviderAlreadyLinked)

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
