package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/vantadev/readiq/internal/http/errors"
	"github.com/vantadev/readiq/internal/http/middlewares"
	svc "github.com/vantadev/readiq/internal/http/services/auth"
)

// MeController expone el perfil del usuario autenticado.
type MeController struct {
	service svc.ProfileService
}

// NewMeController crea un nuevo controller de /me.
func NewMeController(service svc.ProfileService) *MeController {
	return &MeController{service: service}
}

// Me maneja GET /v1/me
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	resp, err := c.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, svc.ErrUserNotFound) {
			// token válido para una cuenta que ya no existe
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
