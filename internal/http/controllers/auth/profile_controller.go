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
)

// ProfileController maneja edición de perfil y cambio de contraseña.
type ProfileController struct {
	service svc.ProfileService
}

// NewProfileController crea un nuevo controller de perfil.
func NewProfileController(service svc.ProfileService) *ProfileController {
	return &ProfileController{service: service}
}

// Update maneja PATCH /v1/profile
func (c *ProfileController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Update"))

	if r.Method != http.MethodPatch {
		w.Header().Set("Allow", "PATCH")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	resp, err := c.service.Update(ctx, userID, req)
	if err != nil {
		log.Debug("profile update failed", logger.Err(err))
		writeProfileError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// ChangePassword maneja POST /v1/profile/password
func (c *ProfileController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.ChangePassword"))

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

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.ChangePassword(ctx, userID, req); err != nil {
		log.Debug("password change failed", logger.Err(err))
		writeProfileError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.ChangePasswordResponse{Message: "contraseña actualizada"})
}

// ─── Helpers ───

func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)

	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)

	case errors.Is(err, svc.ErrWrongPassword):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("contraseña actual incorrecta"))

	case errors.Is(err, svc.ErrWeakPassword):
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(err.Error()))

	case errors.Is(err, svc.ErrPasswordReused):
		httperrors.WriteError(w, httperrors.ErrPasswordReused)

	case errors.Is(err, svc.ErrStoreUnavailable):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)

	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}
