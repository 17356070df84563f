package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	httperrors "github.com/vantadev/readiq/internal/http/errors"
	svc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/observability/logger"
)

// ResetController maneja el flujo de reset de contraseña.
type ResetController struct {
	service svc.ResetService
}

// NewResetController crea un nuevo controller de reset.
func NewResetController(service svc.ResetService) *ResetController {
	return &ResetController{service: service}
}

// Request maneja POST /v1/auth/reset-request.
// La respuesta es 200 con el mismo cuerpo exista o no la cuenta.
func (c *ResetController) Request(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ResetController.Request"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.ResetRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.Request(ctx, req.Email); err != nil {
		// el fallo interno tampoco revela existencia de cuenta
		log.Error("reset request failed", logger.Err(err))
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.ResetRequestResponse{
		Message: "si la cuenta existe, enviamos un correo con instrucciones",
	})
}

// Confirm maneja POST /v1/auth/reset-confirm
func (c *ResetController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ResetController.Confirm"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.ResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if err := c.service.Confirm(ctx, req); err != nil {
		log.Debug("reset confirm failed", logger.Err(err))
		writeResetError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.ResetConfirmResponse{Message: "contraseña restablecida"})
}

// ─── Helpers ───

func writeResetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("token y new_password son obligatorios"))

	case errors.Is(err, svc.ErrResetTokenInvalid):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithDetail("token de reset inválido o vencido"))

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
