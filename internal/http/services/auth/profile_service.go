package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
)

// ProfileDeps contiene las dependencias para el profile service.
type ProfileDeps struct {
	Users  core.UserRepository
	Policy password.Policy
	Params password.Params
}

type profileService struct {
	deps ProfileDeps
}

// NewProfileService crea un nuevo servicio de perfil.
func NewProfileService(deps ProfileDeps) ProfileService {
	return &profileService{deps: deps}
}

// Errores de perfil
var (
	ErrUserNotFound   = fmt.Errorf("user not found")
	ErrWrongPassword  = fmt.Errorf("current password incorrect")
	ErrPasswordReused = fmt.Errorf("password present in history")
)

func (s *profileService) Get(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrStoreUnavailable
	}
	return sanitize(user), nil
}

func (s *profileService) Update(ctx context.Context, userID string, in dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("Update"),
		logger.UserID(userID),
	)

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrStoreUnavailable
	}

	changed := false
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
		changed = true
	}
	if !changed {
		return sanitize(user), nil
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.deps.Users.Update(ctx, user); err != nil {
		log.Error("profile update failed", logger.Err(err))
		return nil, ErrStoreUnavailable
	}

	log.Info("profile updated")
	return sanitize(user), nil
}

// ChangePassword exige la contraseña actual, valida la nueva contra la
// política y bloquea la reutilización de las últimas usadas.
func (s *profileService) ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("ChangePassword"),
		logger.UserID(userID),
	)

	if in.CurrentPassword == "" || in.NewPassword == "" {
		return ErrMissingFields
	}

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrUserNotFound
		}
		return ErrStoreUnavailable
	}

	// Paso 1: Verificar la contraseña vigente
	if !password.Verify(in.CurrentPassword, user.PasswordHash) {
		log.Debug("current password mismatch")
		return ErrWrongPassword
	}

	// Paso 2: Política
	if ok, reasons, _ := s.deps.Policy.Validate(in.NewPassword); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ", "))
	}

	// Paso 3: Historia. Compara el plaintext nuevo contra cada hash guardado.
	if password.InHistory(in.NewPassword, user.PasswordHistory) {
		log.Debug("password reuse blocked")
		return ErrPasswordReused
	}

	// Paso 4: Hash nuevo + historia FIFO
	hash, err := password.Hash(s.deps.Params, in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.PasswordHistory = password.AppendHistory(hash, user.PasswordHistory)
	user.UpdatedAt = time.Now().UTC()

	if err := s.deps.Users.Update(ctx, user); err != nil {
		log.Error("password update failed", logger.Err(err))
		return ErrStoreUnavailable
	}

	log.Info("password changed")
	return nil
}

// ─── Internal Helpers ───

func sanitize(u *core.User) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		TeamID:       u.TeamID,
		HasPassword:  u.HasPassword(),
		GoogleLinked: u.GoogleID != "",
		MSLinked:     u.MicrosoftID != "",
		CreatedAt:    u.CreatedAt,
	}
}
