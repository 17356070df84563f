package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vantadev/readiq/internal/cache"
	"github.com/vantadev/readiq/internal/email"
	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/metrics"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/security/password"
	sectoken "github.com/vantadev/readiq/internal/security/token"
	"github.com/vantadev/readiq/internal/store/core"
	"github.com/vantadev/readiq/internal/token"
)

const (
	resetKeyPrefix  = "pwreset:"
	resetTokenBytes = 32
)

// ResetDeps contiene las dependencias para el reset service.
type ResetDeps struct {
	Users   core.UserRepository
	Cache   cache.Client
	Sender  email.Sender
	Tokens  *token.Service // para revocar sesiones tras el reset
	Policy  password.Policy
	Params  password.Params
	BaseURL string        // frontend, para armar el link
	TTL     time.Duration // vigencia del token de reset
}

type resetService struct {
	deps ResetDeps
}

// NewResetService crea un nuevo servicio de reset de contraseña.
func NewResetService(deps ResetDeps) ResetService {
	if deps.TTL <= 0 {
		deps.TTL = 30 * time.Minute
	}
	return &resetService{deps: deps}
}

// Errores de reset
var (
	ErrResetTokenInvalid = fmt.Errorf("reset token invalid or expired")
)

// Request genera un token opaco, guarda su hash y dispara el correo.
// La respuesta es idéntica exista o no la cuenta: acá solo se loguea.
func (s *resetService) Request(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reset"),
		logger.Op("Request"),
	)

	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if emailAddr == "" {
		return nil
	}

	user, err := s.deps.Users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Debug("reset requested for unknown email")
			return nil
		}
		log.Error("user lookup failed", logger.Err(err))
		return ErrStoreUnavailable
	}

	// Paso 1: Token opaco. Solo el hash se persiste.
	plain, err := sectoken.GenerateOpaqueToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	hash := sectoken.SHA256Hex(plain)

	// Paso 2: Persistir hash + expiry en el user record y el índice en cache.
	// Un request nuevo invalida el token anterior.
	user.ResetTokenHash = hash
	user.ResetExpiresAt = time.Now().UTC().Add(s.deps.TTL)
	user.UpdatedAt = time.Now().UTC()
	if err := s.deps.Users.Update(ctx, user); err != nil {
		log.Error("reset persist failed", logger.Err(err))
		return ErrStoreUnavailable
	}
	if err := s.deps.Cache.Set(ctx, resetKeyPrefix+hash, user.ID, s.deps.TTL); err != nil {
		log.Error("reset index failed", logger.Err(err))
		return ErrStoreUnavailable
	}

	// Paso 3: Email
	subject, htmlBody, textBody := email.BuildResetEmail(s.deps.BaseURL, plain, s.deps.TTL)
	if err := s.deps.Sender.Send(user.Email, subject, htmlBody, textBody); err != nil {
		log.Error("reset email failed", logger.Err(err), logger.UserID(user.ID))
		return fmt.Errorf("send reset email: %w", err)
	}

	log.Info("reset email sent", logger.UserID(user.ID))
	metrics.ObserveReset("requested")
	return nil
}

// Confirm consume el token (single-use), fija la nueva contraseña y revoca
// todas las sesiones del usuario.
func (s *resetService) Confirm(ctx context.Context, in dto.ResetConfirmRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.reset"),
		logger.Op("Confirm"),
	)

	if in.Token == "" || in.NewPassword == "" {
		return ErrMissingFields
	}

	// Paso 1: Resolver usuario por el hash del token
	hash := sectoken.SHA256Hex(in.Token)
	userID, err := s.deps.Cache.Get(ctx, resetKeyPrefix+hash)
	if err != nil {
		if cache.IsNotFound(err) {
			return ErrResetTokenInvalid
		}
		log.Error("reset index lookup failed", logger.Err(err))
		return ErrStoreUnavailable
	}

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return ErrStoreUnavailable
	}

	// Paso 2: Doble check contra el user record (el índice solo acelera)
	if user.ResetTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(user.ResetTokenHash), []byte(hash)) != 1 ||
		!time.Now().UTC().Before(user.ResetExpiresAt) {
		return ErrResetTokenInvalid
	}

	// Paso 3: Política + historia
	if ok, reasons, _ := s.deps.Policy.Validate(in.NewPassword); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ", "))
	}
	if password.InHistory(in.NewPassword, user.PasswordHistory) {
		return ErrPasswordReused
	}

	newHash, err := password.Hash(s.deps.Params, in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Paso 4: Commit. El token muere con el update.
	user.PasswordHash = newHash
	user.PasswordHistory = password.AppendHistory(newHash, user.PasswordHistory)
	user.ResetTokenHash = ""
	user.ResetExpiresAt = time.Time{}
	user.UpdatedAt = time.Now().UTC()
	if err := s.deps.Users.Update(ctx, user); err != nil {
		log.Error("password reset persist failed", logger.Err(err))
		return ErrStoreUnavailable
	}
	_ = s.deps.Cache.Delete(ctx, resetKeyPrefix+hash)

	// Paso 5: Sesiones viejas fuera
	if n, err := s.deps.Tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		log.Warn("session revocation after reset failed", logger.Err(err))
	} else {
		log.Info("password reset ok", logger.UserID(user.ID), logger.Count(n))
		metrics.ObserveRevocation("reset", n)
	}

	metrics.ObserveReset("confirmed")
	return nil
}
