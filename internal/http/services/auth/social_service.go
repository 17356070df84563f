package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/metrics"
	"github.com/vantadev/readiq/internal/oauth"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
	"github.com/vantadev/readiq/internal/token"
)

// SocialDeps contiene las dependencias para el social login service.
type SocialDeps struct {
	Users  core.UserRepository
	Tokens *token.Service
	Params password.Params
}

type socialService struct {
	deps SocialDeps
}

// NewSocialService crea un nuevo servicio de login federado.
func NewSocialService(deps SocialDeps) SocialService {
	return &socialService{deps: deps}
}

// Errores de social login
var (
	ErrIDTokenInvalid  = fmt.Errorf("provider id_token invalid")
	ErrEmailUnverified = fmt.Errorf("provider email not verified")
	ErrProviderLinked  = fmt.Errorf("provider already linked to another account")
)

// Login implementa find-or-create:
//  1. lookup por provider ID
//  2. si no, lookup por email y vincular
//  3. si no, crear cuenta con password generado
func (s *socialService) Login(ctx context.Context, verifier oauth.Verifier, idToken string, meta token.Metadata) (*dto.SocialLoginResponse, *token.Pair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.social"),
		logger.Op("Login"),
		logger.Provider(verifier.Provider()),
	)

	if idToken == "" {
		return nil, nil, ErrIDTokenInvalid
	}

	// Paso 1: Validar el id_token contra el provider
	ident, err := verifier.Verify(ctx, idToken)
	if err != nil {
		log.Debug("id_token rejected", logger.Err(err))
		return nil, nil, ErrIDTokenInvalid
	}
	if ident.Email == "" || !ident.EmailVerified {
		return nil, nil, ErrEmailUnverified
	}

	// Paso 2: Buscar por provider ID
	user, err := s.findByProvider(ctx, ident)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		log.Error("provider lookup failed", logger.Err(err))
		return nil, nil, ErrStoreUnavailable
	}
	created := false

	if user == nil {
		// Paso 3: Buscar por email y vincular, o crear
		user, created, err = s.linkOrCreate(ctx, ident)
		if err != nil {
			return nil, nil, err
		}
	}

	log = log.With(logger.UserID(user.ID))

	// Paso 4: Emitir el par de tokens
	pair, err := s.deps.Tokens.GeneratePair(ctx, user.ID, string(user.Role), "", meta)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, nil, ErrTokenIssue
	}

	log.Info("social login ok",
		logger.SessionID(pair.SessionID),
		logger.Bool("created", created),
	)
	metrics.ObserveLogin("ok", verifier.Provider())

	return &dto.SocialLoginResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		SessionID: pair.SessionID,
		ExpiresIn: int64(s.deps.Tokens.AccessTTL().Seconds()),
		Created:   created,
	}, pair, nil
}

// ─── Internal Helpers ───

func (s *socialService) findByProvider(ctx context.Context, ident *oauth.Identity) (*core.User, error) {
	switch ident.Provider {
	case "google":
		return s.deps.Users.GetByGoogleID(ctx, ident.Subject)
	case "microsoft":
		return s.deps.Users.GetByMicrosoftID(ctx, ident.Subject)
	default:
		return nil, fmt.Errorf("unknown provider %q", ident.Provider)
	}
}

func (s *socialService) linkOrCreate(ctx context.Context, ident *oauth.Identity) (*core.User, bool, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.social"),
		logger.Provider(ident.Provider),
	)

	user, err := s.deps.Users.GetByEmail(ctx, ident.Email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		log.Error("email lookup failed", logger.Err(err))
		return nil, false, ErrStoreUnavailable
	}

	now := time.Now().UTC()

	if user != nil {
		// Vincular el provider a la cuenta existente
		if err := setProviderID(user, ident); err != nil {
			return nil, false, err
		}
		user.UpdatedAt = now
		if err := s.deps.Users.Update(ctx, user); err != nil {
			log.Error("provider link failed", logger.Err(err))
			return nil, false, ErrStoreUnavailable
		}
		log.Info("provider linked", logger.UserID(user.ID))
		return user, false, nil
	}

	// Cuenta nueva. El password generado nunca se comunica: la cuenta solo
	// entra por el provider hasta que haga un reset.
	generated, err := password.Generate(24)
	if err != nil {
		return nil, false, fmt.Errorf("generate password: %w", err)
	}
	hash, err := password.Hash(s.deps.Params, generated)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	user = &core.User{
		ID:           uuid.NewString(),
		Email:        ident.Email,
		Name:         ident.Name,
		Role:         core.RoleUser,
		PasswordHash: hash,
		PasswordHistory: []password.HistoryEntry{
			{Hash: hash, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := setProviderID(user, ident); err != nil {
		return nil, false, err
	}

	if err := s.deps.Users.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrConflict) {
			// carrera con otro registro del mismo email
			return nil, false, ErrEmailTaken
		}
		log.Error("user create failed", logger.Err(err))
		return nil, false, ErrStoreUnavailable
	}

	log.Info("federated account created", logger.UserID(user.ID))
	return user, true, nil
}

func setProviderID(u *core.User, ident *oauth.Identity) error {
	switch ident.Provider {
	case "google":
		if u.GoogleID != "" && u.GoogleID != ident.Subject {
			return ErrProviderLinked
		}
		u.GoogleID = ident.Subject
	case "microsoft":
		if u.MicrosoftID != "" && u.MicrosoftID != ident.Subject {
			return ErrProviderLinked
		}
		u.MicrosoftID = ident.Subject
	default:
		return fmt.Errorf("unknown provider %q", ident.Provider)
	}
	return nil
}
