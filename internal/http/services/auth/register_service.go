package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
	"github.com/vantadev/readiq/internal/token"
)

// RegisterDeps contiene las dependencias para el register service.
type RegisterDeps struct {
	Users   core.UserRepository
	Tokens  *token.Service
	Policy  password.Policy
	Params  password.Params
	Claimer core.SubmissionClaimer // nil = Noop
}

type registerService struct {
	deps RegisterDeps
}

// NewRegisterService crea un nuevo servicio de registro.
func NewRegisterService(deps RegisterDeps) RegisterService {
	if deps.Claimer == nil {
		deps.Claimer = core.NoopClaimer{}
	}
	return &registerService{deps: deps}
}

// Errores de registro
var (
	ErrMissingFields    = fmt.Errorf("missing required fields")
	ErrInvalidEmail     = fmt.Errorf("invalid email format")
	ErrEmailTaken       = fmt.Errorf("email already registered")
	ErrWeakPassword     = fmt.Errorf("password does not meet policy")
	ErrTokenIssue       = fmt.Errorf("failed to issue tokens")
	ErrStoreUnavailable = fmt.Errorf("user store unavailable")
)

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest, meta token.Metadata) (*dto.RegisterResponse, *token.Pair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	// Paso 0: Normalización
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Email == "" || in.Password == "" {
		return nil, nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, nil, ErrInvalidEmail
	}

	// Paso 1: Política de contraseña antes de tocar el store
	if ok, reasons, _ := s.deps.Policy.Validate(in.Password); !ok {
		log.Debug("password rejected by policy", logger.Any("reasons", reasons))
		return nil, nil, fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ", "))
	}

	// Paso 2: Hash
	hash, err := password.Hash(s.deps.Params, in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &core.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		Role:         core.RoleUser,
		TeamID:       strings.TrimSpace(in.TeamID),
		PasswordHash: hash,
		PasswordHistory: []password.HistoryEntry{
			{Hash: hash, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Paso 3: Persistir. El store garantiza unicidad de email.
	if err := s.deps.Users.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, nil, ErrEmailTaken
		}
		log.Error("user create failed", logger.Err(err))
		return nil, nil, ErrStoreUnavailable
	}

	log = log.With(logger.UserID(user.ID))

	// Paso 4: Reclamar submissions anónimas previas con este email.
	// Best effort: un fallo acá no aborta el registro.
	claimed, err := s.deps.Claimer.ClaimByEmail(ctx, user.Email, user.ID)
	if err != nil {
		log.Warn("submission claim failed", logger.Err(err))
		claimed = 0
	}

	// Paso 5: Emitir el par de tokens
	pair, err := s.deps.Tokens.GeneratePair(ctx, user.ID, string(user.Role), "", meta)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, nil, ErrTokenIssue
	}

	log.Info("user registered",
		logger.SessionID(pair.SessionID),
		logger.Count(claimed),
	)

	return &dto.RegisterResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		SessionID: pair.SessionID,
		ExpiresIn: int64(s.deps.Tokens.AccessTTL().Seconds()),
		Claimed:   claimed,
	}, pair, nil
}
