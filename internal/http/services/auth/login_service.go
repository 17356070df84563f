package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	dto "github.com/vantadev/readiq/internal/http/dto/auth"
	"github.com/vantadev/readiq/internal/metrics"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/rate"
	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
	"github.com/vantadev/readiq/internal/token"
)

// LoginDeps contiene las dependencias para el login service.
type LoginDeps struct {
	Users   core.UserRepository
	Tokens  *token.Service
	Lockout *rate.LockoutPolicy // nil = sin lockout
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea un nuevo servicio de login.
func NewLoginService(deps LoginDeps) LoginService {
	return &loginService{deps: deps}
}

// Errores de login
var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountLocked      = fmt.Errorf("account temporarily locked")
)

// dummyHash se verifica cuando el email no existe, para que el camino
// "usuario desconocido" tarde lo mismo que "password incorrecto".
var (
	dummyHash     string
	dummyHashOnce sync.Once
)

func dummy() string {
	dummyHashOnce.Do(func() {
		h, err := password.Hash(password.Default, "correct horse battery staple")
		if err != nil {
			h = ""
		}
		dummyHash = h
	})
	return dummyHash
}

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest, meta token.Metadata) (*dto.LoginResponse, *token.Pair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	// Paso 0: Normalización
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	// Paso 1: Lockout por identidad email+IP. Keyear solo por email dejaría
	// a un atacante bloquear cuentas ajenas a voluntad.
	lockID := lockoutIdentity(in.Email, meta.IPAddress)
	if s.deps.Lockout != nil {
		locked, until, err := s.deps.Lockout.IsLocked(ctx, lockID)
		if err != nil {
			log.Warn("lockout check failed", logger.Err(err))
		} else if locked {
			log.Info("login blocked by lockout",
				logger.Email(in.Email),
				logger.Duration(until),
			)
			metrics.ObserveLogin("locked", "password")
			return nil, nil, ErrAccountLocked
		}
	}

	// Paso 2: Buscar usuario y verificar password.
	// Con usuario inexistente igual verificamos contra un hash dummy.
	user, err := s.deps.Users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		log.Error("user lookup failed", logger.Err(err))
		return nil, nil, ErrStoreUnavailable
	}

	hash := dummy()
	if user != nil {
		hash = user.PasswordHash
	}
	ok := password.Verify(in.Password, hash)

	if user == nil || !ok {
		if s.deps.Lockout != nil {
			if lockedNow, lerr := s.deps.Lockout.RecordFailure(ctx, lockID); lerr != nil {
				log.Warn("lockout record failed", logger.Err(lerr))
			} else if lockedNow {
				log.Info("lockout engaged", logger.Email(in.Email))
				metrics.ObserveLockout()
				metrics.ObserveLogin("locked", "password")
				return nil, nil, ErrAccountLocked
			}
		}
		log.Debug("credential check failed")
		metrics.ObserveLogin("invalid", "password")
		return nil, nil, ErrInvalidCredentials
	}

	log = log.With(logger.UserID(user.ID))

	// Paso 3: Login exitoso limpia los contadores de fallo
	if s.deps.Lockout != nil {
		if err := s.deps.Lockout.Reset(ctx, lockID); err != nil {
			log.Warn("lockout reset failed", logger.Err(err))
		}
	}

	// Paso 4: Emitir el par de tokens
	pair, err := s.deps.Tokens.GeneratePair(ctx, user.ID, string(user.Role), "", meta)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, nil, ErrTokenIssue
	}

	log.Info("login ok", logger.SessionID(pair.SessionID))
	metrics.ObserveLogin("ok", "password")

	return &dto.LoginResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		SessionID: pair.SessionID,
		ExpiresIn: int64(s.deps.Tokens.AccessTTL().Seconds()),
	}, pair, nil
}

// ─── Internal Helpers ───────────────────────────────────────────────────────

func lockoutIdentity(email, ip string) string {
	return email + "|" + ip
}
