package token

import (
	"context"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vantadev/readiq/internal/cache"
	"github.com/vantadev/readiq/internal/observability/logger"
)

// Config configura el Service. Los secrets son distintos por tipo de token:
// comprometer uno no compromete el otro.
type Config struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration // default 15m
	RefreshTTL    time.Duration // default 168h (7d)

	// Env condiciona los atributos de cookies: "prod" => Secure + SameSite=Strict.
	Env          string
	CookieDomain string
}

// Metadata acompaña la emisión de un par (para la UI de "tus dispositivos").
type Metadata struct {
	UserAgent string
	IPAddress string
}

// Pair es un par access/refresh recién emitido.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	TokenID          string
	SessionID        string
}

// Session es la vista displayable de una entrada del registro.
type Session struct {
	TokenID   string    `json:"token_id"`
	SessionID string    `json:"session_id"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service emite, verifica, rota y revoca el par access/refresh.
//
// Máquina de estados por refresh token: ISSUED → ACTIVE → {ROTATED|REVOKED|EXPIRED},
// donde ACTIVE se auto-repite en cada refresh exitoso (touch de lastUsed).
type Service struct {
	cfg        Config
	registry   *Registry
	accessKey  []byte
	refreshKey []byte
}

// New crea el Service. Secrets faltantes o iguales son un error de
// configuración (acá sí se falla fuerte, no fail-closed silencioso).
func New(cfg Config, c cache.Client) (*Service, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("token: missing signing secret")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "readiq"
	}
	return &Service{
		cfg:        cfg,
		registry:   NewRegistry(c),
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
	}, nil
}

// Registry expone el registro subyacente (lo usan los tests y el health check).
func (s *Service) Registry() *Registry {
	return s.registry
}

// AccessTTL devuelve la vida del access token.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// RefreshTTL devuelve la vida del refresh token.
func (s *Service) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

// GeneratePair emite un par nuevo: tokenID fresco, ambos tokens firmados y
// la entrada del registro con TTL igual a la vida del refresh token.
// Única transición de entrada a ISSUED/ACTIVE.
func (s *Service) GeneratePair(ctx context.Context, userID, role, sessionID string, meta Metadata) (*Pair, error) {
	now := time.Now().UTC()
	tokenID := uuid.NewString()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	accessExp := now.Add(s.cfg.AccessTTL)
	refreshExp := now.Add(s.cfg.RefreshTTL)

	access, err := s.sign(s.accessKey, Claims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		TokenUse:  string(KindAccess),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("token: sign access: %w", err)
	}

	refresh, err := s.sign(s.refreshKey, Claims{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		TokenID:   tokenID,
		TokenUse:  string(KindRefresh),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("token: sign refresh: %w", err)
	}

	entry := Entry{
		UserID:    userID,
		Role:      role,
		SessionID: sessionID,
		ExpiresAt: refreshExp,
		CreatedAt: now,
		LastUsed:  now,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.registry.Put(ctx, tokenID, entry, s.cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("token: registry write: %w", err)
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		TokenID:          tokenID,
		SessionID:        sessionID,
	}, nil
}

// VerifyAccess valida firma y expiry. Sin lookup al registro: cada request
// se ahorra el round-trip al cache, a cambio de que un access revocado siga
// siendo válido hasta su propia expiración corta (trade-off aceptado).
// Retorna nil ante cualquier input malformado, expirado o adulterado.
func (s *Service) VerifyAccess(tokenStr string) *Claims {
	claims := s.parse(tokenStr, s.accessKey)
	if claims == nil || claims.TokenUse != string(KindAccess) {
		return nil
	}
	return claims
}

// VerifyRefresh valida firma+expiry Y existencia en el registro Y expiry de
// la entrada (defensa en profundidad contra skew entre claim firmado y TTL
// almacenado). Toca lastUsed en éxito; borra entradas stale (self-healing).
//
// Retorna (nil, nil) para tokens inválidos y (nil, err) solo ante fallas del
// backing store: sin registro no se puede refrescar, no hay degradación a
// verificación stateless.
func (s *Service) VerifyRefresh(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := s.parse(tokenStr, s.refreshKey)
	if claims == nil || claims.TokenUse != string(KindRefresh) || claims.TokenID == "" {
		return nil, nil
	}

	entry, err := s.registry.Get(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if !time.Now().UTC().Before(entry.ExpiresAt) {
		// Entrada vencida que el TTL del store todavía no barrió
		_ = s.registry.Delete(ctx, claims.TokenID)
		return nil, nil
	}

	if err := s.registry.Touch(ctx, claims.TokenID, entry); err != nil {
		// lastUsed es informativo: no invalida un refresh válido
		logger.From(ctx).Debug("refresh lastUsed touch failed", logger.Err(err), logger.TokenID(claims.TokenID))
	}

	return claims, nil
}

// RefreshAccess emite un access token nuevo reutilizando el mismo sessionID.
// NO rota el refresh token (refresh asimétrico: el access churnea cada 15m,
// el refresh persiste hasta rotación explícita, logout o expiry).
// Retorna ("", zero, nil) si el refresh token es inválido.
func (s *Service) RefreshAccess(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if claims == nil {
		return "", time.Time{}, nil
	}

	now := time.Now().UTC()
	exp := now.Add(s.cfg.AccessTTL)
	access, err := s.sign(s.accessKey, Claims{
		UserID:    claims.UserID,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		TokenUse:  string(KindAccess),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   claims.UserID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign access: %w", err)
	}
	return access, exp, nil
}

// Rotate verifica el refresh viejo, revoca su entrada y emite un par
// completamente nuevo (tokenID nuevo, mismo sessionID). Limita el blast
// radius de un refresh filtrado cuando el cliente re-autentica por un flow
// sensible. Retorna (nil, nil) si el token viejo es inválido.
func (s *Service) Rotate(ctx context.Context, oldRefresh string) (*Pair, error) {
	claims, err := s.VerifyRefresh(ctx, oldRefresh)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, nil
	}

	// Preservar metadata del dispositivo a través de la rotación
	var meta Metadata
	if entry, err := s.registry.Get(ctx, claims.TokenID); err == nil && entry != nil {
		meta = Metadata{UserAgent: entry.UserAgent, IPAddress: entry.IPAddress}
	}

	if err := s.Revoke(ctx, claims.TokenID); err != nil {
		return nil, err
	}

	return s.GeneratePair(ctx, claims.UserID, claims.Role, claims.SessionID, meta)
}

// Revoke borra la entrada del registro. Idempotente.
func (s *Service) Revoke(ctx context.Context, tokenID string) error {
	return s.registry.Delete(ctx, tokenID)
}

// RevokeAllForUser borra toda entrada del usuario. Scan lineal sobre todas
// las sesiones activas del sistema (el registro no tiene índice por userID).
// No es atómico como conjunto: una interrupción deja revocación parcial.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	all, err := s.registry.All(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for tokenID, e := range all {
		if e.UserID != userID {
			continue
		}
		if err := s.registry.Delete(ctx, tokenID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// SessionsForUser lista las sesiones vivas del usuario para la UI de
// dispositivos. Mismo scan lineal que RevokeAllForUser.
func (s *Service) SessionsForUser(ctx context.Context, userID string) ([]Session, error) {
	all, err := s.registry.All(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var out []Session
	for tokenID, e := range all {
		if e.UserID != userID || !now.Before(e.ExpiresAt) {
			continue
		}
		out = append(out, Session{
			TokenID:   tokenID,
			SessionID: e.SessionID,
			UserAgent: e.UserAgent,
			IPAddress: e.IPAddress,
			CreatedAt: e.CreatedAt,
			LastUsed:  e.LastUsed,
			ExpiresAt: e.ExpiresAt,
		})
	}
	return out, nil
}

// ─── Internal ───

func (s *Service) sign(key []byte, claims Claims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tk.SignedString(key)
}

// parse valida firma, expiry e issuer. Retorna nil ante cualquier falla.
func (s *Service) parse(tokenStr string, key []byte) *Claims {
	var claims Claims
	tk, err := jwtv5.ParseWithClaims(tokenStr, &claims, func(t *jwtv5.Token) (any, error) {
		return key, nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(s.cfg.Issuer),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tk.Valid {
		return nil
	}
	return &claims
}
