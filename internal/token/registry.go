package token

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vantadev/readiq/internal/cache"
)

// registryPrefix nombra el namespace plano del registro dentro del cache.
const registryPrefix = "rt:"

// Entry es el registro server-side que prueba que un refresh token sigue
// siendo honrado. Keyed por tokenID; el TTL lo maneja el backing store.
type Entry struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

// Registry almacena entradas de refresh token sobre un cache con TTL.
// No hay índice secundario por usuario: los scans por userID son lineales
// en el total de sesiones activas del sistema (limitación conocida).
type Registry struct {
	cache cache.Client
}

// NewRegistry crea un registro sobre el cache dado.
func NewRegistry(c cache.Client) *Registry {
	return &Registry{cache: c}
}

// Put guarda una entrada con el TTL dado.
func (r *Registry) Put(ctx context.Context, tokenID string, e Entry, ttl time.Duration) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, registryPrefix+tokenID, string(b), ttl)
}

// Get devuelve la entrada o (nil, nil) si no existe.
// Errores del backing store se propagan: sin registro no hay refresh.
func (r *Registry) Get(ctx context.Context, tokenID string) (*Entry, error) {
	raw, err := r.cache.Get(ctx, registryPrefix+tokenID)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// Entrada corrupta: tratarla como inexistente y limpiarla.
		_ = r.cache.Delete(ctx, registryPrefix+tokenID)
		return nil, nil
	}
	return &e, nil
}

// Touch actualiza LastUsed preservando el TTL restante de la entrada.
func (r *Registry) Touch(ctx context.Context, tokenID string, e *Entry) error {
	e.LastUsed = time.Now().UTC()
	remaining := time.Until(e.ExpiresAt)
	if remaining <= 0 {
		return r.Delete(ctx, tokenID)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, registryPrefix+tokenID, string(b), remaining)
}

// Delete elimina la entrada. Idempotente: no es error si no existe.
func (r *Registry) Delete(ctx context.Context, tokenID string) error {
	return r.cache.Delete(ctx, registryPrefix+tokenID)
}

// All enumera todas las entradas vivas del registro, keyed por tokenID.
// Costo O(sesiones activas de todo el sistema); lo usan los scans por usuario.
func (r *Registry) All(ctx context.Context) (map[string]*Entry, error) {
	keys, err := r.cache.Keys(ctx, registryPrefix+"*")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Entry, len(keys))
	for _, k := range keys {
		tokenID := k[len(registryPrefix):]
		e, err := r.Get(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out[tokenID] = e
		}
	}
	return out, nil
}
