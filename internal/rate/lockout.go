package rate

import (
	"context"
	"strconv"
	"time"

	"github.com/vantadev/readiq/internal/cache"
)

// LockoutPolicy bloquea temporalmente una identidad (email+IP) tras N logins
// fallidos dentro de la ventana. El estado vive en el cache con TTL: no hay
// sweeping explícito.
type LockoutPolicy struct {
	Cache        cache.Client
	MaxFailures  int           // default 5
	Window       time.Duration // default 15m
	LockDuration time.Duration // default 15m
}

// NewLockoutPolicy aplica defaults sanos.
func NewLockoutPolicy(c cache.Client) *LockoutPolicy {
	return &LockoutPolicy{
		Cache:        c,
		MaxFailures:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

func (p *LockoutPolicy) failKey(id string) string { return "lf:" + id }
func (p *LockoutPolicy) lockKey(id string) string { return "lk:" + id }

// IsLocked indica si la identidad está bloqueada y cuánto falta.
func (p *LockoutPolicy) IsLocked(ctx context.Context, id string) (bool, time.Duration, error) {
	raw, err := p.Cache.Get(ctx, p.lockKey(id))
	if err != nil {
		if cache.IsNotFound(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	until, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false, 0, nil
	}
	remaining := time.Until(until)
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// RecordFailure registra un intento fallido; al llegar al máximo activa el lock.
// Retorna si la identidad quedó bloqueada con este intento.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, id string) (bool, error) {
	key := p.failKey(id)

	count := 1
	if raw, err := p.Cache.Get(ctx, key); err == nil {
		if n, perr := strconv.Atoi(raw); perr == nil {
			count = n + 1
		}
	} else if !cache.IsNotFound(err) {
		return false, err
	}

	if err := p.Cache.Set(ctx, key, strconv.Itoa(count), p.Window); err != nil {
		return false, err
	}

	if count < p.MaxFailures {
		return false, nil
	}

	until := time.Now().UTC().Add(p.LockDuration)
	if err := p.Cache.Set(ctx, p.lockKey(id), until.Format(time.RFC3339), p.LockDuration); err != nil {
		return false, err
	}
	return true, nil
}

// Reset limpia contadores y lock tras un login exitoso.
func (p *LockoutPolicy) Reset(ctx context.Context, id string) error {
	if err := p.Cache.Delete(ctx, p.failKey(id)); err != nil {
		return err
	}
	return p.Cache.Delete(ctx, p.lockKey(id))
}
