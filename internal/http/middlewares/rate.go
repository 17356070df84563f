package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	httperrors "github.com/vantadev/readiq/internal/http/errors"
	"github.com/vantadev/readiq/internal/observability/logger"
	"github.com/vantadev/readiq/internal/rate"
	"go.uber.org/zap"
)

// RateKeyFunc deriva la clave de rate limit a partir del request.
// Devolver "" significa "no limitar este request".
type RateKeyFunc func(r *http.Request) string

// RateLimitOptions configura el middleware de rate limiting.
type RateLimitOptions struct {
	Limiter   rate.Limiter
	Limit     int // solo informativo, para la cabecera X-RateLimit-Limit
	KeyFunc   RateKeyFunc
	Whitelist map[string]struct{} // IPs exentas
}

// clientIP extrae la IP real del cliente, respetando proxies conocidos.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// primer hop = cliente original
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IPOnlyRateKey limita por IP de cliente con un prefijo por endpoint.
func IPOnlyRateKey(scope string) RateKeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			return ""
		}
		return scope + ":" + ip
	}
}

// WithRateLimit aplica rate limiting de ventana fija sobre el handler.
// Si el limiter falla (por ejemplo Redis caído) el request pasa: preferimos
// degradar el límite antes que tirar todo el login.
func WithRateLimit(opts RateLimitOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := opts.Whitelist[clientIP(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key := opts.KeyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := opts.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter no disponible, dejando pasar",
					logger.Layer("middleware"),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if opts.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(opts.Limit))
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

			if !res.Allowed {
				retry := int(res.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
