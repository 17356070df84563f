package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	authctl "github.com/vantadev/readiq/internal/http/controllers/auth"
	healthctl "github.com/vantadev/readiq/internal/http/controllers/health"
	mw "github.com/vantadev/readiq/internal/http/middlewares"
	"github.com/vantadev/readiq/internal/rate"
	"github.com/vantadev/readiq/internal/token"
)

// RouterConfig agrupa todo lo que el router necesita montado.
type RouterConfig struct {
	Auth   *authctl.Controllers
	Health *healthctl.Controller
	Tokens *token.Service

	// Rate limiting por endpoint sensible. Nil deshabilita.
	LoginLimiter rate.Limiter
	ResetLimiter rate.Limiter
	LoginLimit   int
	ResetLimit   int
	Whitelist    map[string]struct{}

	// Handler de /metrics; nil no monta el endpoint.
	Metrics http.Handler
}

// NewRouter arma el árbol de rutas completo con sus middlewares.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithRecover())
	r.Use(mw.WithSecurityHeaders())
	r.Use(WithMetrics)

	// Operacional
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	loginLimited := mw.WithRateLimit(mw.RateLimitOptions{
		Limiter:   cfg.LoginLimiter,
		Limit:     cfg.LoginLimit,
		KeyFunc:   mw.IPOnlyRateKey("login"),
		Whitelist: cfg.Whitelist,
	})
	resetLimited := mw.WithRateLimit(mw.RateLimitOptions{
		Limiter:   cfg.ResetLimiter,
		Limit:     cfg.ResetLimit,
		KeyFunc:   mw.IPOnlyRateKey("reset"),
		Whitelist: cfg.Whitelist,
	})
	requireAuth := mw.RequireAuth(cfg.Tokens)

	// Todo lo que emite o toca credenciales va sin cache
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())

		r.Route("/v1/auth", func(r chi.Router) {
			r.With(loginLimited).Post("/register", cfg.Auth.Register.Register)
			r.With(loginLimited).Post("/login", cfg.Auth.Login.Login)
			r.With(loginLimited).Post("/social/{provider}", cfg.Auth.Social.Login)

			r.Post("/refresh", cfg.Auth.Refresh.Refresh)
			r.Post("/rotate", cfg.Auth.Refresh.Rotate)
			r.Post("/logout", cfg.Auth.Logout.Logout)

			r.With(resetLimited).Post("/reset-request", cfg.Auth.Reset.Request)
			r.Post("/reset-confirm", cfg.Auth.Reset.Confirm)

			// Requieren access token vivo
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout-all", cfg.Auth.Logout.LogoutAll)
				r.Get("/sessions", cfg.Auth.Sessions.List)
				r.Delete("/sessions/{tokenID}", cfg.Auth.Sessions.Revoke)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/v1/me", cfg.Auth.Me.Me)
			r.Patch("/v1/profile", cfg.Auth.Profile.Update)
			r.Post("/v1/profile/password", cfg.Auth.Profile.ChangePassword)
		})
	})

	return r
}
