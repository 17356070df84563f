package auth

import (
	"time"

	"github.com/vantadev/readiq/internal/cache"
	"github.com/vantadev/readiq/internal/email"
	"github.com/vantadev/readiq/internal/rate"
	"github.com/vantadev/readiq/internal/security/password"
	"github.com/vantadev/readiq/internal/store/core"
	"github.com/vantadev/readiq/internal/token"
)

// Services agrupa todos los servicios del dominio auth.
type Services struct {
	Register RegisterService
	Login    LoginService
	Refresh  RefreshService
	Logout   LogoutService
	Profile  ProfileService
	Reset    ResetService
	Social   SocialService
	Sessions SessionsService
}

// Deps son las dependencias compartidas para armar el paquete completo.
type Deps struct {
	Users   core.UserRepository
	Tokens  *token.Service
	Cache   cache.Client
	Sender  email.Sender
	Lockout *rate.LockoutPolicy
	Claimer core.SubmissionClaimer

	Policy password.Policy
	Params password.Params

	ResetBaseURL string
	ResetTTL     time.Duration
}

// NewServices construye todos los servicios con las dependencias dadas.
func NewServices(d Deps) Services {
	return Services{
		Register: NewRegisterService(RegisterDeps{
			Users:   d.Users,
			Tokens:  d.Tokens,
			Policy:  d.Policy,
			Params:  d.Params,
			Claimer: d.Claimer,
		}),
		Login: NewLoginService(LoginDeps{
			Users:   d.Users,
			Tokens:  d.Tokens,
			Lockout: d.Lockout,
		}),
		Refresh: NewRefreshService(RefreshDeps{Tokens: d.Tokens}),
		Logout:  NewLogoutService(LogoutDeps{Tokens: d.Tokens}),
		Profile: NewProfileService(ProfileDeps{
			Users:  d.Users,
			Policy: d.Policy,
			Params: d.Params,
		}),
		Reset: NewResetService(ResetDeps{
			Users:   d.Users,
			Cache:   d.Cache,
			Sender:  d.Sender,
			Tokens:  d.Tokens,
			Policy:  d.Policy,
			Params:  d.Params,
			BaseURL: d.ResetBaseURL,
			TTL:     d.ResetTTL,
		}),
		Social: NewSocialService(SocialDeps{
			Users:  d.Users,
			Tokens: d.Tokens,
			Params: d.Params,
		}),
		Sessions: NewSessionsService(SessionsDeps{Tokens: d.Tokens}),
	}
}
