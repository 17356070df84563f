// Package auth contiene los controllers del flujo de autenticación.
package auth

import (
	svc "github.com/vantadev/readiq/internal/http/services/auth"
	"github.com/vantadev/readiq/internal/oauth"
	"github.com/vantadev/readiq/internal/token"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Refresh  *RefreshController
	Logout   *LogoutController
	Me       *MeController
	Profile  *ProfileController
	Reset    *ResetController
	Social   *SocialController
	Sessions *SessionsController
}

// NewControllers crea el agregador de controllers auth.
// verifiers mapea nombre de provider a su Verifier; nil deshabilita social login.
func NewControllers(s svc.Services, tokens *token.Service, verifiers map[string]oauth.Verifier) *Controllers {
	return &Controllers{
		Register: NewRegisterController(s.Register, tokens),
		Login:    NewLoginController(s.Login, tokens),
		Refresh:  NewRefreshController(s.Refresh, tokens),
		Logout:   NewLogoutController(s.Logout, tokens),
		Me:       NewMeController(s.Profile),
		Profile:  NewProfileController(s.Profile),
		Reset:    NewResetController(s.Reset),
		Social:   NewSocialController(s.Social, tokens, verifiers),
		Sessions: NewSessionsController(s.Sessions),
	}
}
