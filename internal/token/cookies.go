package token

import (
	"net/http"
	"time"
)

// Nombres de cookies en el boundary HTTP.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// cookieAttrs resuelve los atributos según entorno: estricto en prod,
// relajado fuera de prod para permitir desarrollo cross-origin local.
func (s *Service) cookieAttrs() (secure bool, sameSite http.SameSite) {
	if s.cfg.Env == "prod" {
		return true, http.SameSiteStrictMode
	}
	return false, http.SameSiteLaxMode
}

// SetCookies coloca las dos cookies httpOnly con maxAge igual a la vida de
// cada token.
func (s *Service) SetCookies(w http.ResponseWriter, pair *Pair) {
	secure, sameSite := s.cookieAttrs()

	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		MaxAge:   int(s.cfg.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		MaxAge:   int(s.cfg.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// SetAccessCookie reemplaza solo la cookie de access (camino de refresh).
func (s *Service) SetAccessCookie(w http.ResponseWriter, accessToken string) {
	secure, sameSite := s.cookieAttrs()
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    accessToken,
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		MaxAge:   int(s.cfg.AccessTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// ClearCookies borra ambas cookies con path matching.
func (s *Service) ClearCookies(w http.ResponseWriter) {
	secure, sameSite := s.cookieAttrs()
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   s.cfg.CookieDomain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   secure,
			SameSite: sameSite,
		})
	}
}

// FromRequest lee la cookie del tipo pedido. Retorna "" si no está; nunca
// lanza error (ausente e inválido se tratan igual).
func FromRequest(r *http.Request, kind Kind) string {
	name := AccessCookieName
	if kind == KindRefresh {
		name = RefreshCookieName
	}
	c, err := r.Cookie(name)
	if err != nil || c == nil {
		return ""
	}
	return c.Value
}
