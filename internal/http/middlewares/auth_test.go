package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vantadev/readiq/internal/cache"
	"github.com/vantadev/readiq/internal/store/core"
	"github.com/vantadev/readiq/internal/token"
)

func newTokenService(t *testing.T) *token.Service {
	t.Helper()
	svc, err := token.New(token.Config{
		Issuer:        "readiq-test",
		AccessSecret:  "access-secret-para-tests",
		RefreshSecret: "refresh-secret-para-tests",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, cache.NewMemory(""))
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func okHandler(claimsSeen **token.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claimsSeen != nil {
			*claimsSeen = GetClaims(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoCookie(t *testing.T) {
	t.Parallel()
	tokens := newTokenService(t)

	h := RequireAuth(tokens)(okHandler(nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "TOKEN_MISSING") {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	t.Parallel()
	tokens := newTokenService(t)

	h := RequireAuth(tokens)(okHandler(nil))
	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	r.AddCookie(&http.Cookie{Name: token.AccessCookieName, Value: "basura"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "TOKEN_INVALID") {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	t.Parallel()
	tokens := newTokenService(t)

	pair, err := tokens.GeneratePair(context.Background(), "user-1", "admin", "", token.Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	var seen *token.Claims
	h := RequireAuth(tokens)(okHandler(&seen))

	r := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	r.AddCookie(&http.Cookie{Name: token.AccessCookieName, Value: pair.AccessToken})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if seen == nil || seen.UserID != "user-1" || seen.Role != "admin" {
		t.Fatalf("claims: %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	tokens := newTokenService(t)

	serve := func(role string) *httptest.ResponseRecorder {
		pair, err := tokens.GeneratePair(context.Background(), "user-1", role, "", token.Metadata{})
		if err != nil {
			t.Fatal(err)
		}
		h := Chain(okHandler(nil), RequireAuth(tokens), RequireRole(core.RoleAdmin))
		r := httptest.NewRequest(http.MethodGet, "/v1/admin", nil)
		r.AddCookie(&http.Cookie{Name: token.AccessCookieName, Value: pair.AccessToken})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	if rec := serve("admin"); rec.Code != http.StatusOK {
		t.Fatalf("admin: got %d", rec.Code)
	}
	if rec := serve("user"); rec.Code != http.StatusForbidden {
		t.Fatalf("user: got %d", rec.Code)
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	t.Parallel()

	// montado sin RequireAuth adelante: no hay claims, rechaza
	h := RequireRole(core.RoleAdmin)(okHandler(nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d", rec.Code)
	}
}
