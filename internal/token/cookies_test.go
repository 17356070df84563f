package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vantadev/readiq/internal/cache"
)

func newCookieService(t *testing.T, env string) *Service {
	t.Helper()
	svc, err := New(Config{
		Issuer:        "readiq-test",
		AccessSecret:  "access-secret-para-tests",
		RefreshSecret: "refresh-secret-para-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Env:           env,
	}, cache.NewMemory(""))
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSetCookies_Dev(t *testing.T) {
	t.Parallel()
	svc := newCookieService(t, "dev")

	rec := httptest.NewRecorder()
	svc.SetCookies(rec, &Pair{AccessToken: "acc", RefreshToken: "ref"})

	acc := cookieByName(t, rec, AccessCookieName)
	ref := cookieByName(t, rec, RefreshCookieName)

	if acc.Value != "acc" || ref.Value != "ref" {
		t.Fatal("cookie values mismatch")
	}
	if !acc.HttpOnly || !ref.HttpOnly {
		t.Fatal("cookies must be httpOnly")
	}
	// fuera de prod: Lax y sin Secure para desarrollo local
	if acc.Secure || acc.SameSite != http.SameSiteLaxMode {
		t.Fatalf("dev attrs: secure=%v samesite=%v", acc.Secure, acc.SameSite)
	}
	if acc.MaxAge != int((15 * time.Minute).Seconds()) {
		t.Fatalf("access maxAge: got %d", acc.MaxAge)
	}
	if ref.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("refresh maxAge: got %d", ref.MaxAge)
	}
}

func TestSetCookies_Prod(t *testing.T) {
	t.Parallel()
	svc := newCookieService(t, "prod")

	rec := httptest.NewRecorder()
	svc.SetCookies(rec, &Pair{AccessToken: "acc", RefreshToken: "ref"})

	acc := cookieByName(t, rec, AccessCookieName)
	if !acc.Secure || acc.SameSite != http.SameSiteStrictMode {
		t.Fatalf("prod attrs: secure=%v samesite=%v", acc.Secure, acc.SameSite)
	}
}

func TestSetAccessCookie(t *testing.T) {
	t.Parallel()
	svc := newCookieService(t, "dev")

	rec := httptest.NewRecorder()
	svc.SetAccessCookie(rec, "nuevo-access")

	acc := cookieByName(t, rec, AccessCookieName)
	if acc.Value != "nuevo-access" {
		t.Fatalf("value: got %q", acc.Value)
	}
	// solo se reemplaza la de access
	for _, c := range rec.Result().Cookies() {
		if c.Name == RefreshCookieName {
			t.Fatal("refresh cookie must not be touched")
		}
	}
}

func TestClearCookies(t *testing.T) {
	t.Parallel()
	svc := newCookieService(t, "prod")

	rec := httptest.NewRecorder()
	svc.ClearCookies(rec)

	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		c := cookieByName(t, rec, name)
		if c.Value != "" || c.MaxAge != -1 {
			t.Fatalf("%s: value=%q maxAge=%d", name, c.Value, c.MaxAge)
		}
	}
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "el-access"})
	r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "el-refresh"})

	if got := FromRequest(r, KindAccess); got != "el-access" {
		t.Fatalf("access: got %q", got)
	}
	if got := FromRequest(r, KindRefresh); got != "el-refresh" {
		t.Fatalf("refresh: got %q", got)
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := FromRequest(empty, KindAccess); got != "" {
		t.Fatalf("missing cookie: got %q", got)
	}
}
