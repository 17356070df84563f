package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vantadev/readiq/internal/rate"
)

func rateHandler(opts RateLimitOptions) http.Handler {
	return WithRateLimit(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestWithRateLimit_EnforcesLimit(t *testing.T) {
	t.Parallel()
	h := rateHandler(RateLimitOptions{
		Limiter: rate.NewMemoryLimiter(2, time.Minute),
		Limit:   2,
		KeyFunc: IPOnlyRateKey("login"),
	})

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		r.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, rec.Code)
		}
	}

	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit: got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("remaining: got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestWithRateLimit_DistinctIPs(t *testing.T) {
	t.Parallel()
	h := rateHandler(RateLimitOptions{
		Limiter: rate.NewMemoryLimiter(1, time.Minute),
		Limit:   1,
		KeyFunc: IPOnlyRateKey("login"),
	})

	do := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	if code := do("10.0.0.1:5000"); code != http.StatusOK {
		t.Fatalf("first ip: got %d", code)
	}
	if code := do("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Fatalf("same ip new port: got %d", code)
	}
	if code := do("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("other ip: got %d", code)
	}
}

func TestWithRateLimit_Whitelist(t *testing.T) {
	t.Parallel()
	h := rateHandler(RateLimitOptions{
		Limiter:   rate.NewMemoryLimiter(1, time.Minute),
		Limit:     1,
		KeyFunc:   IPOnlyRateKey("login"),
		Whitelist: map[string]struct{}{"10.9.9.9": {}},
	})

	for i := 0; i < 5; i++ {
		r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		r.RemoteAddr = "10.9.9.9:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("whitelisted request %d: got %d", i+1, rec.Code)
		}
	}
}

func TestWithRateLimit_NilLimiterPassesThrough(t *testing.T) {
	t.Parallel()
	h := rateHandler(RateLimitOptions{KeyFunc: IPOnlyRateKey("login")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		remote string
		xff    string
		xreal  string
		want   string
	}{
		{"solo remote addr", "10.0.0.1:5000", "", "", "10.0.0.1"},
		{"xff primer hop", "10.0.0.1:5000", "203.0.113.7, 10.0.0.1", "", "203.0.113.7"},
		{"x-real-ip", "10.0.0.1:5000", "", "203.0.113.8", "203.0.113.8"},
		{"xff gana sobre x-real-ip", "10.0.0.1:5000", "203.0.113.7", "203.0.113.8", "203.0.113.7"},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tc.remote
		if tc.xff != "" {
			r.Header.Set("X-Forwarded-For", tc.xff)
		}
		if tc.xreal != "" {
			r.Header.Set("X-Real-IP", tc.xreal)
		}
		if got := clientIP(r); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
