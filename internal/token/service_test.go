package token

import (
	"context"
	"testing"
	"time"

	"github.com/vantadev/readiq/internal/cache"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Config{
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

func TestNew_RejectsBadSecrets(t *testing.T) {
	t.Parallel()
	c := cache.NewMemory("")

	if _, err := New(Config{AccessSecret: "", RefreshSecret: "x"}, c); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := New(Config{AccessSecret: "same", RefreshSecret: "same"}, c); err == nil {
		t.Fatal("expected error for equal secrets")
	}
}

func TestGeneratePair_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{UserAgent: "ua", IPAddress: "1.2.3.4"})
	if err != nil {
		t.Fatal(err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh must differ")
	}
	if pair.SessionID == "" || pair.TokenID == "" {
		t.Fatal("missing session or token id")
	}

	claims := svc.VerifyAccess(pair.AccessToken)
	if claims == nil {
		t.Fatal("access must verify")
	}
	if claims.UserID != "user-1" || claims.Role != "user" || claims.SessionID != pair.SessionID {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.TokenUse != string(KindAccess) {
		t.Fatalf("token_use: got %s", claims.TokenUse)
	}

	rclaims, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if rclaims == nil {
		t.Fatal("refresh must verify")
	}
	if rclaims.TokenID != pair.TokenID {
		t.Fatalf("token id: got %s want %s", rclaims.TokenID, pair.TokenID)
	}
}

func TestVerifyAccess_RejectsCrossUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	// un refresh presentado como access no pasa (otra clave de firma)
	if svc.VerifyAccess(pair.RefreshToken) != nil {
		t.Fatal("refresh token must not pass access verification")
	}
	// y un access presentado como refresh tampoco
	claims, err := svc.VerifyRefresh(ctx, pair.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims != nil {
		t.Fatal("access token must not pass refresh verification")
	}
}

func TestVerifyAccess_RejectsGarbage(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, tok := range []string{"", "no.es.jwt", "a.b"} {
		if svc.VerifyAccess(tok) != nil {
			t.Fatalf("accepted garbage token %q", tok)
		}
	}
}

func TestVerifyRefresh_Tampered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	tampered := pair.RefreshToken[:len(pair.RefreshToken)-2] + "xx"
	claims, err := svc.VerifyRefresh(ctx, tampered)
	if err != nil {
		t.Fatal(err)
	}
	if claims != nil {
		t.Fatal("tampered refresh must not verify")
	}
}

func TestRevoke_KillsRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Revoke(ctx, pair.TokenID); err != nil {
		t.Fatal(err)
	}

	claims, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims != nil {
		t.Fatal("revoked refresh must not verify")
	}

	// pero el access sigue vivo hasta su expiry (verificación stateless)
	if svc.VerifyAccess(pair.AccessToken) == nil {
		t.Fatal("access should remain valid after refresh revocation")
	}

	// revoke idempotente
	if err := svc.Revoke(ctx, pair.TokenID); err != nil {
		t.Fatalf("second revoke must not fail: %v", err)
	}
}

func TestRefreshAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.GeneratePair(ctx, "user-1", "admin", "", Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	access, exp, err := svc.RefreshAccess(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if access == "" {
		t.Fatal("expected new access token")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expiry must be in the future")
	}

	claims := svc.VerifyAccess(access)
	if claims == nil {
		t.Fatal("new access must verify")
	}
	// misma sesión, mismo rol
	if claims.SessionID != pair.SessionID || claims.Role != "admin" {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	// con refresh revocado no hay renovación
	if err := svc.Revoke(ctx, pair.TokenID); err != nil {
		t.Fatal(err)
	}
	access, _, err = svc.RefreshAccess(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if access != "" {
		t.Fatal("revoked refresh must not renew access")
	}
}

func TestRotate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{UserAgent: "ua-original"})
	if err != nil {
		t.Fatal(err)
	}

	rotated, err := svc.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if rotated == nil {
		t.Fatal("rotation must succeed for a valid refresh")
	}
	if rotated.TokenID == pair.TokenID {
		t.Fatal("rotation must mint a new token id")
	}
	if rotated.SessionID != pair.SessionID {
		t.Fatal("rotation must preserve the session id")
	}

	// el refresh viejo quedó revocado
	claims, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims != nil {
		t.Fatal("old refresh must be dead after rotation")
	}

	// la metadata del dispositivo sobrevive
	entry, err := svc.Registry().Get(ctx, rotated.TokenID)
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.UserAgent != "ua-original" {
		t.Fatalf("metadata not preserved: %+v", entry)
	}

	// rotar un token ya rotado: (nil, nil)
	again, err := svc.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if again != nil {
		t.Fatal("rotating a dead refresh must fail closed")
	}
}

func TestRevokeAllForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	var pairs []*Pair
	for i := 0; i < 3; i++ {
		p, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{})
		if err != nil {
			t.Fatal(err)
		}
		pairs = append(pairs, p)
	}
	other, err := svc.GeneratePair(ctx, "user-2", "user", "", Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	n, err := svc.RevokeAllForUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("revoked: got %d want 3", n)
	}

	for _, p := range pairs {
		claims, err := svc.VerifyRefresh(ctx, p.RefreshToken)
		if err != nil {
			t.Fatal(err)
		}
		if claims != nil {
			t.Fatal("user-1 refresh must be dead")
		}
	}

	// las sesiones de otros usuarios no se tocan
	claims, err := svc.VerifyRefresh(ctx, other.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims == nil {
		t.Fatal("user-2 refresh must survive")
	}
}

func TestSessionsForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	a, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{UserAgent: "laptop"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GeneratePair(ctx, "user-2", "user", "", Metadata{}); err != nil {
		t.Fatal(err)
	}

	sessions, err := svc.SessionsForUser(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions: got %d want 1", len(sessions))
	}
	if sessions[0].TokenID != a.TokenID || sessions[0].UserAgent != "laptop" {
		t.Fatalf("session mismatch: %+v", sessions[0])
	}
}

func TestVerifyRefresh_ExpiredEntrySelfHeals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	pair, err := svc.GeneratePair(ctx, "user-1", "user", "", Metadata{})
	if err != nil {
		t.Fatal(err)
	}

	// forzar una entrada vencida que el TTL del store todavía no barrió
	entry, err := svc.Registry().Get(ctx, pair.TokenID)
	if err != nil || entry == nil {
		t.Fatalf("entry: %v %v", entry, err)
	}
	entry.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	if err := svc.Registry().Put(ctx, pair.TokenID, *entry, time.Hour); err != nil {
		t.Fatal(err)
	}

	claims, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims != nil {
		t.Fatal("expired entry must fail verification")
	}

	// y la entrada stale se borró
	entry, err = svc.Registry().Get(ctx, pair.TokenID)
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Fatal("stale entry must be deleted")
	}
}
