package rate

import (
	"context"
	"testing"
	"time"

	"github.com/vantadev/readiq/internal/cache"
)

func TestLockout_EngagesAtMaxFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLockoutPolicy(cache.NewMemory(""))
	p.MaxFailures = 3

	id := "user@example.com|1.2.3.4"

	for i := 0; i < 2; i++ {
		locked, err := p.RecordFailure(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if locked {
			t.Fatalf("failure %d must not lock yet", i+1)
		}
	}

	locked, err := p.RecordFailure(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Fatal("third failure must engage the lock")
	}

	isLocked, remaining, err := p.IsLocked(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !isLocked {
		t.Fatal("identity must report locked")
	}
	if remaining <= 0 || remaining > p.LockDuration {
		t.Fatalf("remaining fuera de rango: %v", remaining)
	}
}

func TestLockout_IdentitiesAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLockoutPolicy(cache.NewMemory(""))
	p.MaxFailures = 1

	if _, err := p.RecordFailure(ctx, "a@example.com|ip"); err != nil {
		t.Fatal(err)
	}

	locked, _, err := p.IsLocked(ctx, "b@example.com|ip")
	if err != nil {
		t.Fatal(err)
	}
	if locked {
		t.Fatal("unrelated identity must not be locked")
	}
}

func TestLockout_ResetClearsState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLockoutPolicy(cache.NewMemory(""))
	p.MaxFailures = 2

	id := "user@example.com|ip"
	if _, err := p.RecordFailure(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := p.RecordFailure(ctx, id); err != nil {
		t.Fatal(err)
	}

	if err := p.Reset(ctx, id); err != nil {
		t.Fatal(err)
	}

	locked, _, err := p.IsLocked(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if locked {
		t.Fatal("reset must clear the lock")
	}

	// el contador arranca de cero: un fallo no vuelve a bloquear
	engaged, err := p.RecordFailure(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if engaged {
		t.Fatal("counter must restart after reset")
	}
}

func TestLockout_LockExpires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLockoutPolicy(cache.NewMemory(""))
	p.MaxFailures = 1
	p.Window = 50 * time.Millisecond
	p.LockDuration = 50 * time.Millisecond

	id := "user@example.com|ip"
	locked, err := p.RecordFailure(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Fatal("single failure must lock with MaxFailures=1")
	}

	time.Sleep(80 * time.Millisecond)

	isLocked, _, err := p.IsLocked(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if isLocked {
		t.Fatal("lock must expire with its TTL")
	}
}
