package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "ip-1")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d must be allowed", i+1)
		}
		if res.Remaining != int64(3-(i+1)) {
			t.Fatalf("hit %d remaining: got %d", i+1, res.Remaining)
		}
	}

	// el cuarto se rechaza con RetryAfter
	res, err := l.Allow(ctx, "ip-1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("hit over max must be denied")
	}
	if res.Remaining != 0 {
		t.Fatalf("remaining: got %d", res.Remaining)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("retryAfter fuera de rango: %v", res.RetryAfter)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemoryLimiter(1, time.Minute)

	if res, _ := l.Allow(ctx, "ip-a"); !res.Allowed {
		t.Fatal("first hit on ip-a must pass")
	}
	if res, _ := l.Allow(ctx, "ip-a"); res.Allowed {
		t.Fatal("second hit on ip-a must be denied")
	}
	if res, _ := l.Allow(ctx, "ip-b"); !res.Allowed {
		t.Fatal("ip-b must not be affected by ip-a")
	}
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemoryLimiter(1, 50*time.Millisecond)

	if res, _ := l.Allow(ctx, "ip-1"); !res.Allowed {
		t.Fatal("first hit must pass")
	}
	if res, _ := l.Allow(ctx, "ip-1"); res.Allowed {
		t.Fatal("second hit in window must be denied")
	}

	time.Sleep(60 * time.Millisecond)

	if res, _ := l.Allow(ctx, "ip-1"); !res.Allowed {
		t.Fatal("hit in new window must pass")
	}
}
