package cache

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemory("")

	if err := c.Set(ctx, "k1", "v1", 0); err != nil {
		t.Fatal(err)
	}
	v, err := c.Get(ctx, "k1")
	if err != nil {
		t.Fatal(err)
	}
	if v != "v1" {
		t.Fatalf("got %q want v1", v)
	}

	ok, err := c.Exists(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}

	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "k1"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// delete idempotente
	if err := c.Delete(ctx, "k1"); err != nil {
		t.Fatal(err)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemory("")

	if err := c.Set(ctx, "efimera", "x", 30*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "efimera"); err != nil {
		t.Fatalf("should exist before TTL: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := c.Get(ctx, "efimera"); !IsNotFound(err) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemory_KeysPattern(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := NewMemory("test")

	for _, k := range []string{"rt:a", "rt:b", "lk:user"} {
		if err := c.Set(ctx, k, "1", 0); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := c.Keys(ctx, "rt:*")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "rt:a" || keys[1] != "rt:b" {
		t.Fatalf("got %v", keys)
	}

	keys, err = c.Keys(ctx, "nada:*")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty, got %v", keys)
	}
}

func TestNew_DriverSelection(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()
}
