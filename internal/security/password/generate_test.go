package password

import (
	"strings"
	"testing"
)

func TestGenerate_LengthAndClasses(t *testing.T) {
	t.Parallel()

	for _, n := range []int{8, 12, 24, 64} {
		pw, err := Generate(n)
		if err != nil {
			t.Fatalf("Generate(%d) err: %v", n, err)
		}
		if len(pw) != n {
			t.Fatalf("len: got %d want %d", len(pw), n)
		}
		if !strings.ContainsAny(pw, genUpper) ||
			!strings.ContainsAny(pw, genLower) ||
			!strings.ContainsAny(pw, genDigits) ||
			!strings.ContainsAny(pw, genSymbols) {
			t.Fatalf("missing character class in %q", pw)
		}
	}
}

func TestGenerate_MinimumLength(t *testing.T) {
	t.Parallel()

	pw, err := Generate(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(pw) != 8 {
		t.Fatalf("short request must clamp to 8, got %d", len(pw))
	}
}

func TestGenerate_PassesDefaultPolicy(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		pw, err := Generate(24)
		if err != nil {
			t.Fatal(err)
		}
		if ok, reasons, _ := DefaultPolicy.Validate(pw); !ok {
			t.Fatalf("generated password failed policy: %v (%q)", reasons, pw)
		}
	}
}

func TestGenerate_NotDeterministic(t *testing.T) {
	t.Parallel()

	a, _ := Generate(24)
	b, _ := Generate(24)
	if a == b {
		t.Fatal("two generated passwords must differ")
	}
}
