package password

import (
	"fmt"
	"testing"
)

func TestInHistory(t *testing.T) {
	t.Parallel()

	var history []HistoryEntry
	for _, pw := range []string{"Primera1!", "Segunda2!"} {
		h, err := Hash(testParams, pw)
		if err != nil {
			t.Fatal(err)
		}
		history = AppendHistory(h, history)
	}

	if !InHistory("Primera1!", history) {
		t.Fatal("expected match against older hash")
	}
	if !InHistory("Segunda2!", history) {
		t.Fatal("expected match against newest hash")
	}
	if InHistory("Nunca3!usada", history) {
		t.Fatal("unexpected match for never-used password")
	}
	if InHistory("Primera1!", nil) {
		t.Fatal("empty history must never match")
	}
}

func TestAppendHistory_Caps(t *testing.T) {
	t.Parallel()

	var history []HistoryEntry
	for i := 0; i < HistoryDepth+3; i++ {
		history = AppendHistory(fmt.Sprintf("hash-%d", i), history)
	}
	if len(history) != HistoryDepth {
		t.Fatalf("len: got %d want %d", len(history), HistoryDepth)
	}
	// FIFO: quedan los últimos HistoryDepth
	if history[0].Hash != "hash-3" {
		t.Fatalf("oldest kept: got %s want hash-3", history[0].Hash)
	}
	if history[len(history)-1].Hash != fmt.Sprintf("hash-%d", HistoryDepth+2) {
		t.Fatalf("newest: got %s", history[len(history)-1].Hash)
	}
}

func TestAppendHistory_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	orig := []HistoryEntry{{Hash: "a"}, {Hash: "b"}}
	_ = AppendHistory("c", orig)
	if len(orig) != 2 || orig[0].Hash != "a" || orig[1].Hash != "b" {
		t.Fatal("input slice was mutated")
	}
}
