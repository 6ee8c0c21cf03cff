package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("rec")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(got, "rec-") {
		t.Errorf("expected prefix %q, got %q", "rec-", got)
	}

	// Default NanoID is 21 characters plus "rec-".
	if len(got) != len("rec-")+21 {
		t.Errorf("unexpected length %d for %q", len(got), got)
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("tag")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}
