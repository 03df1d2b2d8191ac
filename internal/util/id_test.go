package util

import (
	"strings"
	"testing"
)

func TestNewIDUsesPrefix(t *testing.T) {
	id := NewID("prj")
	if !strings.HasPrefix(id, "prj_") {
		t.Fatalf("expected prj_ prefix, got %q", id)
	}
	if len(id) != len("prj_")+32 {
		t.Fatalf("unexpected id length %d for %q", len(id), id)
	}
}

func TestNewIDWithoutPrefix(t *testing.T) {
	a, b := NewID(""), NewID("")
	if strings.Contains(a, "_") || strings.Contains(a, "-") {
		t.Fatalf("unexpected separator in %q", a)
	}
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
}
