package regid

import (
	"regexp"
	"strings"
	"testing"
)

func TestNextShape(t *testing.T) {
	gen := New("MATH")
	id := gen.Next()

	if !strings.HasPrefix(id, "MATH-") {
		t.Fatalf("expected MATH- prefix, got %q", id)
	}
	if id != strings.ToUpper(id) {
		t.Fatalf("expected uppercase identifier, got %q", id)
	}
	shape := regexp.MustCompile(`^MATH-[A-Z0-9]+-[A-Z0-9]{4}$`)
	if !shape.MatchString(id) {
		t.Fatalf("identifier %q does not match expected shape", id)
	}
}

func TestNextUnique(t *testing.T) {
	gen := New("MATH")
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := gen.Next()
		if seen[id] {
			t.Fatalf("duplicate identifier generated: %q", id)
		}
		seen[id] = true
	}
}

func TestNewDefaultsAndNormalizes(t *testing.T) {
	if got := New("").Prefix(); got != "MATH" {
		t.Fatalf("expected default prefix MATH, got %q", got)
	}
	if got := New(" hack ").Prefix(); got != "HACK" {
		t.Fatalf("expected normalized prefix HACK, got %q", got)
	}
}

func TestMatches(t *testing.T) {
	gen := New("MATH")

	cases := []struct {
		id   string
		want bool
	}{
		{gen.Next(), true},
		{"MATH-ABC123-X9Z1", true},
		{"math-abc123-x9z1", true},
		{"  MATH-ABC123-X9Z1  ", true},
		{"HACK-ABC123-X9Z1", false},
		{"MATH-ABC123", false},
		{"MATH--X9Z1", false},
		{"MATH-ABC 123-X9Z1", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := gen.Matches(tc.id); got != tc.want {
			t.Fatalf("Matches(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}
