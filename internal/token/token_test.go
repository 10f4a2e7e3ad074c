package token

import (
	"context"
	"strings"
	"testing"
	"time"

	"media.share/internal/models"
	"media.share/internal/store"
)

func TestGenerate(t *testing.T) {
	s := store.NewMemoryStore(time.Hour)
	defer s.Close()
	g := NewGenerator(s)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := g.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(tok) != 11 { // 8 bytes, raw URL base64
			t.Errorf("Generate() length = %d, want 11", len(tok))
		}
		if strings.ContainsAny(tok, "+/=") {
			t.Errorf("Generate() = %q, not URL-safe", tok)
		}
		if seen[tok] {
			t.Errorf("Generate() repeated token %q", tok)
		}
		seen[tok] = true
	}
}

// collidingStore reports every candidate token as already live,
// forcing the generator onto its fallback path.
type collidingStore struct {
	store.Store
	lookups int
}

func (s *collidingStore) GetLink(ctx context.Context, token string) (*models.Link, error) {
	s.lookups++
	return &models.Link{Token: token}, nil
}

func TestGenerateFallsBackToLongerToken(t *testing.T) {
	s := &collidingStore{}
	g := NewGenerator(s)

	tok, err := g.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(tok) != 16 { // 12 bytes, raw URL base64
		t.Errorf("Generate() fallback length = %d, want 16", len(tok))
	}
	if s.lookups != 5 {
		t.Errorf("Generate() did %d lookups before fallback, want 5", s.lookups)
	}
}
