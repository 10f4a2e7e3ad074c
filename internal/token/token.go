// Package token produces the short URL-safe identifiers links live under.
package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"media.share/internal/store"
)

const (
	tokenLength    = 8  // 64 bits of randomness
	fallbackLength = 12 // used when short tokens keep colliding
	maxAttempts    = 5
)

// Generator hands out tokens that are not already live in the store.
type Generator struct {
	store store.Store
}

func NewGenerator(s store.Store) *Generator {
	return &Generator{store: s}
}

// Generate retries a bounded number of times against the store and falls
// back to a longer token if short ones keep colliding. The store's
// unique-constraint insert remains the final arbiter.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		t := random(tokenLength)
		_, err := g.store.GetLink(ctx, t)
		if errors.Is(err, store.ErrNotFound) {
			return t, nil
		}
		if err != nil {
			return "", err
		}
		// live collision, try again
	}
	return random(fallbackLength), nil
}

func random(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
