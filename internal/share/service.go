// Package share holds the link lifecycle engine: creation, resolution with
// expiry and single-use enforcement, destruction, and the admin role set.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"media.share/internal/access"
	"media.share/internal/models"
	"media.share/internal/store"
	"media.share/internal/token"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// putAttempts bounds retries when the unique insert loses a token race.
const putAttempts = 5

// Options controls how a new link behaves. The zero value is a permanent,
// reusable link, matching what a plain upload produces.
type Options struct {
	TTL       time.Duration
	SingleUse bool
}

type Service struct {
	store  store.Store
	policy *access.Policy
	tokens *token.Generator
	maxTTL time.Duration
	now    func() time.Time
}

func New(st store.Store, policy *access.Policy, maxTTL time.Duration) *Service {
	return &Service{
		store:  st,
		policy: policy,
		tokens: token.NewGenerator(st),
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

func (s *Service) Policy() *access.Policy {
	return s.policy
}

// Upload creates a link for the given file on behalf of the actor.
func (s *Service) Upload(ctx context.Context, actorID int64, fileID string, opts Options) (*models.Link, error) {
	allowed, err := s.policy.Allows(ctx, actorID, access.OpUpload)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	ttl := opts.TTL
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	for i := 0; i < putAttempts; i++ {
		t, err := s.tokens.Generate(ctx)
		if err != nil {
			return nil, err
		}

		now := s.now()
		link := &models.Link{
			Token:     t,
			FileID:    fileID,
			OwnerID:   actorID,
			CreatedAt: now,
			SingleUse: opts.SingleUse,
		}
		if ttl > 0 {
			link.ExpiresAt = now.Add(ttl)
		}

		err = s.store.PutLink(ctx, link)
		if errors.Is(err, store.ErrTokenExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return link, nil
	}

	return nil, fmt.Errorf("could not allocate a unique token after %d attempts", putAttempts)
}

// Resolve returns the file behind a token. A single-use link is consumed
// atomically as part of the same resolution; of two concurrent callers
// exactly one gets the file.
func (s *Service) Resolve(ctx context.Context, t string) (string, error) {
	link, err := s.store.GetLink(ctx, t)
	if err != nil {
		return "", err
	}

	if link.Expired(s.now()) {
		return "", store.ErrExpired
	}
	if link.Spent() {
		return "", store.ErrConsumed
	}

	if link.SingleUse {
		if err := s.store.ConsumeLink(ctx, t, s.now()); err != nil {
			return "", err
		}
	}

	return link.FileID, nil
}

// Destroy deletes a link permanently. Returns whether the token existed.
func (s *Service) Destroy(ctx context.Context, actorID int64, t string) (bool, error) {
	allowed, err := s.policy.Allows(ctx, actorID, access.OpDestroyLink)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, ErrForbidden
	}

	return s.store.DeleteLink(ctx, t)
}

// ListLinks returns live links, most recent first, token and creation time
// only.
func (s *Service) ListLinks(ctx context.Context, actorID int64) ([]models.LinkSummary, error) {
	allowed, err := s.policy.Allows(ctx, actorID, access.OpListLinks)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.store.ListLinks(ctx)
}

// ListAdmins returns the admin set. The owner is not part of it; the
// transport renders the owner separately.
func (s *Service) ListAdmins(ctx context.Context, actorID int64) ([]models.Admin, error) {
	allowed, err := s.policy.Allows(ctx, actorID, access.OpListAdmins)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return s.store.ListAdmins(ctx)
}

// AddAdmin grants the target admin rights. Returns false without error when
// the target already holds them (including the owner, who always does).
func (s *Service) AddAdmin(ctx context.Context, actorID, targetID int64, displayName string) (bool, error) {
	allowed, err := s.policy.Allows(ctx, actorID, access.OpAddAdmin)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, ErrForbidden
	}

	if targetID == s.policy.OwnerID() {
		return false, nil
	}

	return s.store.AddAdmin(ctx, &models.Admin{
		UserID:      targetID,
		DisplayName: displayName,
		AddedAt:     s.now(),
	})
}

// RemoveAdmin revokes the target's admin rights. Self-removal and owner
// demotion are denied for every actor; a target who was never an admin
// returns false without error.
func (s *Service) RemoveAdmin(ctx context.Context, actorID, targetID int64) (bool, error) {
	allowed, err := s.policy.AllowsTarget(ctx, actorID, targetID, access.OpRemoveAdmin)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, ErrForbidden
	}

	return s.store.RemoveAdmin(ctx, targetID)
}

// NoteAdminSeen refreshes the display name recorded for an admin. No-op for
// everyone else.
func (s *Service) NoteAdminSeen(ctx context.Context, userID int64, name string) error {
	if name == "" {
		return nil
	}
	return s.store.SetAdminName(ctx, userID, name)
}
