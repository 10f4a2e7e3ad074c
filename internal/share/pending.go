package share

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"media.share/internal/access"
	"media.share/internal/models"
	"media.share/internal/store"
)

// PendingOutcome reports what a consumed pending action did. Done is true
// when the operation changed something (admin added/removed, link deleted).
type PendingOutcome struct {
	Kind     models.PendingKind
	TargetID int64
	Token    string
	Done     bool
}

// BeginPending opens a multi-step flow for the actor. Permission for the
// operation kind is checked up front with the target still unknown;
// target-dependent denials happen when the reply arrives. A newer request
// overwrites whatever flow the actor was in.
func (s *Service) BeginPending(ctx context.Context, actorID int64, kind models.PendingKind) error {
	var op access.Operation
	switch kind {
	case models.PendingAddAdmin:
		op = access.OpAddAdmin
	case models.PendingRemoveAdmin:
		op = access.OpRemoveAdmin
	case models.PendingDeleteLink:
		op = access.OpDestroyLink
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, kind)
	}

	allowed, err := s.policy.Allows(ctx, actorID, op)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	return s.store.SetPending(ctx, &models.PendingAction{ActorID: actorID, Kind: kind})
}

// ResolvePending interprets a free-text reply against the actor's pending
// action. Returns (nil, nil) when no flow is open, in which case the text is
// an ordinary message. The slot is consumed before dispatch, so a bad reply
// never leaves the actor stuck: they must re-initiate.
func (s *Service) ResolvePending(ctx context.Context, actorID int64, text string) (*PendingOutcome, error) {
	action, err := s.store.TakePending(ctx, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	outcome := &PendingOutcome{Kind: action.Kind}

	switch action.Kind {
	case models.PendingAddAdmin, models.PendingRemoveAdmin:
		targetID, err := parseUserID(text)
		if err != nil {
			return outcome, err
		}
		outcome.TargetID = targetID

		if action.Kind == models.PendingAddAdmin {
			outcome.Done, err = s.AddAdmin(ctx, actorID, targetID, "")
		} else {
			outcome.Done, err = s.RemoveAdmin(ctx, actorID, targetID)
		}
		return outcome, err

	case models.PendingDeleteLink:
		t, err := parseToken(text)
		if err != nil {
			return outcome, err
		}
		outcome.Token = t
		outcome.Done, err = s.Destroy(ctx, actorID, t)
		return outcome, err

	default:
		return outcome, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action.Kind)
	}
}

func parseUserID(text string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: expected a numeric user id", ErrInvalidInput)
	}
	return id, nil
}

func parseToken(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) != 1 {
		return "", fmt.Errorf("%w: expected a single token", ErrInvalidInput)
	}
	return fields[0], nil
}
