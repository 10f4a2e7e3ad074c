package store

import (
	"context"
	"errors"
	"time"

	"media.share/internal/models"
)

var (
	ErrNotFound    = errors.New("link not found")
	ErrExpired     = errors.New("link has expired")
	ErrConsumed    = errors.New("link already consumed")
	ErrTokenExists = errors.New("token already exists")
)

// Store is the keyed record table behind the lifecycle engine. Link reads
// return raw rows; expiry and consumption policy belong to the engine. The
// two exceptions are ConsumeLink, which must be an atomic check-and-set so
// concurrent resolutions of a single-use token cannot both succeed, and
// PutLink, which must reject a live duplicate token. ListLinks omits rows
// that can no longer resolve, since a dead row must look exactly like a
// missing one everywhere.
type Store interface {
	PutLink(ctx context.Context, link *models.Link) error
	GetLink(ctx context.Context, token string) (*models.Link, error)
	DeleteLink(ctx context.Context, token string) (bool, error)
	ListLinks(ctx context.Context) ([]models.LinkSummary, error)
	ConsumeLink(ctx context.Context, token string, now time.Time) error

	AddAdmin(ctx context.Context, admin *models.Admin) (bool, error)
	RemoveAdmin(ctx context.Context, userID int64) (bool, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	SetAdminName(ctx context.Context, userID int64, name string) error

	SetPending(ctx context.Context, action *models.PendingAction) error
	TakePending(ctx context.Context, actorID int64) (*models.PendingAction, error)

	Close() error
}
