package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"media.share/internal/models"
)

func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	if os.Getenv("TEST_REDIS_ADDR") == "" && os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_ADDR not set")
	}

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	s, err := NewRedisStore(&redis.Options{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	if err := s.client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush test db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisStore_LinkLifecycle(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()

	link := &models.Link{
		Token:     "redis-test",
		FileID:    "F1",
		OwnerID:   42,
		CreatedAt: time.Now(),
		SingleUse: true,
	}
	if err := s.PutLink(ctx, link); err != nil {
		t.Fatalf("PutLink() error = %v", err)
	}
	if err := s.PutLink(ctx, link); !errors.Is(err, ErrTokenExists) {
		t.Fatalf("PutLink(duplicate) error = %v, want ErrTokenExists", err)
	}

	got, err := s.GetLink(ctx, "redis-test")
	if err != nil {
		t.Fatalf("GetLink() error = %v", err)
	}
	if got.FileID != "F1" {
		t.Errorf("GetLink() file = %q, want %q", got.FileID, "F1")
	}

	if err := s.ConsumeLink(ctx, "redis-test", time.Now()); err != nil {
		t.Fatalf("ConsumeLink() error = %v", err)
	}
	if err := s.ConsumeLink(ctx, "redis-test", time.Now()); !errors.Is(err, ErrConsumed) {
		t.Errorf("ConsumeLink() second call error = %v, want ErrConsumed", err)
	}

	removed, err := s.DeleteLink(ctx, "redis-test")
	if err != nil || !removed {
		t.Fatalf("DeleteLink() = (%v, %v), want (true, nil)", removed, err)
	}
	if _, err := s.GetLink(ctx, "redis-test"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLink() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRedisStore_ExpiredLinkAgesOut(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()

	link := &models.Link{
		Token:     "short-lived",
		FileID:    "F2",
		OwnerID:   42,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Second),
	}
	if err := s.PutLink(ctx, link); err != nil {
		t.Fatalf("PutLink() error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := s.GetLink(ctx, "short-lived"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLink() after TTL error = %v, want ErrNotFound", err)
	}

	// The index entry is lazily dropped on listing.
	summaries, err := s.ListLinks(ctx)
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	for _, sum := range summaries {
		if sum.Token == "short-lived" {
			t.Errorf("ListLinks() still contains aged-out token")
		}
	}
}

func TestRedisStore_ListOrder(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		link := &models.Link{
			Token:     fmt.Sprintf("tok-%d", i),
			FileID:    "F",
			OwnerID:   42,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.PutLink(ctx, link); err != nil {
			t.Fatalf("PutLink() error = %v", err)
		}
	}

	summaries, err := s.ListLinks(ctx)
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("ListLinks() returned %d links, want 3", len(summaries))
	}
	if summaries[0].Token != "tok-2" || summaries[2].Token != "tok-0" {
		t.Errorf("ListLinks() not most-recent-first: %+v", summaries)
	}
}

func TestRedisStore_AdminsAndPending(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()

	added, err := s.AddAdmin(ctx, &models.Admin{UserID: 9, AddedAt: time.Now()})
	if err != nil || !added {
		t.Fatalf("AddAdmin() = (%v, %v), want (true, nil)", added, err)
	}
	if err := s.SetAdminName(ctx, 9, "@nine"); err != nil {
		t.Fatalf("SetAdminName() error = %v", err)
	}
	admins, err := s.ListAdmins(ctx)
	if err != nil || len(admins) != 1 || admins[0].DisplayName != "@nine" {
		t.Fatalf("ListAdmins() = (%+v, %v), want one admin named @nine", admins, err)
	}

	if err := s.SetPending(ctx, &models.PendingAction{ActorID: 9, Kind: models.PendingRemoveAdmin}); err != nil {
		t.Fatalf("SetPending() error = %v", err)
	}
	action, err := s.TakePending(ctx, 9)
	if err != nil || action.Kind != models.PendingRemoveAdmin {
		t.Fatalf("TakePending() = (%+v, %v), want remove_admin", action, err)
	}
	if _, err := s.TakePending(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("TakePending() after consume error = %v, want ErrNotFound", err)
	}
}
