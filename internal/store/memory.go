package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"media.share/internal/models"
)

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

type pendingSlot struct {
	kind  models.PendingKind
	setAt time.Time
}

type MemoryStore struct {
	links         map[string]*models.Link
	admins        map[int64]*models.Admin
	pending       map[int64]pendingSlot
	mu            sync.RWMutex
	cleanupCancel context.CancelFunc
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	ctx, cancel := context.WithCancel(context.Background())
	store := &MemoryStore{
		links:         make(map[string]*models.Link),
		admins:        make(map[int64]*models.Admin),
		pending:       make(map[int64]pendingSlot),
		cleanupCancel: cancel,
	}
	go store.cleanupLoop(ctx, cleanupInterval)
	return store
}

func (s *MemoryStore) PutLink(ctx context.Context, link *models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.links[link.Token]; ok {
		// A dead row does not block token reuse.
		if !existing.Expired(time.Now()) && !existing.Spent() {
			return ErrTokenExists
		}
	}

	stored := *link
	s.links[link.Token] = &stored
	return nil
}

func (s *MemoryStore) GetLink(ctx context.Context, token string) (*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[token]
	if !ok {
		return nil, ErrNotFound
	}

	out := *link
	return &out, nil
}

func (s *MemoryStore) DeleteLink(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.links[token]
	delete(s.links, token)
	return ok, nil
}

func (s *MemoryStore) ListLinks(ctx context.Context) ([]models.LinkSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	summaries := make([]models.LinkSummary, 0, len(s.links))
	for _, link := range s.links {
		if link.Expired(now) || link.Spent() {
			continue
		}
		summaries = append(summaries, models.LinkSummary{
			Token:     link.Token,
			CreatedAt: link.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *MemoryStore) ConsumeLink(ctx context.Context, token string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[token]
	if !ok {
		return ErrNotFound
	}
	if link.Expired(now) {
		return ErrExpired
	}
	if link.Consumed {
		return ErrConsumed
	}

	link.Consumed = true
	return nil
}

func (s *MemoryStore) AddAdmin(ctx context.Context, admin *models.Admin) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.admins[admin.UserID]; ok {
		return false, nil
	}
	stored := *admin
	s.admins[admin.UserID] = &stored
	return true, nil
}

func (s *MemoryStore) RemoveAdmin(ctx context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.admins[userID]
	delete(s.admins, userID)
	return ok, nil
}

func (s *MemoryStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.admins[userID]
	return ok, nil
}

func (s *MemoryStore) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := make([]models.Admin, 0, len(s.admins))
	for _, admin := range s.admins {
		admins = append(admins, *admin)
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].AddedAt.Before(admins[j].AddedAt)
	})
	return admins, nil
}

func (s *MemoryStore) SetAdminName(ctx context.Context, userID int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if admin, ok := s.admins[userID]; ok {
		admin.DisplayName = name
	}
	return nil
}

func (s *MemoryStore) SetPending(ctx context.Context, action *models.PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[action.ActorID] = pendingSlot{kind: action.Kind, setAt: time.Now()}
	return nil
}

func (s *MemoryStore) TakePending(ctx context.Context, actorID int64) (*models.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.pending[actorID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.pending, actorID)

	// A stale slot behaves as if it never existed.
	if time.Since(slot.setAt) > pendingTTL {
		return nil, ErrNotFound
	}
	return &models.PendingAction{ActorID: actorID, Kind: slot.kind}, nil
}

func (s *MemoryStore) Close() error {
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links = nil
	s.admins = nil
	s.pending = nil
	return nil
}

func (s *MemoryStore) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, link := range s.links {
		if link.Expired(now) || link.Spent() {
			delete(s.links, token)
		}
	}
}
