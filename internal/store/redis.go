package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"media.share/internal/models"
)

var _ Store = (*RedisStore)(nil)

// consumedTombstoneTTL keeps a consumed single-use row around long enough to
// report ErrConsumed instead of ErrNotFound before it ages out.
const consumedTombstoneTTL = 24 * time.Hour

// pendingTTL bounds how long an actor can sit in a half-finished flow.
const pendingTTL = 10 * time.Minute

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(options *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(options)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) PutLink(ctx context.Context, link *models.Link) error {
	data, err := encodeLink(link)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if !link.ExpiresAt.IsZero() {
		ttl = time.Until(link.ExpiresAt)
		if ttl <= 0 {
			return ErrExpired
		}
	}

	ok, err := r.client.SetNX(ctx, linkKey(link.Token), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		// A spent tombstone under this token counts as absent.
		existing, err := r.GetLink(ctx, link.Token)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err == nil && !existing.Spent() && !existing.Expired(time.Now()) {
			return ErrTokenExists
		}
		if err := r.client.Set(ctx, linkKey(link.Token), data, ttl).Err(); err != nil {
			return err
		}
	}

	return r.client.ZAdd(ctx, linkIndexKey, redis.Z{
		Score:  float64(link.CreatedAt.UnixNano()),
		Member: link.Token,
	}).Err()
}

func (r *RedisStore) GetLink(ctx context.Context, token string) (*models.Link, error) {
	data, err := r.client.Get(ctx, linkKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeLink(data)
}

func (r *RedisStore) DeleteLink(ctx context.Context, token string) (bool, error) {
	removed, err := r.client.Del(ctx, linkKey(token)).Result()
	if err != nil {
		return false, err
	}
	_ = r.client.ZRem(ctx, linkIndexKey, token).Err()
	return removed > 0, nil
}

func (r *RedisStore) ListLinks(ctx context.Context) ([]models.LinkSummary, error) {
	tokens, err := r.client.ZRevRange(ctx, linkIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summaries := make([]models.LinkSummary, 0, len(tokens))
	for _, token := range tokens {
		link, err := r.GetLink(ctx, token)
		if errors.Is(err, ErrNotFound) {
			// Key aged out under TTL; drop the stale index entry.
			_ = r.client.ZRem(ctx, linkIndexKey, token).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		if link.Expired(now) || link.Spent() {
			continue
		}
		summaries = append(summaries, models.LinkSummary{
			Token:     link.Token,
			CreatedAt: link.CreatedAt,
		})
	}
	return summaries, nil
}

func (r *RedisStore) ConsumeLink(ctx context.Context, token string, now time.Time) error {
	key := linkKey(token)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}

		link, err := decodeLink(data)
		if err != nil {
			return err
		}

		if link.Expired(now) {
			return ErrExpired
		}
		if link.Consumed {
			return ErrConsumed
		}

		link.Consumed = true
		newData, err := encodeLink(link)
		if err != nil {
			return err
		}

		ttl := tx.TTL(ctx, key).Val()
		if ttl <= 0 {
			ttl = consumedTombstoneTTL
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, ttl)
			pipe.ZRem(ctx, linkIndexKey, token)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return redis.TxFailedErr
}

func (r *RedisStore) AddAdmin(ctx context.Context, admin *models.Admin) (bool, error) {
	data, err := encodeAdmin(admin)
	if err != nil {
		return false, err
	}

	ok, err := r.client.SetNX(ctx, adminKey(admin.UserID), data, 0).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	err = r.client.ZAdd(ctx, adminIndexKey, redis.Z{
		Score:  float64(admin.AddedAt.UnixNano()),
		Member: admin.UserID,
	}).Err()
	return true, err
}

func (r *RedisStore) RemoveAdmin(ctx context.Context, userID int64) (bool, error) {
	removed, err := r.client.Del(ctx, adminKey(userID)).Result()
	if err != nil {
		return false, err
	}
	_ = r.client.ZRem(ctx, adminIndexKey, userID).Err()
	return removed > 0, nil
}

func (r *RedisStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	n, err := r.client.Exists(ctx, adminKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	ids, err := r.client.ZRange(ctx, adminIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	admins := make([]models.Admin, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, "admin:"+id).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		admin, err := decodeAdmin(data)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *admin)
	}
	return admins, nil
}

func (r *RedisStore) SetAdminName(ctx context.Context, userID int64, name string) error {
	data, err := r.client.Get(ctx, adminKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	admin, err := decodeAdmin(data)
	if err != nil {
		return err
	}
	if admin.DisplayName == name {
		return nil
	}

	admin.DisplayName = name
	newData, err := encodeAdmin(admin)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, adminKey(userID), newData, 0).Err()
}

func (r *RedisStore) SetPending(ctx context.Context, action *models.PendingAction) error {
	return r.client.Set(ctx, pendingKey(action.ActorID), string(action.Kind), pendingTTL).Err()
}

func (r *RedisStore) TakePending(ctx context.Context, actorID int64) (*models.PendingAction, error) {
	kind, err := r.client.GetDel(ctx, pendingKey(actorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &models.PendingAction{ActorID: actorID, Kind: models.PendingKind(kind)}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Helpers

const (
	linkIndexKey  = "links:index"
	adminIndexKey = "admins:index"
)

func linkKey(token string) string {
	return "link:" + token
}

func adminKey(userID int64) string {
	return "admin:" + strconv.FormatInt(userID, 10)
}

func pendingKey(actorID int64) string {
	return "pending:" + strconv.FormatInt(actorID, 10)
}

func encodeLink(link *models.Link) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(link); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeLink(data []byte) (*models.Link, error) {
	var link models.Link
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&link); err != nil {
		return nil, err
	}
	return &link, nil
}

func encodeAdmin(admin *models.Admin) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(admin); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAdmin(data []byte) (*models.Admin, error) {
	var admin models.Admin
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&admin); err != nil {
		return nil, err
	}
	return &admin, nil
}
