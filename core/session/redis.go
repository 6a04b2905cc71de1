package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "calipso:session:"

// redisRecord is the JSON shape stored in Redis. The token is the key, so
// it is not repeated in the value.
type redisRecord[Data any] struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Data      Data      `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisStore persists sessions in Redis with the key TTL mirroring the
// session expiry, so expired sessions vanish without a cleanup job.
type RedisStore[Data any] struct {
	client redis.UniversalClient
}

func NewRedisStore[Data any](client redis.UniversalClient) *RedisStore[Data] {
	return &RedisStore[Data]{client: client}
}

func (s *RedisStore[Data]) GetByToken(ctx context.Context, token string) (Session[Data], error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session[Data]{}, ErrNotFound
	}
	if err != nil {
		return Session[Data]{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var rec redisRecord[Data]
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Session[Data]{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return Session[Data]{
		ID:        rec.ID,
		Token:     token,
		UserID:    rec.UserID,
		Data:      rec.Data,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *RedisStore[Data]) Save(ctx context.Context, sess *Session[Data]) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	raw, err := json.Marshal(redisRecord[Data]{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Data:      sess.Data,
		ExpiresAt: sess.ExpiresAt,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	pipe := s.client.TxPipeline()
	if sess.prevToken != "" && sess.prevToken != sess.Token {
		pipe.Del(ctx, redisKeyPrefix+sess.prevToken)
	}
	pipe.Set(ctx, redisKeyPrefix+sess.Token, raw, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	sess.prevToken = ""
	return nil
}

func (s *RedisStore[Data]) Delete(ctx context.Context, token string) error {
	n, err := s.client.Del(ctx, redisKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired is a no-op for Redis: key TTLs already reap expired
// sessions server-side.
func (s *RedisStore[Data]) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
