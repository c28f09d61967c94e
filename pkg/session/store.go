package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CookieName is the session cookie shared by both services.
const CookieName = "ssid"

var ErrNotFound = errors.New("session not found")

// Store persists sessions in Redis as JSON values with a sliding TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (st *Store) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := st.rdb.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session load: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	if sess.Values == nil {
		sess.Values = map[string]any{}
	}
	return &sess, nil
}

func (st *Store) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := st.rdb.Set(ctx, redisKey(s.ID), raw, st.ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (st *Store) Delete(ctx context.Context, id string) error {
	if err := st.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func redisKey(id string) string {
	return "session:" + id
}
