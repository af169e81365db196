package guauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore persists the session in Redis, for server-side agents
// that share one backend identity across processes. Keys are scoped by the
// configured prefix and carry no TTL; expiry is the token's own concern.
type RedisSessionStore struct {
	rdb       *redis.Client
	tokenKey  string
	userIDKey string
}

// NewRedisSessionStore returns a store using client. Prefix and key names
// come from cfg.
func NewRedisSessionStore(client *redis.Client, cfg SessionConfig) *RedisSessionStore {
	prefix := cfg.RedisPrefix
	if prefix == "" {
		prefix = "guauth"
	}
	return &RedisSessionStore{
		rdb:       client,
		tokenKey:  prefix + ":" + cfg.TokenKey,
		userIDKey: prefix + ":" + cfg.UserIDKey,
	}
}

func (r *RedisSessionStore) Load(ctx context.Context) (Session, error) {
	values, err := r.rdb.MGet(ctx, r.tokenKey, r.userIDKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var s Session
	if len(values) == 2 {
		if v, ok := values[0].(string); ok {
			s.Token = v
		}
		if v, ok := values[1].(string); ok {
			s.UserID = v
		}
	}
	return s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s Session) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tokenKey, s.Token, 0)
		pipe.Set(ctx, r.userIDKey, s.UserID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.tokenKey, r.userIDKey).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
