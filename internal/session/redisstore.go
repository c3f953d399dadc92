package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-client/internal/common/config"
)

// tokenKey is the fixed name the session token is stored under.
const tokenKey = "ats:session:token"

// RedisTokenStore shares the persisted token between client instances that
// operate one session, e.g. several admin shells on one jump host.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(cfg config.RedisConfig) *RedisTokenStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisTokenStore{client: rdb}
}

// NewRedisTokenStoreFromClient wraps an existing client, used by tests.
func NewRedisTokenStoreFromClient(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// Ping tests the connection.
func (s *RedisTokenStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, tokenKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, token string) error {
	return s.client.Set(ctx, tokenKey, token, 0).Err()
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, tokenKey).Err()
}

func (s *RedisTokenStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
