package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// records revoked token ids until their natural expiry
type DenyList interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// in-process deny-list; entries drop out once the token would have expired anyway
type MemoryDenyList struct {
	cache *cache.Cache
	now   func() time.Time
}

func NewMemoryDenyList() *MemoryDenyList {
	return &MemoryDenyList{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
		now:   time.Now,
	}
}

func (d *MemoryDenyList) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}

	d.cache.Set(jti, struct{}{}, ttl)
	return nil
}

func (d *MemoryDenyList) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, found := d.cache.Get(jti)
	return found, nil
}

const redisDenyPrefix = "auth:denied:"

// deny-list shared between instances through redis
type RedisDenyList struct {
	client *redis.Client
	now    func() time.Time
}

// connects to redis at url (redis://...)
func NewRedisDenyList(ctx context.Context, url string) (*RedisDenyList, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // connection never used
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisDenyList{client: client, now: time.Now}, nil
}

func (d *RedisDenyList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, redisDenyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

func (d *RedisDenyList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, redisDenyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}

	return n > 0, nil
}

func (d *RedisDenyList) Close() error {
	return d.client.Close()
}

// underlying connection, shared with other redis-backed components
func (d *RedisDenyList) Client() *redis.Client {
	return d.client
}
