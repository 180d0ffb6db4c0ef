package cache

import (
	"context"
	"encoding/json"
	"time"

	"progression-service/internal/certificate"

	"github.com/redis/go-redis/v9"
)

// VerifyCache is a read-through cache in front of certificate
// verification. The verify endpoint is public and unauthenticated, so
// it absorbs most of the repeated lookups. A nil client disables
// caching entirely.
type VerifyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVerifyCache(client *redis.Client, ttl time.Duration) *VerifyCache {
	return &VerifyCache{client: client, ttl: ttl}
}

func (c *VerifyCache) key(code string) string {
	return "certificate:verify:" + code
}

func (c *VerifyCache) Get(ctx context.Context, code string) (*certificate.Verification, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(code)).Bytes()
	if err != nil {
		return nil, false
	}
	var v certificate.Verification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set stores a verification result. Only valid results are cached:
// an unknown code may become valid the moment its certificate is
// issued, and a miss is cheap anyway.
func (c *VerifyCache) Set(ctx context.Context, code string, v *certificate.Verification) {
	if c == nil || c.client == nil || v == nil || !v.Valid {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(code), raw, c.ttl)
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
