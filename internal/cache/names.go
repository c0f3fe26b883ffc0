package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const nameTTL = 30 * time.Minute

// NameCache remembers the generated weapon name for a base name, so asking
// twice for "Hilda" within the TTL yields the same weapon name. A nil cache
// is valid and never hits.
type NameCache struct {
	Client *redis.Client
}

func New(addr string) *NameCache {
	return &NameCache{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

func Key(base string) string {
	return "weapon-name:" + strings.ToLower(strings.TrimSpace(base))
}

// Get treats every redis error, including a miss, as "not cached".
func (c *NameCache) Get(ctx context.Context, base string) (string, bool) {
	if c == nil || c.Client == nil {
		return "", false
	}
	val, err := c.Client.Get(ctx, Key(base)).Result()
	if err != nil || val == "" {
		return "", false
	}
	// keep popular names around
	c.Client.Expire(ctx, Key(base), nameTTL)
	return val, true
}

func (c *NameCache) Set(ctx context.Context, base, name string) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Set(ctx, Key(base), name, nameTTL).Err()
}

func (c *NameCache) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
