package devserver

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist records revoked access tokens until they would have expired
// anyway. Logout adds the presented token; the auth middleware checks it.
type Blacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Has(ctx context.Context, token string) (bool, error)
}

// memoryBlacklist is the default, suitable for a single dev server process.
type memoryBlacklist struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{expires: make(map[string]time.Time)}
}

func (b *memoryBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expires[token] = time.Now().Add(ttl)
	return nil
}

func (b *memoryBlacklist) Has(ctx context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dl, ok := b.expires[token]
	if !ok {
		return false, nil
	}
	if time.Now().After(dl) {
		delete(b.expires, token)
		return false, nil
	}
	return true, nil
}

// redisBlacklist shares revocations between dev server instances.
type redisBlacklist struct {
	client *redis.Client
	prefix string
}

// NewRedisBlacklist wraps a Redis client as a token blacklist.
func NewRedisBlacklist(client *redis.Client) Blacklist {
	return &redisBlacklist{client: client, prefix: "blacklist:access:"}
}

func (b *redisBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	return b.client.Set(ctx, b.prefix+token, "1", ttl).Err()
}

func (b *redisBlacklist) Has(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
