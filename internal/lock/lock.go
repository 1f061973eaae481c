package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/carbonledger/internal/config"
	"go.uber.org/zap"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Guard serializes work on a string key across recompute workers. TryLock is
// non-blocking: callers that lose the race back off and retry.
type Guard interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type redisGuard struct {
	client *redis.Client
	script *redis.Script
}

// NewRedisGuard builds a redis-backed guard. Returns nil for a nil client.
func NewRedisGuard(client *redis.Client) Guard {
	if client == nil {
		return nil
	}
	return &redisGuard{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (g *redisGuard) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (g *redisGuard) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return g.script.Run(ctx, g.client, []string{key}, token).Err()
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

// localGuard is the single-process fallback used when redis is not
// configured. Same token contract as the redis guard so callers do not care
// which one they got.
type localGuard struct {
	mu   sync.Mutex
	held map[string]localEntry
}

func NewLocalGuard() Guard {
	return &localGuard{held: make(map[string]localEntry)}
}

func (g *localGuard) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if entry, ok := g.held[key]; ok && time.Now().Before(entry.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	g.held[key] = localEntry{token: token, expiresAt: time.Now().Add(ttl)}
	return token, true, nil
}

func (g *localGuard) Release(_ context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.held[key]; ok && entry.token == token {
		delete(g.held, key)
	}
	return nil
}

// NewGuard picks the redis guard when an address is configured, the local
// guard otherwise.
func NewGuard(cfg config.Config, log *zap.Logger) Guard {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Named("lock").Info("redis not configured, using in-process lock guard")
		return NewLocalGuard()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	return NewRedisGuard(client)
}
