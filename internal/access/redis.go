package access

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "planner:trial:"

// RedisLedger stores markers in Redis so they survive restarts and are shared
// by every server instance. MarkUsed relies on SETNX, so two concurrent
// requests for one session cannot both claim the free run.
type RedisLedger struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var _ Ledger = (*RedisLedger)(nil)

// NewRedisLedger connects to addr. A ttl of 0 keeps markers forever.
func NewRedisLedger(addr string, ttl time.Duration) *RedisLedger {
	client := redis.NewClient(&redis.Options{
		Addr: addr,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries: 2,
	})
	return NewRedisLedgerWithClient(client, ttl)
}

// NewRedisLedgerWithClient wraps an existing client.
func NewRedisLedgerWithClient(client redis.Cmdable, ttl time.Duration) *RedisLedger {
	return &RedisLedger{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (l *RedisLedger) key(session string) string {
	return l.prefix + session
}

func (l *RedisLedger) HasUsed(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return n > 0, nil
}

func (l *RedisLedger) MarkUsed(ctx context.Context, key string) (bool, error) {
	stamp := l.now().UTC().Format(time.RFC3339)
	ok, err := l.client.SetNX(ctx, l.key(key), stamp, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return ok, nil
}

// Ping checks the connection.
func (l *RedisLedger) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}
