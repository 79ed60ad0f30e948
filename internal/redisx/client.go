package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// SweepLock is a best-effort SETNX lock used to keep overlapping sweeper
// replicas to a single active pass. The TTL bounds how long a crashed holder
// can block the next pass.
type SweepLock struct {
	R   *redis.Client
	TTL time.Duration
}

func (l *SweepLock) ttl() time.Duration {
	if l.TTL > 0 {
		return l.TTL
	}
	return TTLSweepLock
}

func (l *SweepLock) Acquire(ctx context.Context, name string) (bool, error) {
	return l.R.SetNX(ctx, fmt.Sprintf(KeySweepLock, name), "1", l.ttl()).Result()
}

func (l *SweepLock) Release(ctx context.Context, name string) {
	_ = l.R.Del(ctx, fmt.Sprintf(KeySweepLock, name)).Err()
}
