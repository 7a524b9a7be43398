package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScanLock is a best-effort cross-instance mutex for the breach scanner,
// backed by a Redis SET NX key. When Redis is not configured the lock is a
// no-op and the in-process single-flight guard is the only protection.
type ScanLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewScanLock builds a lock around the given client. client may be nil.
func NewScanLock(client *redis.Client, key, token string, ttl time.Duration) *ScanLock {
	return &ScanLock{client: client, key: key, token: token, ttl: ttl}
}

// TryAcquire attempts to take the lock. Returns false when another instance
// holds it. Errors talking to Redis are treated as "not acquired" so two
// sweeps never race because of a partition.
func (l *ScanLock) TryAcquire(ctx context.Context) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release frees the lock if this instance still owns it.
func (l *ScanLock) Release(ctx context.Context) error {
	if l == nil || l.client == nil {
		return nil
	}
	const script = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        end
        return 0`
	return l.client.Eval(ctx, script, []string{l.key}, l.token).Err()
}
