package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"remindful/utils"

	"github.com/go-redis/redis/v8"
)

// RunLock is the single-flight guard around sync runs. The in-process flag
// refuses overlapping calls within this process; the Redis SetNX lease keeps
// a second replica from interleaving checkpoint advancement. The lease TTL
// bounds how long a crashed holder can block others.
type RunLock struct {
	client *redis.Client // nil disables the cross-process lease

	mu   gosync.Mutex
	held bool
}

// NewRunLock builds a guard over the given lock-store client. A nil client
// yields an in-process-only guard.
func NewRunLock(client *redis.Client) *RunLock {
	return &RunLock{client: client}
}

// Acquire takes the lock or reports ErrSyncBusy.
func (l *RunLock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.held {
		l.mu.Unlock()
		return ErrSyncBusy
	}
	l.held = true
	l.mu.Unlock()

	if l.client == nil {
		return nil
	}

	ok, err := l.client.SetNX(ctx, utils.SyncLockKey, 1, utils.SyncLockTTL).Result()
	if err != nil {
		l.release()
		return fmt.Errorf("failed to take sync lock: %w", err)
	}
	if !ok {
		l.release()
		return ErrSyncBusy
	}
	return nil
}

// Release returns the lock. Safe to call once per successful Acquire.
func (l *RunLock) Release(ctx context.Context) {
	if l.client != nil {
		l.client.Del(ctx, utils.SyncLockKey)
	}
	l.release()
}

func (l *RunLock) release() {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
}
