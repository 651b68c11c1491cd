package adapter

import (
	"context"
	"time"
)

// Locker is a cross-process lease. TryLock and Refresh return
// domain.ErrLockHeld when another owner holds the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Refresh(ctx context.Context, key, token string, ttl time.Duration) error
	Unlock(ctx context.Context, key, token string) error
}
