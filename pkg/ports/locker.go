package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes panel actions across processes that share one host document.
// The key names the document, so replicas editing different documents never wait on each other.
type DistributedLocker interface {
	// Lock blocks until the document key is held or ctx is done.
	// The ttl caps how long a crashed holder keeps other replicas waiting.
	// The caller must release the lock with the returned UnlockFunc.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
