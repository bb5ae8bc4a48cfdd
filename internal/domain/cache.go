package domain

import (
	"context"
	"time"
)

// SignalBus fans finished reports out to downstream consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}

// RateLimiter bounds how often a keyed action may run across processes.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RunLock serializes runs for one Eastern slate date across processes.
type RunLock interface {
	Acquire(ctx context.Context, dateET, runID string, ttl time.Duration) (release func(), err error)
}
