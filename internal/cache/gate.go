package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/agenthands/claimcheck/internal/metrics"
)

// ComputeFunc produces the value for a key. Returning store=false hands the
// value to the callers without caching it.
type ComputeFunc func(ctx context.Context) (value []byte, store bool, err error)

// DefaultFlightTimeout bounds a shared computation once it no longer follows
// any caller's context.
const DefaultFlightTimeout = 2 * time.Minute

// Gate is a read-through cache that runs at most one computation per key at a time.
// Concurrent callers for the same key share the result of the one in flight.
type Gate struct {
	// FlightTimeout bounds each shared computation.
	FlightTimeout time.Duration

	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewGate(c Cache, ttl time.Duration, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{FlightTimeout: DefaultFlightTimeout, cache: c, ttl: ttl, logger: logger}
}

type flight struct {
	value []byte
}

// Do returns the cached value for key, or computes, stores and returns it.
// hit reports whether the value came from the cache.
//
// The computation is detached from ctx: a caller whose ctx ends gets ctx.Err()
// while the other callers sharing the flight keep waiting for its result.
func (g *Gate) Do(ctx context.Context, key string, compute ComputeFunc) (value []byte, hit bool, err error) {
	if g == nil || g.cache == nil {
		v, _, cerr := compute(ctx)
		return v, false, cerr
	}

	if v, ok := g.cache.Get(ctx, key); ok {
		metrics.CountCache("hit")
		return v, true, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(flightCtx, g.FlightTimeout)
		defer cancel()

		// a flight that finished just before we joined may have filled the cache
		if v, ok := g.cache.Get(fctx, key); ok {
			return flight{value: v}, nil
		}
		v, store, err := compute(fctx)
		if err != nil {
			return nil, err
		}
		if store {
			if err := g.cache.Set(fctx, key, v, g.ttl); err != nil {
				g.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
			}
		}
		return flight{value: v}, nil
	})

	select {
	case <-ctx.Done():
		metrics.CountCache("abandoned")
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CountCache("shared")
		} else {
			metrics.CountCache("miss")
		}
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(flight).value, false, nil
	}
}
