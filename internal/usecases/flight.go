package usecases

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// defaultSharedTimeout bounds work shared between callers of one key.
const defaultSharedTimeout = 60 * time.Second

// joinFlight runs fn at most once per key among concurrent callers.
// The shared call keeps the first caller's context values but not its
// cancellation, and is bounded by timeout instead. Each caller stops
// waiting when its own ctx is done; the shared call keeps running for
// the others.
func joinFlight[T any](ctx context.Context, g *singleflight.Group, key string, timeout time.Duration, fn func(context.Context) (T, error)) (T, bool, error) {
	ch := g.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return fn(shared)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		return res.Val.(T), res.Shared, nil
	}
}
