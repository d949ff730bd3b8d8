// Package refresh serializes access-token refresh exchanges. Concurrent callers
// that need a new access token share a single in-flight exchange and all
// receive its outcome.
package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const exchangeKey = "refresh"

// ExchangeFunc performs one refresh exchange and returns the new access token.
type ExchangeFunc func(ctx context.Context) (string, error)

// Result is the outcome of Group.Do.
type Result struct {
	Access string
	Shared bool // another caller joined the same exchange
}

// Group runs at most one ExchangeFunc at a time.
type Group struct {
	flight    singleflight.Group
	exchanges atomic.Int64
	timeout   time.Duration
}

// NewGroup returns a Group. A positive timeout bounds each exchange
// independently of the context of the caller that started it.
func NewGroup(timeout time.Duration) *Group {
	return &Group{timeout: timeout}
}

// Do runs fn unless an exchange is already in flight, in which case it waits
// for that one. The exchange is detached from ctx cancellation so a caller that
// gives up does not fail the others; the caller itself stops waiting when ctx
// is done.
func (g *Group) Do(ctx context.Context, fn ExchangeFunc) (Result, error) {
	ch := g.flight.DoChan(exchangeKey, func() (interface{}, error) {
		g.exchanges.Add(1)
		exCtx := context.WithoutCancel(ctx)
		if g.timeout > 0 {
			var cancel context.CancelFunc
			exCtx, cancel = context.WithTimeout(exCtx, g.timeout)
			defer cancel()
		}
		return fn(exCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Result{Shared: res.Shared}, res.Err
		}
		access, _ := res.Val.(string)
		return Result{Access: access, Shared: res.Shared}, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Exchanges returns how many exchanges have been started.
func (g *Group) Exchanges() int64 {
	return g.exchanges.Load()
}
