// Package permit provides a fixed-capacity counting permit shared by
// concurrent workers.
package permit

import (
	"context"
)

// Pool is a channel-based semaphore. Tokens are pre-filled up to the limit.
//
// The limit is fixed for the life of the pool.
type Pool struct {
	limit int
	ch    chan struct{}
}

func New(limit int) *Pool {
	if limit <= 0 {
		limit = 1
	}
	p := &Pool{limit: limit, ch: make(chan struct{}, limit)}
	for i := 0; i < limit; i++ {
		p.ch <- struct{}{}
	}
	return p
}

// Acquire blocks until a token is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) error {
	// A free token wins over an already canceled ctx.
	select {
	case <-p.ch:
		return nil
	default:
	}
	select {
	case <-p.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a token. It never blocks; a release without a matching
// acquire is dropped.
func (p *Pool) Release() {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

func (p *Pool) Limit() int { return p.limit }

// InUse is a best-effort count of held tokens.
func (p *Pool) InUse() int { return p.limit - len(p.ch) }
