package permit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	t.Parallel()
	const limit = 3
	p := New(limit)

	var cur, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer p.Release()
			n := cur.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			cur.Add(-1)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > limit {
		t.Fatalf("peak concurrency = %d, want <= %d", got, limit)
	}
	if p.InUse() != 0 {
		t.Fatalf("InUse = %d after all releases", p.InUse())
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	t.Parallel()
	p := New(1)
	if !tryAcquire(p) {
		t.Fatal("first acquire should succeed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire err = %v, want deadline exceeded", err)
	}
	p.Release()
	if !tryAcquire(p) {
		t.Fatal("token should be available after release")
	}
}

func TestReleaseWithoutAcquireDoesNotGrow(t *testing.T) {
	t.Parallel()
	p := New(2)
	p.Release()
	p.Release()
	if p.InUse() != 0 {
		t.Fatalf("InUse = %d, want 0", p.InUse())
	}
	if !tryAcquire(p) || !tryAcquire(p) {
		t.Fatal("expected two tokens")
	}
	if tryAcquire(p) {
		t.Fatal("pool grew past its limit")
	}
}

func TestNewClampsLimit(t *testing.T) {
	t.Parallel()
	if got := New(0).Limit(); got != 1 {
		t.Fatalf("Limit = %d, want 1", got)
	}
}

// tryAcquire takes a token only if one is free right now.
func tryAcquire(p *Pool) bool {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return p.Acquire(ctx) == nil
}
