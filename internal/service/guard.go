package service

import (
	"context"
	"sync"
	"time"

	"github.com/bibliotech/library-service/internal/errs"
	"golang.org/x/sync/semaphore"
)

// lockRetries is how many extra acquisition attempts are made before ErrBusy
// escapes to the caller.
const lockRetries = 2

// BookGuard serializes every availability-mutating operation per book.
// Operations on different books proceed in parallel; acquisition waits at
// most `wait` per attempt so no request ever hangs on a hot book.
type BookGuard struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
	wait time.Duration
}

func NewBookGuard(wait time.Duration) *BookGuard {
	return &BookGuard{
		sems: make(map[string]*semaphore.Weighted),
		wait: wait,
	}
}

func (g *BookGuard) sem(bookUid string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sems[bookUid]
	if !ok {
		s = semaphore.NewWeighted(1)
		g.sems[bookUid] = s
	}
	return s
}

// Lock acquires the per-book slot and returns its release func.
func (g *BookGuard) Lock(ctx context.Context, bookUid string) (func(), error) {
	s := g.sem(bookUid)
	for i := 0; i <= lockRetries; i++ {
		waitCtx, cancel := context.WithTimeout(ctx, g.wait)
		err := s.Acquire(waitCtx, 1)
		cancel()
		if err == nil {
			return func() { s.Release(1) }, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errs.ErrBusy
}
