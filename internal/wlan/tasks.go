package wlan

import (
	"context"
	"sync"
	"time"

	"github.com/muurk/wlanmgr/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// taskPool runs short background jobs (delayed connects, config saves,
// hooks) with bounded concurrency. submit never blocks the caller: when
// the pool is full the job waits for a slot on its own goroutine.
type taskPool struct {
	ctx context.Context
	g   *errgroup.Group

	mu       sync.Mutex
	closed   bool
	overflow sync.WaitGroup
}

func newTaskPool(ctx context.Context, size int) *taskPool {
	g, gctx := errgroup.WithContext(ctx)
	if size > 0 {
		g.SetLimit(size)
	}
	return &taskPool{ctx: gctx, g: g}
}

// submit schedules fn. Errors are logged, never propagated, so one failed
// job does not cancel the others.
func (p *taskPool) submit(name string, fn func(ctx context.Context) error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		logging.Debug("Dropping background task after close", zap.String("task", name))
		return false
	}

	job := func() error {
		if err := fn(p.ctx); err != nil {
			logging.Warn("Background task failed", zap.String("task", name), zap.Error(err))
		}
		return nil
	}
	if p.g.TryGo(job) {
		return true
	}
	p.overflow.Add(1)
	go func() {
		defer p.overflow.Done()
		p.g.Go(job)
	}()
	return true
}

// wait stops accepting jobs and waits for the running ones.
func (p *taskPool) wait() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.overflow.Wait()
	_ = p.g.Wait()
}

// sleep waits d or until ctx is done. It reports whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
