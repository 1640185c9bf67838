package utils

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	goutils "go.viam.com/utils"

	"go.viam.com/beaconbot/logging"
)

// Workers runs the producers that feed the control loop, such as pulse capture and serial
// pumps, until Stop is called. Each worker gets its own goroutine and a shared context.
type Workers struct {
	logger logging.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
	running atomic.Int32
}

// NewWorkers returns an empty, running set of workers.
func NewWorkers(logger logging.Logger) *Workers {
	ctx, cancel := context.WithCancel(context.Background())
	return &Workers{logger: logger, ctx: ctx, cancel: cancel}
}

// Go starts f under name. Once Stop has been called it reports false and f never runs.
func (w *Workers) Go(name string, f func(ctx context.Context)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}
	w.wg.Add(1)
	w.running.Inc()
	goutils.PanicCapturingGo(func() {
		defer func() {
			w.running.Dec()
			w.wg.Done()
		}()
		f(w.ctx)
		w.logger.Debugw("worker returned", "worker", name, "canceled", w.ctx.Err() != nil)
	})
	return true
}

// Running returns how many workers have not yet returned.
func (w *Workers) Running() int {
	return int(w.running.Load())
}

// Stop cancels every worker and waits for them to return. Later calls return immediately.
func (w *Workers) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	w.cancel()
	w.wg.Wait()
}
