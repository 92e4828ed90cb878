package svgscene

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotRunning is returned by Flush when the render loop is stopped.
var ErrNotRunning = errors.New("svgscene: render loop not running")

// scheduler coalesces re-render requests: a request made while
// another is pending is served by the same pass.
type scheduler struct {
	wake    chan struct{} // capacity 1
	running atomic.Bool

	mu        sync.Mutex
	requested uint64        // number of requests received
	served    uint64        // requests served by a complete pass
	passDone  chan struct{} // closed after each pass, then replaced

	lifeMu  sync.Mutex // serializes Start and Close
	loopCtx context.Context
	cancel  context.CancelFunc
	exited  chan struct{} // closed when the loop returns, nil before the first Start
}

func newScheduler() *scheduler {
	return &scheduler{
		wake:     make(chan struct{}, 1),
		passDone: make(chan struct{}),
	}
}

func (s *scheduler) request() {
	s.mu.Lock()
	s.requested++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default: // a pass is already pending
	}
}

func (s *scheduler) loop(ctx context.Context, pass func(), exited chan<- struct{}) {
	defer func() {
		s.running.Store(false)
		s.mu.Lock()
		close(s.passDone)
		s.passDone = make(chan struct{})
		s.mu.Unlock()
		close(exited)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		target := s.requested
		s.mu.Unlock()

		pass()

		s.mu.Lock()
		if target > s.served {
			s.served = target
		}
		close(s.passDone)
		s.passDone = make(chan struct{})
		s.mu.Unlock()
	}
}

// RequestRender schedules a full render pass followed by a display
// on the host surface. It never blocks: requests received before
// the pending pass starts are served by it.
func (r *Root) RequestRender() { r.sched.request() }

// Start launches the render loop serving RequestRender, until ctx
// is done or Close is called. Requests made before Start are kept.
// Calling Start on a running loop is a no-op; a loop still stopping
// is waited for, then replaced.
func (r *Root) Start(ctx context.Context) {
	s := r.sched
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.exited != nil {
		select {
		case <-s.exited:
		default:
			if s.loopCtx.Err() == nil {
				return
			}
			<-s.exited
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	exited := make(chan struct{})
	s.loopCtx, s.cancel, s.exited = ctx, cancel, exited
	s.running.Store(true)

	Logger().Debug("svgscene: render loop started")
	go s.loop(ctx, r.Update, exited)
}

// Close stops the render loop and waits for it to return: an in-flight
// pass runs to completion. It must not be called from a surface callback.
func (r *Root) Close() {
	s := r.sched
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	<-s.exited
}

// Flush waits until every request made before the call has been served.
func (r *Root) Flush(ctx context.Context) error {
	s := r.sched
	s.mu.Lock()
	target := s.requested
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.served >= target {
			s.mu.Unlock()
			return nil
		}
		done := s.passDone
		s.mu.Unlock()

		if !s.running.Load() {
			return ErrNotRunning
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}
	}
}
