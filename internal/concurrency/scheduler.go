// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// High-precision scheduler for timed callbacks, implementing
// api.Scheduler over a min-heap of deadlines.

package concurrency

import (
	"container/heap"
	"sync"
	"time"

	"github.com/hioload-ai/coderuntime/api"
	"go.uber.org/atomic"
)

type task struct {
	deadline  int64
	fn        func()
	index     int
	cancelled atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func (t *task) Cancel() error {
	t.cancelled.Store(true)
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

func (t *task) Done() <-chan struct{} { return t.done }

func (t *task) Err() error {
	select {
	case <-t.done:
		if t.cancelled.Load() {
			return api.ErrCancelled
		}
		return nil
	default:
		return nil
	}
}

var _ api.Cancelable = (*task)(nil)

type taskHeap []*task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *taskHeap) Push(x interface{}) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler runs callbacks at their configured delay past Now(). A
// single goroutine sleeps until the earliest pending deadline, woken
// early by wake whenever Schedule inserts something sooner.
type Scheduler struct {
	mu     sync.Mutex
	timerQ taskHeap
	wake   chan struct{}
	stop   chan struct{}
}

var _ api.Scheduler = (*Scheduler)(nil)

// NewScheduler starts the background dispatch loop and returns a ready
// Scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go s.run()
	return s
}

// Schedule runs fn after delayNanos, returning a handle that Cancel
// can use to suppress it before it fires.
func (s *Scheduler) Schedule(delayNanos int64, fn func()) (api.Cancelable, error) {
	t := &task{deadline: s.Now() + delayNanos, fn: fn, done: make(chan struct{})}

	s.mu.Lock()
	heap.Push(&s.timerQ, t)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return t, nil
}

// Cancel suppresses a previously scheduled callback. It is a no-op if
// the callback already fired.
func (s *Scheduler) Cancel(c api.Cancelable) error {
	return c.Cancel()
}

// Now returns wall-clock Unix time in nanoseconds (time.Now().UnixNano()).
func (s *Scheduler) Now() int64 {
	return time.Now().UnixNano()
}

// Close stops the dispatch loop. Pending, not-yet-fired callbacks are
// dropped without running.
func (s *Scheduler) Close() {
	close(s.stop)
}

func (s *Scheduler) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.timerQ.Len() == 0 {
			s.mu.Unlock()
			if !timer.Stop() {
				drainTimer(timer)
			}
			select {
			case <-s.wake:
			case <-s.stop:
				return
			}
			continue
		}

		next := s.timerQ[0]
		delay := time.Duration(next.deadline - s.Now())
		s.mu.Unlock()

		if delay <= 0 {
			s.fireReady()
			continue
		}

		if !timer.Stop() {
			drainTimer(timer)
		}
		timer.Reset(delay)

		select {
		case <-timer.C:
			s.fireReady()
		case <-s.wake:
			// a sooner task may have been inserted; loop re-evaluates the heap
		case <-s.stop:
			return
		}
	}
}

// fireReady pops and runs every task whose deadline has passed.
func (s *Scheduler) fireReady() {
	for {
		s.mu.Lock()
		if s.timerQ.Len() == 0 || s.timerQ[0].deadline > s.Now() {
			s.mu.Unlock()
			return
		}
		t := heap.Pop(&s.timerQ).(*task)
		s.mu.Unlock()

		if t.cancelled.Load() {
			continue
		}
		t.closeOnce.Do(func() { close(t.done) })
		go t.fn()
	}
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
