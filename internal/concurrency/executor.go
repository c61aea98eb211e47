// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NUMA-aware executor using a mutex-guarded queue for task dispatch.

package concurrency

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
)

var ErrExecutorClosed = errors.New("concurrency: executor closed")

type TaskFunc func()

// Executor runs submitted tasks on a fixed pool of goroutines.
// eapache/queue.Queue isn't safe for concurrent use on its own, so
// every access goes through mu; notify wakes an idle worker without
// the busy-poll a lock-free queue would otherwise need here.
type Executor struct {
	mu       sync.Mutex
	queue    *queue.Queue
	notify   chan struct{}
	workers  []worker
	stop     chan struct{}
	numaNode int
}

func (e *Executor) NumWorkers() any {
	return len(e.workers)
}

type worker struct {
	exec *Executor
	stop chan struct{}
	cpu  int
}

// NewExecutor starts numWorkers goroutines draining a shared task
// queue. When numaNode >= 0, each worker pins its OS thread to a CPU
// on that node (round-robin by worker index) via PinCurrentThread
// before entering its run loop, keeping dispatch cache-local for
// callers that need that guarantee; -1 leaves scheduling to the Go
// runtime.
func NewExecutor(numWorkers, numaNode int) *Executor {
	e := &Executor{
		queue:    queue.New(),
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		numaNode: numaNode,
	}
	for i := 0; i < numWorkers; i++ {
		w := worker{exec: e, stop: make(chan struct{}), cpu: i}
		go w.run()
		e.workers = append(e.workers, w)
	}
	return e
}

func (e *Executor) Submit(task TaskFunc) error {
	select {
	case <-e.stop:
		return ErrExecutorClosed
	default:
	}

	e.mu.Lock()
	e.queue.Add(task)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
	return nil
}

func (e *Executor) Close() {
	close(e.stop)
}

func (w *worker) run() {
	if w.exec.numaNode >= 0 {
		PinCurrentThread(w.exec.numaNode, w.cpu)
	}
	for {
		if task, ok := w.exec.dequeue(); ok {
			task()
			continue
		}
		select {
		case <-w.stop:
			return
		case <-w.exec.stop:
			return
		case <-w.exec.notify:
		}
	}
}

func (e *Executor) dequeue() (TaskFunc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queue.Length() == 0 {
		return nil, false
	}
	item := e.queue.Remove()
	task, ok := item.(TaskFunc)
	return task, ok
}
