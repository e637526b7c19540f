package socketclient

import (
	"sync"
	"time"
)

// DispatchQueue runs tasks one at a time in submission order. Sessions use
// one for delegate notifications and one for subscription callbacks; both
// can be supplied by the caller.
type DispatchQueue interface {
	Dispatch(task func())
}

// SerialQueue is a DispatchQueue backed by a single goroutine.
type SerialQueue struct {
	tasks chan func()
	once  sync.Once
	done  chan struct{}
}

// NewSerialQueue creates a running SerialQueue. Stop it with Stop when it
// is no longer needed.
func NewSerialQueue() *SerialQueue {
	q := &SerialQueue{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *SerialQueue) loop() {
	for {
		select {
		case task := <-q.tasks:
			task()
		case <-q.done:
			return
		}
	}
}

// Dispatch enqueues a task. Tasks submitted after Stop are dropped.
func (q *SerialQueue) Dispatch(task func()) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.tasks <- task:
	case <-q.done:
	}
}

// Stop shuts the queue down. Queued tasks may be dropped.
func (q *SerialQueue) Stop() {
	q.once.Do(func() { close(q.done) })
}

// performAfter schedules a task on the queue after the given delay. The
// returned timer can cancel the delivery while it is still pending.
func (q *SerialQueue) performAfter(delay time.Duration, task func()) *time.Timer {
	return time.AfterFunc(delay, func() { q.Dispatch(task) })
}
