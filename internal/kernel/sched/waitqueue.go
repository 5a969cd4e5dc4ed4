package sched

import (
	"sync"
	"sync/atomic"
)

// Ticket is a single-use parking slot handed out by WaitQueue.Prepare.
type Ticket struct {
	ch <-chan struct{}
	q  *WaitQueue
}

// Wait parks the caller until the queue is notified after the ticket was
// taken. It returns immediately if that already happened.
func (t Ticket) Wait() {
	t.q.parked.Add(1)
	<-t.ch
	t.q.parked.Add(-1)
}

// Done exposes the ticket as a channel for use in select statements.
func (t Ticket) Done() <-chan struct{} {
	return t.ch
}

// WaitQueue is a broadcast wait queue. The zero value is ready to use.
type WaitQueue struct {
	mu     sync.Mutex
	ch     chan struct{}
	parked atomic.Int64
}

// Prepare returns a ticket bound to the current generation of the queue.
func (q *WaitQueue) Prepare() Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ch == nil {
		q.ch = make(chan struct{})
	}
	return Ticket{ch: q.ch, q: q}
}

// NotifyAll releases every ticket handed out since the last notification.
func (q *WaitQueue) NotifyAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ch == nil {
		return
	}
	close(q.ch)
	q.ch = nil
}

// Parked reports how many tasks are currently suspended on the queue.
func (q *WaitQueue) Parked() int {
	return int(q.parked.Load())
}
