package wlan

import (
	"sync"

	"github.com/google/uuid"
)

// ticket is one submitted operation. done receives exactly one value.
type ticket struct {
	id   uuid.UUID
	op   Operation
	done chan error
}

func newTicket(op Operation) *ticket {
	return &ticket{
		id:   uuid.New(),
		op:   op,
		done: make(chan error, 1),
	}
}

func (t *ticket) fulfil(err error) {
	t.done <- err
}

// queue is the FIFO between orchestration callers and the worker.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*ticket
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(t *ticket) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, t)
	q.cond.Signal()
	return nil
}

// pop blocks until a ticket is available. It returns false once the
// queue is closed.
func (q *queue) pop() (*ticket, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return t, true
}

// close rejects further pushes, wakes pop and returns the tickets that
// were never processed.
func (q *queue) close() []*ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	pending := q.items
	q.items = nil
	q.cond.Broadcast()
	return pending
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
