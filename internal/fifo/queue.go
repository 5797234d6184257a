////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package fifo provides an unbounded first-in first-out queue with a single
// consumer. Pushing never blocks, which is what allows posting a message or
// scheduling a task to be fire-and-forget.
package fifo

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO queue. Any number of goroutines may push, but
// only a single goroutine may pop.
type Queue[T any] struct {
	items []T

	// notify has a buffer of one so that a push between the consumer
	// unlocking and waiting is never lost.
	notify chan struct{}

	// done is closed when the queue is closed.
	done   chan struct{}
	closed bool

	mux sync.Mutex
}

// New returns a new empty Queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends the item to the end of the queue. Returns false if the queue is
// closed, in which case the item is dropped.
func (q *Queue[T]) Push(item T) bool {
	q.mux.Lock()
	if q.closed {
		q.mux.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mux.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// TryPop removes and returns the item at the front of the queue without
// blocking. Returns false if the queue is empty or closed.
func (q *Queue[T]) TryPop() (item T, ok bool) {
	q.mux.Lock()
	defer q.mux.Unlock()
	if q.closed || len(q.items) == 0 {
		return item, false
	}

	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Pop removes and returns the item at the front of the queue, blocking until
// an item is available. Returns false once the queue is closed or the context
// is done.
func (q *Queue[T]) Pop(ctx context.Context) (item T, ok bool) {
	for {
		if item, ok = q.TryPop(); ok {
			return item, true
		}

		select {
		case <-q.notify:
		case <-q.done:
			return item, false
		case <-ctx.Done():
			return item, false
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mux.Lock()
	defer q.mux.Unlock()
	return len(q.items)
}

// Close closes the queue and returns the items that were still queued. Later
// pushes are dropped. Close is idempotent; calls after the first return nil.
func (q *Queue[T]) Close() []T {
	q.mux.Lock()
	defer q.mux.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)

	discarded := q.items
	q.items = nil
	return discarded
}

// Done returns a channel that is closed when the queue is closed.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}
