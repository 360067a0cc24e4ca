// Package memory provides the in-memory tracked queues the pipeline runs on.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Queue is an unbounded FIFO that tracks outstanding work. Every enqueued
// item stays outstanding until a consumer acknowledges it with Done, so
// Join can block until the queue is fully drained. Safe for concurrent use.
type Queue[T any] struct {
	mu          sync.Mutex
	items       []T
	outstanding int
	arrival     chan struct{} // closed and replaced on every enqueue
	drained     chan struct{} // closed while outstanding == 0
}

// NewQueue constructs an empty queue. A fresh queue is already drained.
func NewQueue[T any]() *Queue[T] {
	drained := make(chan struct{})
	close(drained)
	return &Queue[T]{
		arrival: make(chan struct{}),
		drained: drained,
	}
}

// Enqueue appends an item and marks it outstanding. It never blocks.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	if q.outstanding == 0 {
		q.drained = make(chan struct{})
	}
	q.outstanding++
	q.items = append(q.items, item)
	close(q.arrival)
	q.arrival = make(chan struct{})
	q.mu.Unlock()
}

// Dequeue pops the oldest item, blocking until one is available or the
// context ends. The item remains outstanding until Done is called.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		arrival := q.arrival
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("dequeue canceled: %w", ctx.Err())
		case <-arrival:
		}
	}
}

// Done acknowledges one previously dequeued item. It panics when called
// more times than Enqueue, which would mean an item was acked twice.
func (q *Queue[T]) Done() {
	q.mu.Lock()
	if q.outstanding == 0 {
		q.mu.Unlock()
		panic("memory: Queue.Done called more times than Enqueue")
	}
	q.outstanding--
	if q.outstanding == 0 {
		close(q.drained)
	}
	q.mu.Unlock()
}

// Join blocks until every enqueued item has been acknowledged or the
// context ends.
func (q *Queue[T]) Join(ctx context.Context) error {
	q.mu.Lock()
	drained := q.drained
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("join canceled: %w", ctx.Err())
	case <-drained:
		return nil
	}
}

// Outstanding reports the number of enqueued items not yet acknowledged.
func (q *Queue[T]) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}

// Len reports the number of items waiting to be dequeued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
