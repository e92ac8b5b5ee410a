// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"sync"

	"github.com/agentwire/agentwire"
)

// DefaultQueueSize is the default buffer size for event queues.
const DefaultQueueSize = 256

// Queue is a bounded, ordered, single-producer event pipe.
//
// Enqueue blocks when the buffer is full, so the consumer's read rate
// gates the producer. Order is strictly preserved. Close is idempotent
// and signals end-of-stream exactly once; events buffered before Close
// remain readable until drained.
//
// Tap creates child queues that receive every event enqueued after the
// tap, which is how a dropped caller resubscribes to an in-flight task.
type Queue struct {
	mu       sync.Mutex
	ch       chan agentwire.Event
	done     chan struct{}
	children []*Queue
	closed   bool
	size     int
}

// NewQueue creates a queue with the given buffer size. Sizes below one
// fall back to DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		ch:   make(chan agentwire.Event, size),
		done: make(chan struct{}),
		size: size,
	}
}

// Enqueue appends an event, blocking while the buffer is full. It fails
// once the queue is closed or the context is done.
func (q *Queue) Enqueue(ctx context.Context, ev agentwire.Event) error {
	if ev == nil {
		return ErrNilEvent
	}
	if err := ev.Validate(); err != nil {
		return err
	}

	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- ev:
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	q.mu.Lock()
	children := make([]*Queue, len(q.children))
	copy(children, q.children)
	q.mu.Unlock()

	for _, child := range children {
		// A closed tap drops the event; the primary stream already has it.
		if err := child.Enqueue(ctx, ev); err != nil && err != ErrQueueClosed {
			return err
		}
	}
	return nil
}

// Dequeue removes and returns the next event, blocking until one is
// available. After Close it drains the remaining buffered events and
// then returns ErrQueueClosed.
func (q *Queue) Dequeue(ctx context.Context) (agentwire.Event, error) {
	// Buffered events win over the close signal so nothing is lost.
	select {
	case ev := <-q.ch:
		return ev, nil
	default:
	}

	select {
	case ev := <-q.ch:
		return ev, nil
	case <-q.done:
		select {
		case ev := <-q.ch:
			return ev, nil
		default:
			return nil, ErrQueueClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Tap creates a child queue receiving all events enqueued from now on.
// Tapping a closed queue returns an already-closed child.
func (q *Queue) Tap() *Queue {
	child := NewQueue(q.size)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		child.closed = true
		close(child.done)
		return child
	}
	q.children = append(q.children, child)
	return child
}

// Close marks the queue as ended. Buffered events stay readable;
// subsequent Enqueue calls fail. Child queues are closed as well.
// Close is safe to call more than once.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	children := q.children
	q.children = nil
	q.mu.Unlock()

	for _, child := range children {
		child.Close()
	}
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *Queue) IsClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// Len returns the number of buffered events.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the buffer capacity.
func (q *Queue) Cap() int { return q.size }
