// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"sync"

	"github.com/agentwire/agentwire"
)

// Consumer streams events from a Queue to one caller, in producer order,
// until the final event or the end of the queue.
//
// A producer-side failure reported through Fail is surfaced on the error
// channel after the events already delivered; the consumer never emits
// anything after that.
type Consumer struct {
	mu      sync.Mutex
	queue   *Queue
	prodErr error
}

// NewConsumer creates a consumer reading from the given queue.
func NewConsumer(queue *Queue) *Consumer {
	if queue == nil {
		panic("queue cannot be nil")
	}
	return &Consumer{queue: queue}
}

// Fail records a producer-side failure to surface during consumption.
func (c *Consumer) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prodErr = err
}

func (c *Consumer) producerErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prodErr
}

// ConsumeAll streams events until a final event is delivered, the queue
// closes, or the context ends. Both returned channels are closed when
// consumption finishes; at most one error is ever sent.
func (c *Consumer) ConsumeAll(ctx context.Context) (<-chan agentwire.Event, <-chan error) {
	events := make(chan agentwire.Event)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errs)

		for {
			ev, err := c.queue.Dequeue(ctx)
			if err != nil {
				if err == ErrQueueClosed {
					if prodErr := c.producerErr(); prodErr != nil {
						errs <- prodErr
					}
					return
				}
				errs <- err
				return
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}

			if ev.IsFinal() {
				return
			}
		}
	}()

	return events, errs
}

// ConsumeUntilFinal collects every event up to and including the final
// one. It is primarily a testing and non-streaming convenience.
func (c *Consumer) ConsumeUntilFinal(ctx context.Context) ([]agentwire.Event, error) {
	var collected []agentwire.Event

	events, errs := c.ConsumeAll(ctx)
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			collected = append(collected, ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return collected, err
		}
	}
	return collected, nil
}
