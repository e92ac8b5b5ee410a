// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides the ordered event pipe between the request
// handler and a streaming caller: a bounded queue with backpressure,
// tappable child queues for resubscription, a consumer that detects the
// end of a stream, and an in-memory queue registry keyed by task ID.
package event

import (
	"errors"
)

// Queue errors.
var (
	// ErrQueueClosed is returned when operating on a closed queue after
	// its buffered events have been drained.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrQueueExists is returned when registering a queue for a task ID
	// that already has one.
	ErrQueueExists = errors.New("event queue already exists for task")

	// ErrNoQueue is returned when no queue is registered for a task ID.
	ErrNoQueue = errors.New("no event queue for task")

	// ErrNilEvent is returned when a nil event is enqueued.
	ErrNilEvent = errors.New("event cannot be nil")
)
