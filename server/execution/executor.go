// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"fmt"

	"github.com/agentwire/agentwire"
	"github.com/agentwire/agentwire/server/event"
)

// SendResult is what an executor reports for a non-streaming send.
// Exactly one variant is used: a bare Message bypasses the task engine
// entirely and is returned to the caller as-is; otherwise Delta is
// folded into the task as exactly one lifecycle transition.
type SendResult struct {
	Message *agentwire.Message
	Delta   agentwire.StateDelta
}

// Validate ensures the result carries a usable variant.
func (r *SendResult) Validate() error {
	if r == nil {
		return fmt.Errorf("send result cannot be nil")
	}
	if r.Message != nil {
		return r.Message.Validate()
	}
	return r.Delta.State.Validate()
}

// AgentExecutor is the pluggable unit containing the agent's actual
// reasoning. Concrete executors are selected at startup, not per call.
//
// StreamMessage and Resubscribe yield a finite, ordered sequence of
// events into the queue and return when the reasoning completes; the
// last yielded event must be marked final (or lastChunk). Cancellation
// is cooperative: a canceled context means stop yielding promptly.
//
// Cancel and Resubscribe are optional; executors that do not implement
// them return agentwire.UnsupportedOperationError.
type AgentExecutor interface {
	// SendMessage handles one non-streaming call and reports either a
	// bare message or a single lifecycle delta.
	SendMessage(ctx context.Context, reqCtx *RequestContext) (*SendResult, error)

	// StreamMessage handles one streaming call, enqueueing status and
	// artifact events as the work progresses.
	StreamMessage(ctx context.Context, reqCtx *RequestContext, queue *event.Queue) error

	// Cancel asks the executor to stop in-flight work for the task.
	Cancel(ctx context.Context, taskID string) error

	// Resubscribe replays or resumes the event sequence of an in-flight
	// task into a fresh queue.
	Resubscribe(ctx context.Context, taskID string, queue *event.Queue) error
}

// UnsupportedExecutorBase provides UnsupportedOperation defaults for the
// optional executor operations. Embed it in executors that only
// implement the send paths.
type UnsupportedExecutorBase struct{}

// Cancel reports the operation as unsupported.
func (UnsupportedExecutorBase) Cancel(ctx context.Context, taskID string) error {
	return &agentwire.UnsupportedOperationError{Operation: "cancel"}
}

// Resubscribe reports the operation as unsupported.
func (UnsupportedExecutorBase) Resubscribe(ctx context.Context, taskID string, queue *event.Queue) error {
	return &agentwire.UnsupportedOperationError{Operation: "resubscribe"}
}
