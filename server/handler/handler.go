// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler implements the request router of the server runtime.
// It resolves task context for each inbound call, invokes the agent
// executor, folds executor-reported deltas through the task lifecycle
// engine, and feeds streaming callers through ordered event queues.
package handler

import (
	"context"

	"github.com/agentwire/agentwire"
)

// EventStream is the caller-facing side of one streaming call: an
// ordered sequence of events ending with a final-marked event, and an
// error channel that carries at most one terminal error. Both channels
// are closed when the stream ends.
type EventStream struct {
	TaskID string
	Events <-chan agentwire.Event
	Errs   <-chan error
}

// RequestHandler is the set of logical operations the runtime exposes.
// Wire-level framing is a transport concern; transports decode the
// JSON-RPC envelope and call these methods (see Dispatcher).
type RequestHandler interface {
	// OnSendMessage handles a non-streaming send: resolve or create the
	// task, run the executor once, fold exactly one transition, persist,
	// and return the task — or the executor's bare message when it
	// bypasses the task engine.
	OnSendMessage(ctx context.Context, params *agentwire.MessageSendParams) (*agentwire.SendMessageResult, error)

	// OnStreamMessage handles a streaming send: every executor delta is
	// folded and persisted before the corresponding event is handed to
	// the caller, in producer order, with the last event marked final.
	OnStreamMessage(ctx context.Context, params *agentwire.MessageSendParams) (*EventStream, error)

	// OnGetTask retrieves the current state of a task.
	OnGetTask(ctx context.Context, params *agentwire.TaskQueryParams) (*agentwire.Task, error)

	// OnCancelTask transitions a non-terminal task to canceled and asks
	// the executor to stop in-flight work.
	OnCancelTask(ctx context.Context, params *agentwire.TaskIDParams) (*agentwire.Task, error)

	// OnResubscribe re-attaches a new event stream to an in-flight task
	// after the caller's previous connection dropped.
	OnResubscribe(ctx context.Context, params *agentwire.TaskIDParams) (*EventStream, error)
}
