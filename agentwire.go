// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentwire provides the protocol types and task lifecycle engine
// for the Agent-to-Agent (A2A) task execution and streaming protocol.
//
// The package defines the Task data model, the closed set of task states
// and the pure transition function over them, the streaming event types,
// the JSON-RPC payload shapes, and the protocol error taxonomy. The
// server-side runtime that drives these types lives under server/.
package agentwire

import (
	"fmt"

	"github.com/google/uuid"
)

// Version is the protocol version implemented by this module.
const Version = "0.3.0"

// AgentCardWellKnownPath is the well-known HTTP path at which an agent
// publishes its discovery document.
const AgentCardWellKnownPath = "/.well-known/agent.json"

// TaskState represents the lifecycle state of a Task.
//
// The string values are the exact wire values expected by clients.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received but the
	// executor has not started producing output.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the executor is producing output.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the executor needs more input from
	// the client before it can continue. The accompanying status message
	// explains what is needed.
	TaskStateInputRequired TaskState = "input_required"

	// TaskStateCompleted indicates the task finished successfully. Terminal.
	TaskStateCompleted TaskState = "completed"

	// TaskStateFailed indicates the task finished with an error. Terminal.
	TaskStateFailed TaskState = "failed"

	// TaskStateCanceled indicates the task was canceled via the cancel
	// operation. Terminal.
	TaskStateCanceled TaskState = "canceled"
)

// Terminal reports whether the state accepts no further transitions.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	default:
		return false
	}
}

// Validate ensures the TaskState is one of the closed enumeration values.
func (s TaskState) Validate() error {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return nil
	default:
		return fmt.Errorf("invalid task state: %q", s)
	}
}

// generateID returns a new random identifier for tasks, contexts,
// messages and artifacts.
func generateID() string {
	return uuid.NewString()
}
