// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"fmt"
)

// Event kind wire values.
const (
	EventKindStatusUpdate   = "status-update"
	EventKindArtifactUpdate = "artifact-update"
)

// Event is a transient streaming notification of a status or artifact
// change. Events are never persisted independently of the task they
// describe.
type Event interface {
	EventKind() string
	GetTaskID() string
	// IsFinal reports whether this event terminates its stream.
	IsFinal() bool
	Validate() error
}

// TaskStatusUpdateEvent notifies the caller that a task entered a new
// status. Final marks the last event of a streaming call.
type TaskStatusUpdateEvent struct {
	Kind      string     `json:"kind"`
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId,omitzero"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

// NewStatusUpdateEvent creates a status update event for the given task.
func NewStatusUpdateEvent(task *Task, final bool) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		Kind:      EventKindStatusUpdate,
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Status:    task.Status,
		Final:     final,
	}
}

// EventKind returns the event kind wire value.
func (e *TaskStatusUpdateEvent) EventKind() string { return EventKindStatusUpdate }

// GetTaskID returns the task this event describes.
func (e *TaskStatusUpdateEvent) GetTaskID() string { return e.TaskID }

// IsFinal reports whether this event terminates its stream.
func (e *TaskStatusUpdateEvent) IsFinal() bool { return e.Final }

// Validate ensures the event is valid.
func (e *TaskStatusUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return fmt.Errorf("status update event task ID cannot be empty")
	}
	if err := e.Status.State.Validate(); err != nil {
		return fmt.Errorf("status update event for task %s: %w", e.TaskID, err)
	}
	return nil
}

// TaskArtifactUpdateEvent notifies the caller of a new artifact or
// artifact chunk. LastChunk marks the final fragment of an artifact
// built incrementally, and terminates the stream when the artifact is
// the call's last output.
type TaskArtifactUpdateEvent struct {
	Kind      string    `json:"kind"`
	TaskID    string    `json:"taskId"`
	ContextID string    `json:"contextId,omitzero"`
	Artifact  *Artifact `json:"artifact"`
	LastChunk bool      `json:"lastChunk"`
}

// NewArtifactUpdateEvent creates an artifact update event for the given task.
func NewArtifactUpdateEvent(task *Task, artifact *Artifact, lastChunk bool) *TaskArtifactUpdateEvent {
	return &TaskArtifactUpdateEvent{
		Kind:      EventKindArtifactUpdate,
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Artifact:  artifact,
		LastChunk: lastChunk,
	}
}

// EventKind returns the event kind wire value.
func (e *TaskArtifactUpdateEvent) EventKind() string { return EventKindArtifactUpdate }

// GetTaskID returns the task this event describes.
func (e *TaskArtifactUpdateEvent) GetTaskID() string { return e.TaskID }

// IsFinal reports whether this event terminates its stream.
func (e *TaskArtifactUpdateEvent) IsFinal() bool { return e.LastChunk }

// Validate ensures the event is valid.
func (e *TaskArtifactUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return fmt.Errorf("artifact update event task ID cannot be empty")
	}
	if e.Artifact == nil {
		return fmt.Errorf("artifact update event for task %s: artifact cannot be nil", e.TaskID)
	}
	return e.Artifact.Validate()
}
