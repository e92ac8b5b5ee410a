// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"fmt"
	"time"
)

// TaskStatus is the current state of a task together with an optional
// explanatory message and the time the state was entered.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Task is the unit of agent work tracked across one or more calls.
//
// A task is created the first time a call arrives without a matching
// existing ID, retrieved and advanced on every subsequent call bearing
// its ID, and never deleted by the core. ID and ContextID are fixed at
// creation. History and Artifacts are append-only; only the lifecycle
// engine mutates a task.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []*Message     `json:"history,omitzero"`
	Artifacts []*Artifact    `json:"artifacts,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
	CreatedAt time.Time      `json:"createdAt,omitzero"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
}

// NewTask creates a task in the submitted state from the initiating
// message. Empty taskID or contextID are filled with generated IDs;
// a contextID supplied by the caller is preserved so that several
// sequential tasks can share one conversation.
func NewTask(message *Message, taskID, contextID string) (*Task, error) {
	if message == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}
	if err := message.Validate(); err != nil {
		return nil, fmt.Errorf("invalid initiating message: %w", err)
	}

	if taskID == "" {
		taskID = generateID()
	}
	if contextID == "" {
		if message.ContextID != "" {
			contextID = message.ContextID
		} else {
			contextID = generateID()
		}
	}

	msg := message.Clone()
	msg.TaskID = taskID
	msg.ContextID = contextID

	now := time.Now().UTC()
	return &Task{
		ID:        taskID,
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: now,
		},
		History:   []*Message{msg},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate ensures the Task is valid.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.ContextID == "" {
		return fmt.Errorf("task context ID cannot be empty")
	}
	if err := t.Status.State.Validate(); err != nil {
		return fmt.Errorf("task %s: %w", t.ID, err)
	}
	for i, msg := range t.History {
		if msg == nil {
			return fmt.Errorf("task %s: history message at index %d cannot be nil", t.ID, i)
		}
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("task %s: history message at index %d is invalid: %w", t.ID, i, err)
		}
	}
	for i, artifact := range t.Artifacts {
		if artifact == nil {
			return fmt.Errorf("task %s: artifact at index %d cannot be nil", t.ID, i)
		}
		if err := artifact.Validate(); err != nil {
			return fmt.Errorf("task %s: artifact at index %d is invalid: %w", t.ID, i, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the task. Stores and the lifecycle engine
// operate on clones so that a caller never observes a partially applied
// mutation.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	out.Status.Message = t.Status.Message.Clone()
	if t.History != nil {
		out.History = make([]*Message, len(t.History))
		for i, msg := range t.History {
			out.History[i] = msg.Clone()
		}
	}
	if t.Artifacts != nil {
		out.Artifacts = make([]*Artifact, len(t.Artifacts))
		for i, artifact := range t.Artifacts {
			out.Artifacts[i] = artifact.Clone()
		}
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
