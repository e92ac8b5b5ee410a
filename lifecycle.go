// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"fmt"
	"time"
)

// StateDelta is one executor-reported change to fold into a task:
// a target state plus an optional message and artifact.
type StateDelta struct {
	State    TaskState
	Message  *Message
	Artifact *Artifact
}

// validTransitions is the closed transition table of the task state
// machine. Terminal states have no entries.
var validTransitions = map[TaskState][]TaskState{
	TaskStateSubmitted: {
		TaskStateWorking,
		TaskStateInputRequired,
		TaskStateCompleted,
		TaskStateFailed,
		TaskStateCanceled,
	},
	TaskStateWorking: {
		TaskStateWorking,
		TaskStateInputRequired,
		TaskStateCompleted,
		TaskStateFailed,
		TaskStateCanceled,
	},
	TaskStateInputRequired: {
		TaskStateWorking,
		TaskStateFailed,
		TaskStateCanceled,
	},
}

// CanTransition reports whether a task may move from one state to another.
func CanTransition(from, to TaskState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyDelta folds one StateDelta into a task and returns the resulting
// task. The input task is never mutated; given the same inputs the same
// resulting task is always produced, so transitions can be replayed
// deterministically.
//
// The fold rejects transitions out of a terminal state and illegal state
// jumps, appends the delta message to history and the delta artifact to
// artifacts when present, and replaces the task status with the new
// state, the delta message and the supplied timestamp. Entering
// input_required without a message is rejected: the question for the
// caller is mandatory.
func ApplyDelta(task *Task, delta StateDelta, now time.Time) (*Task, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if err := delta.State.Validate(); err != nil {
		return nil, err
	}

	from := task.Status.State
	if from.Terminal() {
		return nil, &InvalidStateTransitionError{TaskID: task.ID, From: from, To: delta.State}
	}
	if !CanTransition(from, delta.State) {
		return nil, &InvalidStateTransitionError{TaskID: task.ID, From: from, To: delta.State}
	}
	if delta.State == TaskStateInputRequired && delta.Message == nil {
		return nil, fmt.Errorf("task %s: input_required requires an explanatory message", task.ID)
	}

	out := task.Clone()

	if delta.Message != nil {
		msg := delta.Message.Clone()
		msg.TaskID = out.ID
		msg.ContextID = out.ContextID
		out.History = append(out.History, msg)
		out.Status.Message = msg
	} else {
		out.Status.Message = nil
	}

	if delta.Artifact != nil {
		out.Artifacts = append(out.Artifacts, delta.Artifact.Clone())
	}

	out.Status.State = delta.State
	out.Status.Timestamp = now
	out.UpdatedAt = now

	return out, nil
}

// DeltaFromEvent converts a streaming event into the StateDelta it
// implies. Artifact updates keep the task in the working state; status
// updates carry their own target state.
func DeltaFromEvent(ev Event) (StateDelta, error) {
	switch ev := ev.(type) {
	case *TaskStatusUpdateEvent:
		return StateDelta{
			State:   ev.Status.State,
			Message: ev.Status.Message,
		}, nil

	case *TaskArtifactUpdateEvent:
		return StateDelta{
			State:    TaskStateWorking,
			Artifact: ev.Artifact,
		}, nil

	default:
		return StateDelta{}, fmt.Errorf("cannot derive state delta from event kind %q", ev.EventKind())
	}
}
