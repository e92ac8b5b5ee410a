// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestTask(t *testing.T, state TaskState) *Task {
	t.Helper()

	task, err := NewTask(NewUserTextMessage("convert 100 USD"), "task-1", "ctx-1")
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	task.Status.State = state
	return task
}

func TestCanTransition(t *testing.T) {
	tests := map[string]struct {
		from TaskState
		to   TaskState
		want bool
	}{
		"submitted to working":          {TaskStateSubmitted, TaskStateWorking, true},
		"submitted to input_required":   {TaskStateSubmitted, TaskStateInputRequired, true},
		"submitted to completed":        {TaskStateSubmitted, TaskStateCompleted, true},
		"working re-entry":              {TaskStateWorking, TaskStateWorking, true},
		"working to canceled":           {TaskStateWorking, TaskStateCanceled, true},
		"input_required to working":     {TaskStateInputRequired, TaskStateWorking, true},
		"input_required to failed":      {TaskStateInputRequired, TaskStateFailed, true},
		"input_required to completed":   {TaskStateInputRequired, TaskStateCompleted, false},
		"completed is terminal":         {TaskStateCompleted, TaskStateWorking, false},
		"failed is terminal":            {TaskStateFailed, TaskStateWorking, false},
		"canceled is terminal":          {TaskStateCanceled, TaskStateWorking, false},
		"canceled to canceled rejected": {TaskStateCanceled, TaskStateCanceled, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestApplyDeltaTerminalRejected(t *testing.T) {
	now := time.Now().UTC()

	for _, state := range []TaskState{TaskStateCompleted, TaskStateFailed, TaskStateCanceled} {
		t.Run(string(state), func(t *testing.T) {
			task := newTestTask(t, state)

			_, err := ApplyDelta(task, StateDelta{State: TaskStateWorking}, now)
			if err == nil {
				t.Fatal("ApplyDelta() on a terminal task should fail")
			}

			var transitionErr *InvalidStateTransitionError
			if !errors.As(err, &transitionErr) {
				t.Fatalf("ApplyDelta() error = %T, want *InvalidStateTransitionError", err)
			}
			if transitionErr.From != state {
				t.Errorf("InvalidStateTransitionError.From = %q, want %q", transitionErr.From, state)
			}
		})
	}
}

func TestApplyDeltaIllegalJump(t *testing.T) {
	now := time.Now().UTC()
	task := newTestTask(t, TaskStateInputRequired)

	_, err := ApplyDelta(task, StateDelta{State: TaskStateCompleted}, now)
	var transitionErr *InvalidStateTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("ApplyDelta() error = %v, want *InvalidStateTransitionError", err)
	}
}

func TestApplyDeltaInputRequiredNeedsMessage(t *testing.T) {
	now := time.Now().UTC()
	task := newTestTask(t, TaskStateWorking)

	if _, err := ApplyDelta(task, StateDelta{State: TaskStateInputRequired}, now); err == nil {
		t.Error("ApplyDelta() entering input_required without a message should fail")
	}

	question := NewAgentTextMessage("In which currency?", task.ID, task.ContextID)
	folded, err := ApplyDelta(task, StateDelta{State: TaskStateInputRequired, Message: question}, now)
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	if folded.Status.Message == nil || folded.Status.Message.Text("") != "In which currency?" {
		t.Errorf("status message = %v, want the clarifying question", folded.Status.Message)
	}
}

func TestApplyDeltaIsPure(t *testing.T) {
	now := time.Now().UTC()
	task := newTestTask(t, TaskStateWorking)
	before := task.Clone()

	delta := StateDelta{
		State:    TaskStateCompleted,
		Message:  NewAgentTextMessage("done", task.ID, task.ContextID),
		Artifact: NewTextArtifact("result", "42"),
	}

	first, err := ApplyDelta(task, delta, now)
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	second, err := ApplyDelta(task, delta, now)
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ApplyDelta() is not deterministic (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, task); diff != "" {
		t.Errorf("ApplyDelta() mutated its input (-before +after):\n%s", diff)
	}
}

func TestApplyDeltaAccumulates(t *testing.T) {
	now := time.Now().UTC()
	task := newTestTask(t, TaskStateWorking)
	task.Artifacts = []*Artifact{NewTextArtifact("partial", "Hello ")}

	answer := NewAgentTextMessage("done", task.ID, task.ContextID)
	folded, err := ApplyDelta(task, StateDelta{
		State:    TaskStateCompleted,
		Message:  answer,
		Artifact: NewTextArtifact("final", "World"),
	}, now)
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}

	if got, want := len(folded.History), len(task.History)+1; got != want {
		t.Errorf("history length = %d, want %d", got, want)
	}
	if got, want := len(folded.Artifacts), 2; got != want {
		t.Errorf("artifacts length = %d, want %d", got, want)
	}
	if folded.Artifacts[0].Name != "partial" {
		t.Errorf("prior artifact was not preserved, got %q", folded.Artifacts[0].Name)
	}
	if folded.Status.State != TaskStateCompleted {
		t.Errorf("state = %q, want %q", folded.Status.State, TaskStateCompleted)
	}
	if !folded.Status.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", folded.Status.Timestamp, now)
	}
}

func TestApplyDeltaClearsStaleStatusMessage(t *testing.T) {
	now := time.Now().UTC()
	task := newTestTask(t, TaskStateInputRequired)
	task.Status.Message = NewAgentTextMessage("In which currency?", task.ID, task.ContextID)

	folded, err := ApplyDelta(task, StateDelta{State: TaskStateWorking}, now)
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	if folded.Status.Message != nil {
		t.Errorf("status message = %v, want nil after a message-less fold", folded.Status.Message)
	}
}

func TestDeltaFromEvent(t *testing.T) {
	task := newTestTask(t, TaskStateWorking)

	statusEv := NewStatusUpdateEvent(task, false)
	statusEv.Status.State = TaskStateCompleted

	artifactEv := NewArtifactUpdateEvent(task, NewTextArtifact("out", "World"), true)

	tests := map[string]struct {
		event        Event
		wantState    TaskState
		wantArtifact bool
	}{
		"status update carries its state": {statusEv, TaskStateCompleted, false},
		"artifact update keeps working":   {artifactEv, TaskStateWorking, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			delta, err := DeltaFromEvent(tt.event)
			if err != nil {
				t.Fatalf("DeltaFromEvent() error = %v", err)
			}
			if delta.State != tt.wantState {
				t.Errorf("delta state = %q, want %q", delta.State, tt.wantState)
			}
			if (delta.Artifact != nil) != tt.wantArtifact {
				t.Errorf("delta artifact presence = %v, want %v", delta.Artifact != nil, tt.wantArtifact)
			}
		})
	}
}
