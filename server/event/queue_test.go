// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/agentwire/agentwire"
)

func statusEvent(taskID string, state agentwire.TaskState, final bool) *agentwire.TaskStatusUpdateEvent {
	return &agentwire.TaskStatusUpdateEvent{
		Kind:   agentwire.EventKindStatusUpdate,
		TaskID: taskID,
		Status: agentwire.TaskStatus{State: state},
		Final:  final,
	}
}

func TestQueuePreservesOrder(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(16)

	want := []agentwire.TaskState{
		agentwire.TaskStateWorking,
		agentwire.TaskStateWorking,
		agentwire.TaskStateCompleted,
	}
	for i, state := range want {
		ev := statusEvent("task-1", state, i == len(want)-1)
		if err := queue.Enqueue(ctx, ev); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	for i, state := range want {
		ev, err := queue.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue() error = %v", err)
		}
		statusEv, ok := ev.(*agentwire.TaskStatusUpdateEvent)
		if !ok {
			t.Fatalf("Dequeue() event = %T, want *TaskStatusUpdateEvent", ev)
		}
		if statusEv.Status.State != state {
			t.Errorf("event %d state = %q, want %q", i, statusEv.Status.State, state)
		}
		if statusEv.IsFinal() != (i == len(want)-1) {
			t.Errorf("event %d final = %v", i, statusEv.IsFinal())
		}
	}
}

func TestQueueRejectsInvalidEnqueue(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(1)

	if err := queue.Enqueue(ctx, nil); !errors.Is(err, ErrNilEvent) {
		t.Errorf("Enqueue(nil) error = %v, want ErrNilEvent", err)
	}
	if err := queue.Enqueue(ctx, statusEvent("", agentwire.TaskStateWorking, false)); err == nil {
		t.Error("Enqueue() with an invalid event should fail")
	}
}

func TestQueueDrainsBufferedEventsAfterClose(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(4)

	if err := queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateWorking, false)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateCompleted, true)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := queue.Close(); err != nil {
		t.Fatalf("second Close() error = %v, want idempotent close", err)
	}
	if err := queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateWorking, false)); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue() after close error = %v, want ErrQueueClosed", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := queue.Dequeue(ctx); err != nil {
			t.Fatalf("Dequeue() of buffered event %d error = %v", i, err)
		}
	}
	if _, err := queue.Dequeue(ctx); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Dequeue() on drained closed queue error = %v, want ErrQueueClosed", err)
	}
}

func TestQueueEnqueueBlocksWhenFull(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(1)

	if err := queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateWorking, false)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	blockedCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	err := queue.Enqueue(blockedCtx, statusEvent("task-1", agentwire.TaskStateWorking, false))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Enqueue() on a full queue error = %v, want context.DeadlineExceeded", err)
	}
}

func TestQueueBackpressureReleasesOnDequeue(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(1)

	if err := queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateWorking, false)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	unblocked := make(chan error, 1)
	go func() {
		unblocked <- queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateCompleted, true))
	}()

	if _, err := queue.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}

	select {
	case err := <-unblocked:
		if err != nil {
			t.Errorf("blocked Enqueue() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue() stayed blocked after a Dequeue freed capacity")
	}
}

func TestQueueTapReceivesSubsequentEvents(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(8)

	if err := queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateWorking, false)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	tap := queue.Tap()
	if err := queue.Enqueue(ctx, statusEvent("task-1", agentwire.TaskStateCompleted, true)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	ev, err := tap.Dequeue(ctx)
	if err != nil {
		t.Fatalf("tap Dequeue() error = %v", err)
	}
	if !ev.IsFinal() {
		t.Error("tap must only observe events enqueued after attachment")
	}

	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := tap.Dequeue(ctx); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("tap Dequeue() after parent close error = %v, want ErrQueueClosed", err)
	}
}

func TestQueueTapOnClosedQueue(t *testing.T) {
	queue := NewQueue(1)
	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tap := queue.Tap()
	if !tap.IsClosed() {
		t.Error("Tap() on a closed queue must return a closed child")
	}
}

func TestInMemoryManager(t *testing.T) {
	manager := NewInMemoryManager(WithQueueSize(4))

	queue, err := manager.Create("task-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := queue.Cap(); got != 4 {
		t.Errorf("queue capacity = %d, want 4", got)
	}

	if _, err := manager.Create("task-1"); !errors.Is(err, ErrQueueExists) {
		t.Errorf("duplicate Create() error = %v, want ErrQueueExists", err)
	}
	if got := manager.Get("task-1"); got != queue {
		t.Error("Get() should return the registered queue")
	}
	if tap := manager.Tap("task-1"); tap == nil {
		t.Error("Tap() on a live queue should return a child")
	}
	if tap := manager.Tap("missing"); tap != nil {
		t.Error("Tap() on an unknown task should return nil")
	}

	if err := manager.Close("task-1"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !queue.IsClosed() {
		t.Error("manager Close() must close the queue")
	}
	if err := manager.Close("task-1"); !errors.Is(err, ErrNoQueue) {
		t.Errorf("Close() on a removed task error = %v, want ErrNoQueue", err)
	}
}

func TestQueueConcurrentProducersDistinctTasks(t *testing.T) {
	ctx := context.Background()
	manager := NewInMemoryManager()

	const tasks = 8
	done := make(chan error, tasks)
	for i := 0; i < tasks; i++ {
		taskID := fmt.Sprintf("task-%d", i)
		queue, err := manager.Create(taskID)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", taskID, err)
		}
		go func() {
			if err := queue.Enqueue(ctx, statusEvent(taskID, agentwire.TaskStateCompleted, true)); err != nil {
				done <- err
				return
			}
			_, err := queue.Dequeue(ctx)
			done <- err
		}()
	}

	for i := 0; i < tasks; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent task %d error = %v", i, err)
		}
	}
}
