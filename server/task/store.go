// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task persistence and per-task mutation
// serialization for the server runtime.
package task

import (
	"context"
	"sync"

	"github.com/agentwire/agentwire"
)

// Store is the persistence boundary for tasks. Save is an atomic upsert
// by task ID: a concurrent reader never observes a partially written
// task. The store never mutates task content.
type Store interface {
	// Save upserts the task by ID, overwriting any prior value.
	Save(ctx context.Context, task *agentwire.Task) error

	// Get retrieves a task by ID. Unknown IDs fail with
	// agentwire.TaskNotFoundError.
	Get(ctx context.Context, taskID string) (*agentwire.Task, error)

	// Delete removes a task by ID. Retention is a store concern; the
	// core runtime never calls Delete.
	Delete(ctx context.Context, taskID string) error
}

// InMemoryStore is a Store backed by a map. Tasks are cloned on the way
// in and out, so callers always hold consistent snapshots.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*agentwire.Task
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*agentwire.Task),
	}
}

// Save upserts the task by ID.
func (s *InMemoryStore) Save(ctx context.Context, task *agentwire.Task) error {
	if task == nil {
		return &agentwire.InternalError{Msg: "task cannot be nil"}
	}
	if err := task.Validate(); err != nil {
		return err
	}

	clone := task.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = clone
	return nil
}

// Get retrieves a snapshot of the task by ID.
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*agentwire.Task, error) {
	if taskID == "" {
		return nil, &agentwire.TaskNotFoundError{TaskID: taskID}
	}

	s.mu.RLock()
	task, ok := s.tasks[taskID]
	s.mu.RUnlock()

	if !ok {
		return nil, &agentwire.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// Delete removes the task by ID. Deleting an unknown ID is not an error.
func (s *InMemoryStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
	return nil
}

// Len returns the number of stored tasks.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
