// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"sync"

	"github.com/agentwire/agentwire"
)

// Guard serializes mutation per task ID. All mutating operations for one
// ID funnel through Acquire, so the store always sees a monotonically
// advancing view of that task; a second concurrent caller is rejected
// with agentwire.TaskBusyError rather than interleaved.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{held: make(map[string]struct{})}
}

// Acquire claims the task ID for mutation and returns the release
// function. It fails with agentwire.TaskBusyError when the ID is
// already claimed.
func (g *Guard) Acquire(taskID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[taskID]; busy {
		return nil, &agentwire.TaskBusyError{TaskID: taskID}
	}
	g.held[taskID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.held, taskID)
		})
	}
	return release, nil
}

// Held reports whether the task ID is currently claimed.
func (g *Guard) Held(taskID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.held[taskID]
	return busy
}
