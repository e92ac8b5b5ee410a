// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"sync"
)

// Manager tracks the live event queue of each in-flight streaming task.
type Manager interface {
	// Create makes and registers a fresh queue for a task. Fails with
	// ErrQueueExists if the task already has one.
	Create(taskID string) (*Queue, error)

	// Add registers the queue for a task. Fails with ErrQueueExists if
	// the task already has one.
	Add(taskID string, queue *Queue) error

	// Get returns the live queue for a task, or nil if none is registered.
	Get(taskID string) *Queue

	// Tap attaches a child queue to a task's live queue for
	// resubscription. Returns nil if the task has no live queue.
	Tap(taskID string) *Queue

	// Close closes and removes the queue for a task. Fails with
	// ErrNoQueue if none is registered.
	Close(taskID string) error
}

// InMemoryManager is a Manager backed by a map; suitable for
// single-instance deployments.
type InMemoryManager struct {
	mu        sync.RWMutex
	queues    map[string]*Queue
	queueSize int
}

var _ Manager = (*InMemoryManager)(nil)

// InMemoryManagerOption configures an InMemoryManager.
type InMemoryManagerOption func(*InMemoryManager)

// WithQueueSize sets the buffer size for queues created by the manager.
func WithQueueSize(size int) InMemoryManagerOption {
	return func(m *InMemoryManager) {
		m.queueSize = size
	}
}

// NewInMemoryManager creates an empty in-memory queue manager.
func NewInMemoryManager(opts ...InMemoryManagerOption) *InMemoryManager {
	m := &InMemoryManager{
		queues:    make(map[string]*Queue),
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create makes and registers a fresh queue for a task.
func (m *InMemoryManager) Create(taskID string) (*Queue, error) {
	queue := NewQueue(m.queueSize)
	if err := m.Add(taskID, queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// Add registers the queue for a task.
func (m *InMemoryManager) Add(taskID string, queue *Queue) error {
	if taskID == "" || queue == nil {
		return ErrNoQueue
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.queues[taskID]; exists {
		return ErrQueueExists
	}
	m.queues[taskID] = queue
	return nil
}

// Get returns the live queue for a task, or nil.
func (m *InMemoryManager) Get(taskID string) *Queue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queues[taskID]
}

// Tap attaches a child queue to a task's live queue.
func (m *InMemoryManager) Tap(taskID string) *Queue {
	m.mu.RLock()
	queue := m.queues[taskID]
	m.mu.RUnlock()

	if queue == nil {
		return nil
	}
	return queue.Tap()
}

// Close closes and removes the queue for a task.
func (m *InMemoryManager) Close(taskID string) error {
	m.mu.Lock()
	queue, exists := m.queues[taskID]
	delete(m.queues, taskID)
	m.mu.Unlock()

	if !exists {
		return ErrNoQueue
	}
	return queue.Close()
}
