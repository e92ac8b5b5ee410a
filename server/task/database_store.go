// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/agentwire/agentwire"
)

// DatabaseStore is a Store backed by a GORM-managed database. Each Save
// is a single-row upsert, so readers always observe a complete task.
type DatabaseStore struct {
	db *gorm.DB
}

var _ Store = (*DatabaseStore)(nil)

// DatabaseStoreConfig holds configuration for a DatabaseStore.
type DatabaseStoreConfig struct {
	// DB is the GORM connection; the driver is the caller's choice.
	DB *gorm.DB
	// Migrate creates or updates the tasks table on startup.
	Migrate bool
}

// NewDatabaseStore creates a DatabaseStore over an existing connection.
func NewDatabaseStore(config DatabaseStoreConfig) (*DatabaseStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	if config.Migrate {
		if err := config.DB.AutoMigrate(&Model{}); err != nil {
			return nil, fmt.Errorf("failed to migrate tasks table: %w", err)
		}
	}

	return &DatabaseStore{db: config.DB}, nil
}

// Save upserts the task by ID.
func (s *DatabaseStore) Save(ctx context.Context, task *agentwire.Task) error {
	model, err := NewModelFromTask(task)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return &agentwire.UpstreamUnavailableError{Operation: "save", Cause: err}
	}
	return nil
}

// Get retrieves a task by ID.
func (s *DatabaseStore) Get(ctx context.Context, taskID string) (*agentwire.Task, error) {
	if taskID == "" {
		return nil, &agentwire.TaskNotFoundError{TaskID: taskID}
	}

	var model Model
	err := s.db.WithContext(ctx).Where("id = ?", taskID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &agentwire.TaskNotFoundError{TaskID: taskID}
		}
		return nil, &agentwire.UpstreamUnavailableError{Operation: "get", Cause: err}
	}

	return model.ToTask()
}

// Delete removes a task by ID.
func (s *DatabaseStore) Delete(ctx context.Context, taskID string) error {
	err := s.db.WithContext(ctx).Where("id = ?", taskID).Delete(&Model{}).Error
	if err != nil {
		return &agentwire.UpstreamUnavailableError{Operation: "delete", Cause: err}
	}
	return nil
}
