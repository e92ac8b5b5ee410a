// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/agentwire/agentwire"
)

// StatusColumn stores a TaskStatus as a JSON database column.
type StatusColumn struct {
	agentwire.TaskStatus
}

// Value implements driver.Valuer.
func (c StatusColumn) Value() (driver.Value, error) {
	return json.Marshal(c.TaskStatus)
}

// Scan implements sql.Scanner.
func (c *StatusColumn) Scan(value any) error {
	data, err := columnBytes(value)
	if err != nil {
		return err
	}
	if data == nil {
		*c = StatusColumn{}
		return nil
	}
	return json.Unmarshal(data, &c.TaskStatus)
}

// HistoryColumn stores a message history as a JSON database column.
type HistoryColumn struct {
	Messages []*agentwire.Message
}

// Value implements driver.Valuer.
func (c HistoryColumn) Value() (driver.Value, error) {
	if c.Messages == nil {
		return nil, nil
	}
	return json.Marshal(c.Messages)
}

// Scan implements sql.Scanner.
func (c *HistoryColumn) Scan(value any) error {
	data, err := columnBytes(value)
	if err != nil {
		return err
	}
	if data == nil {
		c.Messages = nil
		return nil
	}
	return json.Unmarshal(data, &c.Messages)
}

// ArtifactsColumn stores artifacts as a JSON database column.
type ArtifactsColumn struct {
	Artifacts []*agentwire.Artifact
}

// Value implements driver.Valuer.
func (c ArtifactsColumn) Value() (driver.Value, error) {
	if c.Artifacts == nil {
		return nil, nil
	}
	return json.Marshal(c.Artifacts)
}

// Scan implements sql.Scanner.
func (c *ArtifactsColumn) Scan(value any) error {
	data, err := columnBytes(value)
	if err != nil {
		return err
	}
	if data == nil {
		c.Artifacts = nil
		return nil
	}
	return json.Unmarshal(data, &c.Artifacts)
}

// MetadataColumn stores task metadata as a JSON database column.
type MetadataColumn struct {
	Metadata map[string]any
}

// Value implements driver.Valuer.
func (c MetadataColumn) Value() (driver.Value, error) {
	if c.Metadata == nil {
		return nil, nil
	}
	return json.Marshal(c.Metadata)
}

// Scan implements sql.Scanner.
func (c *MetadataColumn) Scan(value any) error {
	data, err := columnBytes(value)
	if err != nil {
		return err
	}
	if data == nil {
		c.Metadata = nil
		return nil
	}
	return json.Unmarshal(data, &c.Metadata)
}

func columnBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot scan %T as JSON column", value)
	}
}

// Model is the GORM persistence model for tasks. Structured fields are
// stored as JSON columns so any GORM-supported database works unchanged.
type Model struct {
	ID        string          `gorm:"primaryKey;column:id"`
	ContextID string          `gorm:"index;column:context_id"`
	Status    StatusColumn    `gorm:"column:status"`
	History   HistoryColumn   `gorm:"column:history"`
	Artifacts ArtifactsColumn `gorm:"column:artifacts"`
	Metadata  MetadataColumn  `gorm:"column:metadata"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

// TableName implements the GORM table name convention.
func (Model) TableName() string { return "tasks" }

// NewModelFromTask converts a task to its persistence model.
func NewModelFromTask(task *agentwire.Task) (*Model, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	return &Model{
		ID:        task.ID,
		ContextID: task.ContextID,
		Status:    StatusColumn{TaskStatus: task.Status},
		History:   HistoryColumn{Messages: task.History},
		Artifacts: ArtifactsColumn{Artifacts: task.Artifacts},
		Metadata:  MetadataColumn{Metadata: task.Metadata},
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}, nil
}

// ToTask converts the persistence model back to a task.
func (m *Model) ToTask() (*agentwire.Task, error) {
	task := &agentwire.Task{
		ID:        m.ID,
		ContextID: m.ContextID,
		Status:    m.Status.TaskStatus,
		History:   m.History.Messages,
		Artifacts: m.Artifacts.Artifacts,
		Metadata:  m.Metadata.Metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("stored task %s is invalid: %w", m.ID, err)
	}
	return task, nil
}
