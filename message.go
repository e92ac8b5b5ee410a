// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"fmt"
)

// Role identifies the sender of a message.
type Role string

// Role values for message senders.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message represents one exchanged message in a task's history.
//
// Final is only meaningful on streaming responses, where it marks the
// last message fragment of one logical reply.
type Message struct {
	Role      Role           `json:"role"`
	Parts     PartList       `json:"parts"`
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitzero"`
	ContextID string         `json:"contextId,omitzero"`
	Final     bool           `json:"final,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// NewUserTextMessage creates a user message containing a single text part.
func NewUserTextMessage(text string) *Message {
	return &Message{
		Role:      RoleUser,
		Parts:     PartList{NewTextPart(text)},
		MessageID: generateID(),
	}
}

// NewAgentTextMessage creates an agent message containing a single text
// part, bound to the given task and context.
func NewAgentTextMessage(text, taskID, contextID string) *Message {
	return &Message{
		Role:      RoleAgent,
		Parts:     PartList{NewTextPart(text)},
		MessageID: generateID(),
		TaskID:    taskID,
		ContextID: contextID,
	}
}

// Validate ensures the Message is valid.
func (m *Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if m.MessageID == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if err := m.Parts.Validate(); err != nil {
		return fmt.Errorf("message %s: %w", m.MessageID, err)
	}
	return nil
}

// Text joins the text content of the message parts with the delimiter.
// An empty delimiter defaults to newline.
func (m *Message) Text(delimiter string) string {
	if delimiter == "" {
		delimiter = "\n"
	}
	return m.Parts.Text(delimiter)
}

// Clone returns a copy of the message with an independent parts slice.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	out.Parts = make(PartList, len(m.Parts))
	copy(out.Parts, m.Parts)
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
