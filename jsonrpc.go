// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"errors"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// RPC method names.
const (
	// MethodMessageSend sends a message and returns the resulting task
	// (or a bare message when the executor bypasses the task engine).
	MethodMessageSend = "message/send"
	// MethodMessageStream sends a message and streams lifecycle and
	// artifact events back to the caller.
	MethodMessageStream = "message/stream"
	// MethodTasksGet retrieves the current state of a task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel requests cancelation of a task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksResubscribe re-attaches to the event stream of an
	// in-flight task after a dropped connection.
	MethodTasksResubscribe = "tasks/resubscribe"
)

// JSONRPCMessage is the base structure for all JSON-RPC 2.0 messages.
type JSONRPCMessage struct {
	// JSONRPC version, always "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID correlates a request with its response. String or number.
	ID jsontext.Value `json:"id,omitzero"`
}

// NewJSONRPCMessage creates a JSONRPCMessage with the given raw id.
func NewJSONRPCMessage(id jsontext.Value) JSONRPCMessage {
	return JSONRPCMessage{JSONRPC: "2.0", ID: id}
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPCMessage

	// Method identifies the operation to perform.
	Method string `json:"method"`
	// Params contains the undecoded parameters for the method.
	Params jsontext.Value `json:"params,omitzero"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// NewJSONRPCError builds the wire error object for any error. Protocol
// errors keep their code and message; everything else maps to an
// internal error.
func NewJSONRPCError(err error) *JSONRPCError {
	var protoErr Error
	if errors.As(err, &protoErr) {
		return &JSONRPCError{
			Code:    protoErr.Code(),
			Message: protoErr.ErrorMessage(),
			Data:    protoErr.Error(),
		}
	}
	return &JSONRPCError{
		Code:    ErrorCodeInternalError,
		Message: "Internal error",
		Data:    err.Error(),
	}
}

// JSONRPCResponse represents a JSON-RPC 2.0 response. Result and Error
// are mutually exclusive.
type JSONRPCResponse struct {
	JSONRPCMessage

	Result any           `json:"result,omitzero"`
	Error  *JSONRPCError `json:"error,omitzero"`
}

// MessageSendParams are the parameters of message/send and message/stream.
// The message's taskId, when set, continues the existing task.
type MessageSendParams struct {
	Message  *Message       `json:"message"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the params are valid.
func (p *MessageSendParams) Validate() error {
	if p.Message == nil {
		return fmt.Errorf("message cannot be nil")
	}
	return p.Message.Validate()
}

// TaskIDParams identify a task for tasks/cancel and tasks/resubscribe.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the params are valid.
func (p *TaskIDParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	return nil
}

// TaskQueryParams identify a task for tasks/get, optionally limiting the
// returned history length. A zero HistoryLength returns full history.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength int            `json:"historyLength,omitzero"`
	Metadata      map[string]any `json:"metadata,omitzero"`
}

// Validate ensures the params are valid.
func (p *TaskQueryParams) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if p.HistoryLength < 0 {
		return fmt.Errorf("history length cannot be negative")
	}
	return nil
}

// SendMessageResult is the response-shape union of message/send: either
// the resulting task, or a bare message when the executor chose not to
// model the interaction as a task.
type SendMessageResult struct {
	Task    *Task
	Message *Message
}

// MarshalJSON encodes whichever variant is set.
func (r SendMessageResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.Task != nil:
		return json.Marshal(r.Task)
	case r.Message != nil:
		return json.Marshal(r.Message)
	default:
		return nil, fmt.Errorf("send message result has no variant set")
	}
}

// UnmarshalJSON decodes the union, probing for the task-only "status"
// field to pick the variant.
func (r *SendMessageResult) UnmarshalJSON(data []byte) error {
	var probe struct {
		Status    *TaskStatus `json:"status"`
		MessageID string      `json:"messageId"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Status != nil {
		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			return err
		}
		r.Task = &task
		return nil
	}
	if probe.MessageID != "" {
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		r.Message = &msg
		return nil
	}
	return fmt.Errorf("send message result is neither a task nor a message")
}

// Validate ensures exactly one variant is set and valid.
func (r *SendMessageResult) Validate() error {
	switch {
	case r.Task != nil && r.Message != nil:
		return fmt.Errorf("send message result cannot carry both a task and a message")
	case r.Task != nil:
		return r.Task.Validate()
	case r.Message != nil:
		return r.Message.Validate()
	default:
		return fmt.Errorf("send message result has no variant set")
	}
}
