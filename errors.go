// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package agentwire

import (
	"fmt"
)

// JSON-RPC and protocol-specific error codes.
const (
	ErrorCodeJSONParse      = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603

	ErrorCodeTaskNotFound = -32001
	// ErrorCodeInvalidStateTransition covers any mutation attempted on a
	// terminal task or an illegal state jump, including cancelation of an
	// already-terminal task.
	ErrorCodeInvalidStateTransition       = -32002
	ErrorCodePushNotificationNotSupported = -32003
	ErrorCodeUnsupportedOperation         = -32004
	ErrorCodeContentTypeNotSupported      = -32005
	ErrorCodeTaskBusy                     = -32006
	ErrorCodeExecutorFailure              = -32007
	ErrorCodeUpstreamUnavailable          = -32008
)

// Error is the interface implemented by all protocol errors. Code and
// ErrorMessage map directly onto the JSON-RPC error object.
type Error interface {
	error
	Code() int
	ErrorMessage() string
}

// TaskNotFoundError indicates an operation referenced an unknown task ID.
type TaskNotFoundError struct {
	TaskID string
}

// Error returns the error string.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// Code returns the JSON-RPC error code.
func (e *TaskNotFoundError) Code() int { return ErrorCodeTaskNotFound }

// ErrorMessage returns the wire error message.
func (e *TaskNotFoundError) ErrorMessage() string { return "Task not found" }

// InvalidStateTransitionError indicates a mutation was attempted on a
// terminal task or an illegal state jump was requested.
type InvalidStateTransitionError struct {
	TaskID string
	From   TaskState
	To     TaskState
}

// Error returns the error string.
func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("task %s: invalid state transition from %q to %q", e.TaskID, e.From, e.To)
}

// Code returns the JSON-RPC error code.
func (e *InvalidStateTransitionError) Code() int { return ErrorCodeInvalidStateTransition }

// ErrorMessage returns the wire error message.
func (e *InvalidStateTransitionError) ErrorMessage() string { return "Invalid state transition" }

// TaskBusyError indicates a concurrent mutating call on the same task ID
// was detected; exactly one such call proceeds at a time.
type TaskBusyError struct {
	TaskID string
}

// Error returns the error string.
func (e *TaskBusyError) Error() string {
	return fmt.Sprintf("task busy: %s", e.TaskID)
}

// Code returns the JSON-RPC error code.
func (e *TaskBusyError) Code() int { return ErrorCodeTaskBusy }

// ErrorMessage returns the wire error message.
func (e *TaskBusyError) ErrorMessage() string { return "Task is busy" }

// UnsupportedOperationError indicates the executor or runtime does not
// implement the requested operation.
type UnsupportedOperationError struct {
	Operation string
}

// Error returns the error string.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Operation)
}

// Code returns the JSON-RPC error code.
func (e *UnsupportedOperationError) Code() int { return ErrorCodeUnsupportedOperation }

// ErrorMessage returns the wire error message.
func (e *UnsupportedOperationError) ErrorMessage() string { return "This operation is not supported" }

// ExecutorFailureError indicates the agent executor itself failed. The
// runtime folds it into a failed status transition; it surfaces as an
// RPC-level error only when the fold itself is impossible.
type ExecutorFailureError struct {
	TaskID string
	Cause  error
}

// Error returns the error string.
func (e *ExecutorFailureError) Error() string {
	return fmt.Sprintf("executor failed for task %s: %v", e.TaskID, e.Cause)
}

// Unwrap returns the underlying executor error.
func (e *ExecutorFailureError) Unwrap() error { return e.Cause }

// Code returns the JSON-RPC error code.
func (e *ExecutorFailureError) Code() int { return ErrorCodeExecutorFailure }

// ErrorMessage returns the wire error message.
func (e *ExecutorFailureError) ErrorMessage() string { return "Agent executor failed" }

// UpstreamUnavailableError indicates the task store or another backing
// service is unreachable. It surfaces to the caller as an RPC-level error.
type UpstreamUnavailableError struct {
	Operation string
	Cause     error
}

// Error returns the error string.
func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("upstream unavailable during %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying store error.
func (e *UpstreamUnavailableError) Unwrap() error { return e.Cause }

// Code returns the JSON-RPC error code.
func (e *UpstreamUnavailableError) Code() int { return ErrorCodeUpstreamUnavailable }

// ErrorMessage returns the wire error message.
func (e *UpstreamUnavailableError) ErrorMessage() string { return "Upstream unavailable" }

// JSONParseError indicates the request payload was not valid JSON.
type JSONParseError struct {
	Msg string
}

// Error returns the error string.
func (e *JSONParseError) Error() string {
	return fmt.Sprintf("JSON parse error: %s", e.Msg)
}

// Code returns the JSON-RPC error code.
func (e *JSONParseError) Code() int { return ErrorCodeJSONParse }

// ErrorMessage returns the wire error message.
func (e *JSONParseError) ErrorMessage() string { return "Parse error" }

// InvalidRequestError indicates a malformed request envelope.
type InvalidRequestError struct {
	Msg string
}

// Error returns the error string.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Msg)
}

// Code returns the JSON-RPC error code.
func (e *InvalidRequestError) Code() int { return ErrorCodeInvalidRequest }

// ErrorMessage returns the wire error message.
func (e *InvalidRequestError) ErrorMessage() string { return "Invalid Request" }

// MethodNotFoundError indicates an unknown RPC method.
type MethodNotFoundError struct {
	Method string
}

// Error returns the error string.
func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method not found: %s", e.Method)
}

// Code returns the JSON-RPC error code.
func (e *MethodNotFoundError) Code() int { return ErrorCodeMethodNotFound }

// ErrorMessage returns the wire error message.
func (e *MethodNotFoundError) ErrorMessage() string { return "Method not found" }

// InvalidParamsError indicates structurally invalid request parameters.
type InvalidParamsError struct {
	Msg string
}

// Error returns the error string.
func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid params: %s", e.Msg)
}

// Code returns the JSON-RPC error code.
func (e *InvalidParamsError) Code() int { return ErrorCodeInvalidParams }

// ErrorMessage returns the wire error message.
func (e *InvalidParamsError) ErrorMessage() string { return "Invalid params" }

// InternalError indicates an unexpected server-side failure.
type InternalError struct {
	Msg string
}

// Error returns the error string.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Msg)
}

// Code returns the JSON-RPC error code.
func (e *InternalError) Code() int { return ErrorCodeInternalError }

// ErrorMessage returns the wire error message.
func (e *InternalError) ErrorMessage() string { return "Internal error" }
