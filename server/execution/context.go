// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

// Package execution defines the contract between the request handler and
// the pluggable agent executor that contains the agent's actual
// reasoning.
package execution

import (
	"github.com/agentwire/agentwire"
)

// RequestContext carries the information an executor needs to act on one
// inbound call: the request parameters, the resolved task and context
// identifiers, and the current task when the call continues an existing
// one.
type RequestContext struct {
	params    *agentwire.MessageSendParams
	taskID    string
	contextID string
	task      *agentwire.Task
}

// NewRequestContext builds a RequestContext. When a current task is
// given, its identifiers win over the supplied ones.
func NewRequestContext(params *agentwire.MessageSendParams, taskID, contextID string, current *agentwire.Task) *RequestContext {
	if current != nil {
		taskID = current.ID
		contextID = current.ContextID
	}
	return &RequestContext{
		params:    params,
		taskID:    taskID,
		contextID: contextID,
		task:      current,
	}
}

// Params returns the inbound request parameters.
func (rc *RequestContext) Params() *agentwire.MessageSendParams {
	return rc.params
}

// Message returns the inbound message, or nil.
func (rc *RequestContext) Message() *agentwire.Message {
	if rc.params == nil {
		return nil
	}
	return rc.params.Message
}

// TaskID returns the ID of the task this call acts on.
func (rc *RequestContext) TaskID() string { return rc.taskID }

// ContextID returns the conversation context ID.
func (rc *RequestContext) ContextID() string { return rc.contextID }

// CurrentTask returns the existing task being continued, or nil on
// first contact. Its accumulated history is the executor's context for
// multi-turn continuation.
func (rc *RequestContext) CurrentTask() *agentwire.Task { return rc.task }

// UserInput extracts the text content of the inbound message parts,
// joined with the delimiter. An empty delimiter defaults to newline.
func (rc *RequestContext) UserInput(delimiter string) string {
	msg := rc.Message()
	if msg == nil {
		return ""
	}
	return msg.Text(delimiter)
}
