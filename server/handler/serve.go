// Copyright 2026 The AgentWire Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/agentwire/agentwire"
)

// Dispatcher decodes JSON-RPC requests and routes them to a
// RequestHandler. Transports own the wire (HTTP body, SSE framing) and
// hand each decoded envelope here.
type Dispatcher struct {
	handler RequestHandler
}

// NewDispatcher creates a dispatcher over a handler.
func NewDispatcher(handler RequestHandler) *Dispatcher {
	if handler == nil {
		panic("handler cannot be nil")
	}
	return &Dispatcher{handler: handler}
}

// DecodeRequest parses one JSON-RPC request envelope.
func DecodeRequest(data []byte) (*agentwire.JSONRPCRequest, error) {
	var req agentwire.JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &agentwire.JSONParseError{Msg: err.Error()}
	}
	if req.JSONRPC != "2.0" {
		return nil, &agentwire.InvalidRequestError{Msg: "jsonrpc version must be 2.0"}
	}
	if req.Method == "" {
		return nil, &agentwire.InvalidRequestError{Msg: "method is required"}
	}
	return &req, nil
}

// NewResultResponse wraps a result value in a response envelope.
func NewResultResponse(id jsontext.Value, result any) *agentwire.JSONRPCResponse {
	return &agentwire.JSONRPCResponse{
		JSONRPCMessage: agentwire.NewJSONRPCMessage(id),
		Result:         result,
	}
}

// NewErrorResponse wraps an error in a response envelope.
func NewErrorResponse(id jsontext.Value, err error) *agentwire.JSONRPCResponse {
	return &agentwire.JSONRPCResponse{
		JSONRPCMessage: agentwire.NewJSONRPCMessage(id),
		Error:          agentwire.NewJSONRPCError(err),
	}
}

// NewStreamEventResponse wraps one streaming event in a response
// envelope correlated to the originating request. Transports emit one
// such envelope per event (e.g. one SSE data frame each).
func NewStreamEventResponse(id jsontext.Value, ev agentwire.Event) *agentwire.JSONRPCResponse {
	return NewResultResponse(id, ev)
}

func decodeParams[T any](raw jsontext.Value) (*T, error) {
	if len(raw) == 0 {
		return nil, &agentwire.InvalidParamsError{Msg: "params are required"}
	}
	var params T
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &agentwire.InvalidParamsError{Msg: err.Error()}
	}
	return &params, nil
}

// Dispatch routes one request. Unary methods return a response; the
// streaming methods return an EventStream instead, and the transport
// frames each event with NewStreamEventResponse. Exactly one of the two
// return values is non-nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req *agentwire.JSONRPCRequest) (*agentwire.JSONRPCResponse, *EventStream) {
	switch req.Method {
	case agentwire.MethodMessageSend:
		params, err := decodeParams[agentwire.MessageSendParams](req.Params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		result, err := d.handler.OnSendMessage(ctx, params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		return NewResultResponse(req.ID, result), nil

	case agentwire.MethodMessageStream:
		params, err := decodeParams[agentwire.MessageSendParams](req.Params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		stream, err := d.handler.OnStreamMessage(ctx, params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		return nil, stream

	case agentwire.MethodTasksGet:
		params, err := decodeParams[agentwire.TaskQueryParams](req.Params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		task, err := d.handler.OnGetTask(ctx, params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		return NewResultResponse(req.ID, task), nil

	case agentwire.MethodTasksCancel:
		params, err := decodeParams[agentwire.TaskIDParams](req.Params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		task, err := d.handler.OnCancelTask(ctx, params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		return NewResultResponse(req.ID, task), nil

	case agentwire.MethodTasksResubscribe:
		params, err := decodeParams[agentwire.TaskIDParams](req.Params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		stream, err := d.handler.OnResubscribe(ctx, params)
		if err != nil {
			return NewErrorResponse(req.ID, err), nil
		}
		return nil, stream

	default:
		return NewErrorResponse(req.ID, &agentwire.MethodNotFoundError{Method: req.Method}), nil
	}
}
