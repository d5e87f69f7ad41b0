//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package adapter converts between AG-UI wire messages and the inner
// agent's internal message form, and sanitizes/deduplicates message history
// so downstream model providers see a consistent tool-call/result ordering.
package adapter

import "encoding/json"

// ToolCall is the wire form of a tool call attached to an assistant message.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction is the {name, arguments} pair inside a ToolCall.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// WireMessage is one AG-UI message as carried on the wire.
type WireMessage struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolSpec is a client-declared tool from the Run Input's tools list.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// PredictStateBinding maps one state key to the tool/argument pair that
// predictively updates it while the tool's arguments stream in.
type PredictStateBinding struct {
	Tool         string `json:"tool"`
	ToolArgument string `json:"tool_argument"`
}

// RunInput is the AG-UI request envelope (§3 Run Input / §6 wire shape).
type RunInput struct {
	ThreadID          string                         `json:"thread_id"`
	RunID             string                         `json:"run_id"`
	Messages          []WireMessage                  `json:"messages"`
	State             map[string]any                 `json:"state"`
	Tools             []ToolSpec                     `json:"tools,omitempty"`
	PredictStateConfig map[string]PredictStateBinding `json:"predict_state_config,omitempty"`
	Context           map[string]any                 `json:"context,omitempty"`
	ForwardedProps    map[string]any                 `json:"forwarded_props,omitempty"`
	ParentRunID       string                         `json:"parent_run_id,omitempty"`
}

// StateSchema, when non-nil, supplies the JSON Schema fragments used for
// schema-default application (§3 lifecycles) and structured-output key
// selection (§4.5 step 9). It is supplied out-of-band by the host (the
// inner agent owns its schema), not by the wire Run Input.
type StateSchema map[string]map[string]any

// parseApprovalPayload attempts to read a tool-role message's content as an
// approval-response payload: JSON object carrying at least "accepted".
func parseApprovalPayload(content string) (map[string]any, bool) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, false
	}
	if _, ok := payload["accepted"]; !ok {
		return nil, false
	}
	return payload, true
}
