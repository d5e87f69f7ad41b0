//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package adapter

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/agui-bridge/agui-run/agent"
)

// Adapter converts between AG-UI wire messages and the inner agent's
// internal message form (§4.1).
type Adapter interface {
	// ToInternal produces the normalized message sequence the inner agent
	// consumes, after tool-ordering sanitization and deduplication.
	ToInternal(wire []WireMessage) []agent.Message
	// FromInternal is the inverse, used to assemble newly produced
	// messages into the wire form for a MessagesSnapshot.
	FromInternal(messages []agent.Message) []WireMessage
}

// New creates the default Message Adapter.
func New() Adapter {
	return &adapter{}
}

type adapter struct{}

// ToInternal implements Adapter.
func (adapter) ToInternal(wire []WireMessage) []agent.Message {
	internal := make([]agent.Message, 0, len(wire))
	for _, w := range wire {
		internal = append(internal, toInternal(w, internal))
	}
	internal = sanitizeToolHistory(internal)
	internal = deduplicate(internal)
	return internal
}

// FromInternal implements Adapter.
func (adapter) FromInternal(messages []agent.Message) []WireMessage {
	out := make([]WireMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, fromInternal(m)...)
	}
	return out
}

// fromInternal converts one internal message back to its wire form. An
// assistant message with function calls becomes one wire message with a
// toolCalls array (plus content, if any text accompanied it); a
// function_result becomes a tool-role wire message; anything else becomes a
// plain text wire message.
func fromInternal(msg agent.Message) []WireMessage {
	var text string
	var toolCalls []ToolCall
	var results []WireMessage

	for _, c := range msg.Contents {
		switch c.Kind {
		case agent.ContentText, agent.ContentTextReasoning:
			text += c.Text
		case agent.ContentFunctionCall:
			if c.FunctionCall == nil {
				continue
			}
			toolCalls = append(toolCalls, ToolCall{
				ID:   c.FunctionCall.CallID,
				Type: "function",
				Function: ToolCallFunction{
					Name:      c.FunctionCall.Name,
					Arguments: c.FunctionCall.Arguments,
				},
			})
		case agent.ContentFunctionResult:
			if c.FunctionResult == nil {
				continue
			}
			results = append(results, WireMessage{
				ID:         uuid.NewString(),
				Role:       string(agent.RoleTool),
				Content:    stringPtr(serializeResult(c.FunctionResult.Result)),
				ToolCallID: c.FunctionResult.CallID,
			})
		}
	}

	if len(results) > 0 {
		return results
	}

	wire := WireMessage{ID: uuid.NewString(), Role: string(msg.Role)}
	if text != "" {
		wire.Content = stringPtr(text)
	}
	if len(toolCalls) > 0 {
		wire.ToolCalls = toolCalls
	}
	return []WireMessage{wire}
}

func serializeResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	b, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(b)
}

func stringPtr(s string) *string {
	return &s
}
