//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package statectx builds and recognizes the state-context system message
// the Run Orchestrator injects at the start of a new user turn (§4.5 step 6).
package statectx

import (
	"encoding/json"
	"strings"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
)

const marker = "Current state of the application:"

// Manager applies schema defaults to a state document and builds the
// state-context message injected before an inner-agent invocation.
type Manager struct {
	schema             adapter.StateSchema
	predictStateConfig map[string]adapter.PredictStateBinding
}

// New creates a Manager for the given state schema and predict-state
// bindings, either of which may be nil.
func New(schema adapter.StateSchema, predictStateConfig map[string]adapter.PredictStateBinding) *Manager {
	return &Manager{schema: schema, predictStateConfig: predictStateConfig}
}

// ApplySchemaDefaults fills state keys declared in the schema but absent
// from state with a zero value matching the schema's declared type: an
// empty array for `{"type":"array"}`, an empty object otherwise.
func (m *Manager) ApplySchemaDefaults(state map[string]any) map[string]any {
	if state == nil {
		state = map[string]any{}
	}
	for key, fragment := range m.schema {
		if _, present := state[key]; present {
			continue
		}
		if fragment["type"] == "array" {
			state[key] = []any{}
		} else {
			state[key] = map[string]any{}
		}
	}
	return state
}

// Message builds the state-context system message, or nil when state
// injection does not apply: there is no schema, no state, this isn't the
// start of a new user turn, or the conversation's tool calls already match
// the current state (ToolCallsMatchState).
func (m *Manager) Message(state map[string]any, isNewUserTurn, toolCallsMatchState bool) *agent.Message {
	if len(state) == 0 || len(m.schema) == 0 {
		return nil
	}
	if !isNewUserTurn || toolCallsMatchState {
		return nil
	}
	stateJSON, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil
	}
	text := marker + "\n" + string(stateJSON) + "\n\n" +
		"When modifying state, you MUST include ALL existing data plus your changes.\n" +
		"For example, if adding one new item to a list, include ALL existing items PLUS the one new item.\n" +
		"Never replace existing data - always preserve and append or merge."
	return &agent.Message{
		Role:     agent.RoleSystem,
		Contents: []agent.ContentItem{{Kind: agent.ContentText, Text: text}},
	}
}

// IsStateContextMessage reports whether msg is a previously-injected
// state-context system message.
func IsStateContextMessage(msg agent.Message) bool {
	if msg.Role != agent.RoleSystem {
		return false
	}
	for _, c := range msg.Contents {
		if c.Kind == agent.ContentText && strings.HasPrefix(c.Text, marker) {
			return true
		}
	}
	return false
}

// ToolCallsMatchState reports whether every predict-state-bound tool call
// found in messages already reflects the given state, so re-injecting the
// state context would be redundant (§4.5 step 6 short-circuit).
func (m *Manager) ToolCallsMatchState(messages []agent.Message, state map[string]any) bool {
	if len(m.predictStateConfig) == 0 || len(state) == 0 {
		return false
	}

	for stateKey, cfg := range m.predictStateConfig {
		toolArgs := latestToolArgs(messages, cfg.Tool)
		if toolArgs == nil {
			return false
		}

		var stateValue any
		if cfg.ToolArgument == "*" {
			stateValue = toolArgs
		} else if v, present := toolArgs[cfg.ToolArgument]; present {
			stateValue = v
		} else {
			return false
		}

		if !equalJSON(state[stateKey], stateValue) {
			return false
		}
	}
	return true
}

func latestToolArgs(messages []agent.Message, toolName string) map[string]any {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != agent.RoleAssistant {
			continue
		}
		for _, c := range msg.Contents {
			if c.Kind == agent.ContentFunctionCall && c.FunctionCall != nil && c.FunctionCall.Name == toolName {
				var parsed map[string]any
				if json.Unmarshal([]byte(c.FunctionCall.Arguments), &parsed) == nil {
					return parsed
				}
				return nil
			}
		}
	}
	return nil
}

func equalJSON(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}

// PendingToolCallIDs returns the set of tool-call IDs in messages that have
// no matching function_result. The result is a map and carries no order.
func PendingToolCallIDs(messages []agent.Message) map[string]bool {
	pending := map[string]bool{}
	for _, msg := range messages {
		for _, c := range msg.Contents {
			switch c.Kind {
			case agent.ContentFunctionCall:
				if c.FunctionCall != nil && c.FunctionCall.CallID != "" {
					pending[c.FunctionCall.CallID] = true
				}
			case agent.ContentFunctionResult:
				if c.FunctionResult != nil {
					delete(pending, c.FunctionResult.CallID)
				}
			}
		}
	}
	return pending
}

// metadataValueLimit is the max rune length a single metadata value may
// carry, guarding against provider-side metadata-size limits (several chat
// providers cap metadata values around this length).
const metadataValueLimit = 512

// BuildSafeMetadata stringifies every value in raw and truncates it to
// metadataValueLimit runes, producing provider-bound metadata from a
// run's thread/run identity plus any forwarded_props/context passed through
// on the Run Input (§ Supplemented Features "build_safe_metadata"). Returns
// nil when raw is empty.
func BuildSafeMetadata(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	safe := make(map[string]any, len(raw))
	for key, value := range raw {
		str, ok := value.(string)
		if !ok {
			b, err := json.Marshal(value)
			if err != nil {
				continue
			}
			str = string(b)
		}
		if runes := []rune(str); len(runes) > metadataValueLimit {
			str = string(runes[:metadataValueLimit])
		}
		safe[key] = str
	}
	return safe
}

// SelectMessagesToRun inserts the state-context message at the correct
// position relative to the latest user turn, dropping any prior
// state-context message first, and skips injection entirely when there are
// unresolved tool calls (§4.5 step 6 / "select_messages_to_run").
func (m *Manager) SelectMessagesToRun(messages []agent.Message, state map[string]any) []agent.Message {
	if len(messages) == 0 {
		return messages
	}

	isNewUserTurn := messages[len(messages)-1].Role == agent.RoleUser
	matches := m.ToolCallsMatchState(messages, state)
	contextMsg := m.Message(state, isNewUserTurn, matches)
	if contextMsg == nil {
		return messages
	}

	filtered := make([]agent.Message, 0, len(messages))
	for _, msg := range messages {
		if IsStateContextMessage(msg) {
			continue
		}
		filtered = append(filtered, msg)
	}
	if len(PendingToolCallIDs(filtered)) > 0 {
		return filtered
	}

	insertIndex := len(filtered)
	if isNewUserTurn {
		insertIndex = len(filtered) - 1
	}
	if insertIndex < 0 {
		insertIndex = 0
	}

	out := make([]agent.Message, 0, len(filtered)+1)
	out = append(out, filtered[:insertIndex]...)
	out = append(out, *contextMsg)
	out = append(out, filtered[insertIndex:]...)
	return out
}
