//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package statectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
)

func schema() adapter.StateSchema {
	return adapter.StateSchema{
		"recipe": {"type": "object"},
		"items":  {"type": "array"},
	}
}

func TestApplySchemaDefaults(t *testing.T) {
	m := New(schema(), nil)
	state := m.ApplySchemaDefaults(map[string]any{"recipe": map[string]any{"title": "Soup"}})
	assert.Equal(t, map[string]any{"title": "Soup"}, state["recipe"])
	assert.Equal(t, []any{}, state["items"])
}

func TestMessage_NilWhenNoSchemaOrState(t *testing.T) {
	m := New(nil, nil)
	assert.Nil(t, m.Message(map[string]any{"recipe": map[string]any{}}, true, false))

	m = New(schema(), nil)
	assert.Nil(t, m.Message(nil, true, false))
}

func TestMessage_NilWhenNotNewTurnOrAlreadyMatching(t *testing.T) {
	m := New(schema(), nil)
	state := map[string]any{"recipe": map[string]any{"title": "Soup"}}

	assert.Nil(t, m.Message(state, false, false))
	assert.Nil(t, m.Message(state, true, true))
}

func TestMessage_BuildsVerbatimText(t *testing.T) {
	m := New(schema(), nil)
	state := map[string]any{"recipe": map[string]any{"title": "Soup"}}

	msg := m.Message(state, true, false)
	require.NotNil(t, msg)
	assert.Equal(t, agent.RoleSystem, msg.Role)
	require.Len(t, msg.Contents, 1)
	text := msg.Contents[0].Text
	assert.Contains(t, text, "Current state of the application:")
	assert.Contains(t, text, "When modifying state, you MUST include ALL existing data plus your changes.")
	assert.Contains(t, text, "Never replace existing data - always preserve and append or merge.")
}

func TestIsStateContextMessage(t *testing.T) {
	m := New(schema(), nil)
	msg := m.Message(map[string]any{"recipe": map[string]any{}}, true, false)
	require.NotNil(t, msg)
	assert.True(t, IsStateContextMessage(*msg))

	assert.False(t, IsStateContextMessage(agent.Message{
		Role:     agent.RoleSystem,
		Contents: []agent.ContentItem{{Kind: agent.ContentText, Text: "unrelated"}},
	}))
}

func TestToolCallsMatchState(t *testing.T) {
	cfg := map[string]adapter.PredictStateBinding{"recipe": {Tool: "update_recipe", ToolArgument: "*"}}
	m := New(schema(), cfg)

	messages := []agent.Message{{
		Role: agent.RoleAssistant,
		Contents: []agent.ContentItem{{
			Kind:         agent.ContentFunctionCall,
			FunctionCall: &agent.FunctionCall{Name: "update_recipe", Arguments: `{"title":"Soup"}`},
		}},
	}}
	state := map[string]any{"recipe": map[string]any{"title": "Soup"}}
	assert.True(t, m.ToolCallsMatchState(messages, state))

	mismatched := map[string]any{"recipe": map[string]any{"title": "Salad"}}
	assert.False(t, m.ToolCallsMatchState(messages, mismatched))
}

func TestPendingToolCallIDs(t *testing.T) {
	messages := []agent.Message{
		{Role: agent.RoleAssistant, Contents: []agent.ContentItem{
			{Kind: agent.ContentFunctionCall, FunctionCall: &agent.FunctionCall{CallID: "call-1"}},
		}},
		{Role: agent.RoleTool, Contents: []agent.ContentItem{
			{Kind: agent.ContentFunctionResult, FunctionResult: &agent.FunctionResult{CallID: "call-1"}},
		}},
		{Role: agent.RoleAssistant, Contents: []agent.ContentItem{
			{Kind: agent.ContentFunctionCall, FunctionCall: &agent.FunctionCall{CallID: "call-2"}},
		}},
	}
	pending := PendingToolCallIDs(messages)
	assert.Len(t, pending, 1)
	assert.True(t, pending["call-2"])
}

func TestSelectMessagesToRun_InsertsBeforeLatestUserMessage(t *testing.T) {
	m := New(schema(), nil)
	state := map[string]any{"recipe": map[string]any{"title": "Soup"}}

	messages := []agent.Message{
		{Role: agent.RoleAssistant, Contents: []agent.ContentItem{{Kind: agent.ContentText, Text: "hi"}}},
		{Role: agent.RoleUser, Contents: []agent.ContentItem{{Kind: agent.ContentText, Text: "update it"}}},
	}
	out := m.SelectMessagesToRun(messages, state)
	require.Len(t, out, 3)
	assert.True(t, IsStateContextMessage(out[1]))
	assert.Equal(t, agent.RoleUser, out[2].Role)
}

func TestSelectMessagesToRun_SkipsWhenPendingToolCalls(t *testing.T) {
	m := New(schema(), nil)
	state := map[string]any{"recipe": map[string]any{"title": "Soup"}}

	messages := []agent.Message{
		{Role: agent.RoleAssistant, Contents: []agent.ContentItem{
			{Kind: agent.ContentFunctionCall, FunctionCall: &agent.FunctionCall{CallID: "call-1", Name: "lookup"}},
		}},
		{Role: agent.RoleUser, Contents: []agent.ContentItem{{Kind: agent.ContentText, Text: "go"}}},
	}
	out := m.SelectMessagesToRun(messages, state)
	for _, msg := range out {
		assert.False(t, IsStateContextMessage(msg))
	}
}
