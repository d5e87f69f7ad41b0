//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package translator

import (
	"testing"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/predictive"
)

func newBridge() (*Bridge, *RunState) {
	state := NewRunState(map[string]any{})
	b := New(state, predictive.New(nil))
	return b, state
}

func TestProcessContent_PlainText(t *testing.T) {
	b, state := newBridge()

	events := b.ProcessContent(agent.ContentItem{Kind: agent.ContentText, Text: "Hello"})
	require.Len(t, events, 2)
	start, ok := events[0].(*aguievents.TextMessageStartEvent)
	require.True(t, ok)
	assert.NotEmpty(t, start.MessageID)
	content, ok := events[1].(*aguievents.TextMessageContentEvent)
	require.True(t, ok)
	assert.Equal(t, "Hello", content.Delta)
	assert.Equal(t, "Hello", state.AccumulatedText)

	// A second chunk on the same message reuses the id, no new Start.
	events = b.ProcessContent(agent.ContentItem{Kind: agent.ContentText, Text: " world"})
	require.Len(t, events, 1)
	_, ok = events[0].(*aguievents.TextMessageContentEvent)
	require.True(t, ok)
}

func TestProcessContent_TextSuppressedWhileWaitingForApproval(t *testing.T) {
	b, state := newBridge()
	state.WaitingForApproval = true

	events := b.ProcessContent(agent.ContentItem{Kind: agent.ContentText, Text: "Hello"})
	assert.Empty(t, events)
}

func TestProcessContent_FunctionCallStartAndArgs(t *testing.T) {
	b, state := newBridge()

	events := b.ProcessContent(agent.ContentItem{
		Kind:         agent.ContentFunctionCall,
		FunctionCall: &agent.FunctionCall{CallID: "call-1", Name: "lookup", Arguments: `{"q":"foo"}`},
	})
	require.Len(t, events, 2)
	start, ok := events[0].(*aguievents.ToolCallStartEvent)
	require.True(t, ok)
	assert.Equal(t, "call-1", start.ToolCallID)
	assert.Equal(t, "lookup", start.ToolCallName)
	args, ok := events[1].(*aguievents.ToolCallArgsEvent)
	require.True(t, ok)
	assert.Equal(t, `{"q":"foo"}`, args.Delta)
	assert.Equal(t, "call-1", state.ToolCallID)

	// A continuation chunk for the same call id emits only args, no new Start.
	events = b.ProcessContent(agent.ContentItem{
		Kind:         agent.ContentFunctionCall,
		FunctionCall: &agent.FunctionCall{CallID: "call-1", Arguments: `more`},
	})
	require.Len(t, events, 1)
	_, ok = events[0].(*aguievents.ToolCallArgsEvent)
	assert.True(t, ok)
}

func TestProcessContent_FunctionResultEndsCallAndResetsMessage(t *testing.T) {
	b, state := newBridge()
	state.MessageID = "msg-1"
	state.ToolCallID = "call-1"
	state.ToolCallName = "lookup"

	events := b.ProcessContent(agent.ContentItem{
		Kind:           agent.ContentFunctionResult,
		FunctionResult: &agent.FunctionResult{CallID: "call-1", Result: "done"},
	})
	require.Len(t, events, 2)
	end, ok := events[0].(*aguievents.ToolCallEndEvent)
	require.True(t, ok)
	assert.Equal(t, "call-1", end.ToolCallID)
	result, ok := events[1].(*aguievents.ToolCallResultEvent)
	require.True(t, ok)
	assert.Equal(t, "call-1", result.ToolCallID)
	assert.Equal(t, "done", result.Content)

	assert.Empty(t, state.ToolCallID)
	assert.Empty(t, state.ToolCallName)
	assert.Empty(t, state.MessageID)
	require.Len(t, state.ToolResults, 1)
	assert.Equal(t, "call-1", state.ToolResults[0].ToolCallID)
}

func TestProcessContent_PredictiveDeltaOnToolArgs(t *testing.T) {
	state := NewRunState(map[string]any{})
	engine := predictive.New(map[string]adapter.PredictStateBinding{
		"recipe": {Tool: "update_recipe", ToolArgument: "*"},
	})
	b := New(state, engine)

	events := b.ProcessContent(agent.ContentItem{
		Kind:         agent.ContentFunctionCall,
		FunctionCall: &agent.FunctionCall{CallID: "call-1", Name: "update_recipe", Arguments: `{"title":"Soup"}`},
	})
	require.Len(t, events, 3)
	assert.IsType(t, (*aguievents.ToolCallStartEvent)(nil), events[0])
	assert.IsType(t, (*aguievents.ToolCallArgsEvent)(nil), events[1])
	assert.IsType(t, (*aguievents.StateDeltaEvent)(nil), events[2])
}

func TestProcessApprovalRequest_SetsWaitingAndEmitsCustomEvent(t *testing.T) {
	b, state := newBridge()
	state.MessageID = "msg-1"

	events := b.ProcessContent(agent.ContentItem{
		Kind: agent.ContentFunctionApprovalRequest,
		FunctionApprovalRequest: &agent.FunctionApprovalRequest{
			ID:           "approval-1",
			FunctionCall: agent.FunctionCall{CallID: "call-1", Name: "delete_file", Arguments: `{"path":"a.txt"}`},
		},
	})
	require.Len(t, events, 2)
	end, ok := events[0].(*aguievents.ToolCallEndEvent)
	require.True(t, ok)
	assert.Equal(t, "call-1", end.ToolCallID)
	_, ok = events[1].(*aguievents.CustomEvent)
	assert.True(t, ok)
	assert.True(t, state.WaitingForApproval)
}

func TestProcessApprovalRequest_EmitsConfirmChangesTriplet(t *testing.T) {
	b, state := newBridge()
	b.RequireConfirmation = true
	state.MessageID = "msg-1"

	events := b.ProcessContent(agent.ContentItem{
		Kind: agent.ContentFunctionApprovalRequest,
		FunctionApprovalRequest: &agent.FunctionApprovalRequest{
			ID:           "approval-1",
			FunctionCall: agent.FunctionCall{CallID: "call-1", Name: "delete_file", Arguments: `{"path":"a.txt"}`},
		},
	})
	require.Len(t, events, 5)
	assert.IsType(t, (*aguievents.ToolCallEndEvent)(nil), events[0])
	assert.IsType(t, (*aguievents.CustomEvent)(nil), events[1])
	assert.IsType(t, (*aguievents.ToolCallStartEvent)(nil), events[2])
	assert.IsType(t, (*aguievents.ToolCallArgsEvent)(nil), events[3])
	assert.IsType(t, (*aguievents.ToolCallEndEvent)(nil), events[4])
}

func TestProcessUpdate_ToolOnlyAnchorsTextMessageStart(t *testing.T) {
	b, state := newBridge()

	update := agent.Update{Contents: []agent.ContentItem{{
		Kind:         agent.ContentFunctionCall,
		FunctionCall: &agent.FunctionCall{CallID: "call-1", Name: "lookup", Arguments: `{}`},
	}}}

	events := b.ProcessUpdate(update)
	require.GreaterOrEqual(t, len(events), 3)
	assert.IsType(t, (*aguievents.TextMessageStartEvent)(nil), events[0])
	assert.IsType(t, (*aguievents.ToolCallStartEvent)(nil), events[1])
	assert.NotEmpty(t, state.MessageID)
}

func TestProcessUpdate_TextThenToolDoesNotDoubleAnchor(t *testing.T) {
	b, _ := newBridge()

	update := agent.Update{Contents: []agent.ContentItem{
		{Kind: agent.ContentText, Text: "Looking that up"},
		{Kind: agent.ContentFunctionCall, FunctionCall: &agent.FunctionCall{CallID: "call-1", Name: "lookup", Arguments: `{}`}},
	}}

	events := b.ProcessUpdate(update)
	startCount := 0
	for _, e := range events {
		if _, ok := e.(*aguievents.TextMessageStartEvent); ok {
			startCount++
		}
	}
	assert.Equal(t, 1, startCount)
}

func TestProcessContent_PassThroughUsageIsNoop(t *testing.T) {
	b, _ := newBridge()
	events := b.ProcessContent(agent.ContentItem{Kind: agent.ContentUsage, Raw: map[string]any{"tokens": 10}})
	assert.Empty(t, events)
}
