//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package translator

import "github.com/agui-bridge/agui-run/adapter"

// PendingToolCall is one entry of RunState.PendingToolCalls (§3 "Arena +
// index"): the wire-shaped tool call being assembled from streaming chunks.
type PendingToolCall struct {
	ID       string
	Name     string
	Arguments string
}

// RunState is the per-invocation state the Event Bridge reads and mutates
// (§3 Run State). The Run Orchestrator owns one instance per request and
// never shares it across requests.
type RunState struct {
	MessageID          string
	ToolCallID         string
	ToolCallName       string
	WaitingForApproval bool

	CurrentState    map[string]any
	AccumulatedText string

	PendingToolCalls []*PendingToolCall
	toolCallsByID    map[string]*PendingToolCall
	ToolResults      []adapter.WireMessage
	ToolCallsEnded   map[string]bool
}

// NewRunState creates a RunState with currentState as its initial state
// document (already schema-defaulted by the caller).
func NewRunState(currentState map[string]any) *RunState {
	if currentState == nil {
		currentState = map[string]any{}
	}
	return &RunState{
		CurrentState:   currentState,
		toolCallsByID:  map[string]*PendingToolCall{},
		ToolCallsEnded: map[string]bool{},
	}
}

// ensureToolCallEntry returns the existing pending entry for id, or creates
// and indexes a new one, preserving insertion order in PendingToolCalls
// while allowing O(1) lookup via toolCallsByID (§9 "Arena + index").
func (s *RunState) ensureToolCallEntry(id string) *PendingToolCall {
	if entry, ok := s.toolCallsByID[id]; ok {
		return entry
	}
	entry := &PendingToolCall{ID: id}
	s.toolCallsByID[id] = entry
	s.PendingToolCalls = append(s.PendingToolCalls, entry)
	return entry
}

func (s *RunState) toolCallByID(id string) (*PendingToolCall, bool) {
	entry, ok := s.toolCallsByID[id]
	return entry, ok
}
