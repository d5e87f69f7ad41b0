//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package translator implements the Event Bridge (§4.3): given a content
// item produced by the inner agent, it emits zero or more AG-UI events,
// mutating Run State as required to preserve the ordering invariants of §3.
package translator

import (
	"context"
	"encoding/json"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/google/uuid"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/internal/log"
	"github.com/agui-bridge/agui-run/predictive"
)

// Bridge translates inner-agent content items into AG-UI events.
type Bridge struct {
	state      *RunState
	predictive *predictive.Engine

	// RequireConfirmation controls whether an approval request is followed
	// by a synthetic confirm_changes tool-call triplet (§4.3).
	RequireConfirmation bool
	// SkipText suppresses text-delta emission, used in structured-output
	// mode (§4.5 step 9).
	SkipText bool
	// ApprovalToolName overrides the confirm-changes triplet's tool-call
	// name, selected by tooling.SelectApprovalToolName from the client
	// tool declarations (§ Supplemented Features "select_approval_tool_name").
	// Falls back to "confirm_changes" when empty.
	ApprovalToolName string
}

// New creates an Event Bridge bound to the given Run State and Predictive-
// State Engine.
func New(state *RunState, engine *predictive.Engine) *Bridge {
	return &Bridge{state: state, predictive: engine}
}

// ProcessUpdate dispatches every content item of one inner-agent Update,
// anchoring tool-only updates with a TextMessageStart first (§4.3
// "Start-of-tool-only-message").
func (b *Bridge) ProcessUpdate(update agent.Update) []aguievents.Event {
	var events []aguievents.Event
	if b.state.MessageID == "" && isToolOnly(update) {
		events = append(events, b.startTextMessage()...)
	}
	for _, item := range update.Contents {
		events = append(events, b.ProcessContent(item)...)
	}
	return events
}

// ProcessUpdateWithCallbacks is the runner-facing entry point: it runs the
// registered BeforeTranslate/AfterTranslate hooks around ProcessUpdate so
// callers can intercept or replace individual events (§4.5 step 7).
func (b *Bridge) ProcessUpdateWithCallbacks(ctx context.Context, update agent.Update, callbacks *Callbacks) ([]aguievents.Event, error) {
	if callbacks == nil {
		return b.ProcessUpdate(update), nil
	}

	var events []aguievents.Event
	anchor := b.state.MessageID == "" && isToolOnly(update)
	if anchor {
		events = append(events, b.startTextMessage()...)
	}
	for _, item := range update.Contents {
		effective := item
		if custom, err := callbacks.RunBeforeTranslate(ctx, item); err != nil {
			return nil, err
		} else if custom != nil {
			effective = *custom
		}
		for _, ev := range b.ProcessContent(effective) {
			out, err := callbacks.RunAfterTranslate(ctx, ev)
			if err != nil {
				return nil, err
			}
			if out != nil {
				ev = out
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func isToolOnly(update agent.Update) bool {
	sawToolCall := false
	for _, c := range update.Contents {
		if c.Kind == agent.ContentText && c.Text != "" {
			return false
		}
		if c.Kind == agent.ContentFunctionCall {
			sawToolCall = true
		}
	}
	return sawToolCall
}

// ProcessContent translates a single content item (§4.3 per-content-type
// table).
func (b *Bridge) ProcessContent(item agent.ContentItem) []aguievents.Event {
	switch item.Kind {
	case agent.ContentText:
		return b.processText(item.Text)
	case agent.ContentFunctionCall:
		return b.processFunctionCall(item.FunctionCall)
	case agent.ContentFunctionResult:
		return b.processFunctionResult(item.FunctionResult)
	case agent.ContentFunctionApprovalRequest:
		return b.processApprovalRequest(item.FunctionApprovalRequest)
	default:
		// usage and other pass-through kinds carry no event.
		return nil
	}
}

func (b *Bridge) processText(text string) []aguievents.Event {
	if text == "" {
		return nil
	}
	b.state.AccumulatedText += text
	if b.SkipText || b.state.WaitingForApproval {
		return nil
	}
	var events []aguievents.Event
	if b.state.MessageID == "" {
		events = append(events, b.startTextMessage()...)
	}
	events = append(events, aguievents.NewTextMessageContentEvent(b.state.MessageID, text))
	return events
}

func (b *Bridge) startTextMessage() []aguievents.Event {
	id := uuid.NewString()
	b.state.MessageID = id
	return []aguievents.Event{aguievents.NewTextMessageStartEvent(id, aguievents.WithRole(string(agent.RoleAssistant)))}
}

func (b *Bridge) processFunctionCall(call *agent.FunctionCall) []aguievents.Event {
	if call == nil {
		return nil
	}
	id := call.CallID
	if id == "" {
		id = b.state.ToolCallID
	}
	if id == "" {
		id = uuid.NewString()
	}

	var events []aguievents.Event
	if id != b.state.ToolCallID || call.Name != "" {
		// A nonempty name with an existing id but unchanged call is still a
		// continuation (§8 boundary case "Tool-call with empty name but
		// existing id"); only treat as a new call when the id actually changes.
		if id != b.state.ToolCallID {
			b.state.ToolCallID = id
			b.state.ToolCallName = call.Name
			b.predictive.Reset()
			entry := b.state.ensureToolCallEntry(id)
			entry.Name = call.Name
			events = append(events, aguievents.NewToolCallStartEvent(id, call.Name, aguievents.WithParentMessageID(b.state.MessageID)))
		} else if entry, ok := b.state.toolCallByID(id); ok && entry.Name == "" {
			entry.Name = call.Name
		}
	}

	if call.Arguments != "" {
		events = append(events, aguievents.NewToolCallArgsEvent(id, call.Arguments))
		if entry, ok := b.state.toolCallByID(id); ok {
			entry.Arguments += call.Arguments
		}
		for _, op := range b.predictive.Ingest(b.state.ToolCallName, call.Arguments) {
			events = append(events, newStateDeltaEvent([]predictive.JSONPatchOp{op}))
		}
	}
	return events
}

func (b *Bridge) processFunctionResult(result *agent.FunctionResult) []aguievents.Event {
	if result == nil {
		return nil
	}
	var events []aguievents.Event
	events = append(events, aguievents.NewToolCallEndEvent(result.CallID))

	resultMessageID := uuid.NewString()
	content := serializeResult(result.Result)
	events = append(events, aguievents.NewToolCallResultEvent(resultMessageID, result.CallID, content))
	b.state.ToolResults = append(b.state.ToolResults, adapter.WireMessage{
		ID:         resultMessageID,
		Role:       string(agent.RoleTool),
		Content:    &content,
		ToolCallID: result.CallID,
	})
	b.state.ToolCallsEnded[result.CallID] = true

	if b.predictive.Enabled() {
		hadPending := b.predictive.IsPredictiveTool(b.state.ToolCallName)
		b.predictive.ApplyPendingUpdates(b.state.CurrentState)
		if hadPending {
			events = append(events, newStateSnapshotEvent(b.state.CurrentState))
		}
	}

	b.state.ToolCallID = ""
	b.state.ToolCallName = ""
	b.state.MessageID = ""
	return events
}

func (b *Bridge) processApprovalRequest(req *agent.FunctionApprovalRequest) []aguievents.Event {
	if req == nil {
		return nil
	}
	var events []aguievents.Event

	if b.predictive.IsPredictiveTool(req.FunctionCall.Name) {
		if key, value, ok := b.predictive.ExtractStateValue(req.FunctionCall.Name, req.FunctionCall.Arguments); ok {
			b.state.CurrentState[key] = value
			events = append(events, newStateSnapshotEvent(b.state.CurrentState))
		}
	}

	events = append(events, aguievents.NewToolCallEndEvent(req.FunctionCall.CallID))
	b.state.ToolCallsEnded[req.FunctionCall.CallID] = true

	events = append(events, newCustomEvent("function_approval_request", map[string]any{
		"id": req.ID,
		"function_call": map[string]any{
			"call_id": req.FunctionCall.CallID,
			"name":    req.FunctionCall.Name,
		},
	}))

	if b.RequireConfirmation {
		events = append(events, b.confirmChangesTriplet(req)...)
	}
	b.state.WaitingForApproval = true
	return events
}

// confirmChangesTriplet emits the synthetic client-side tool call that
// drives the UI's approval dialog (§4.3, glossary "Confirm-changes").
func (b *Bridge) confirmChangesTriplet(req *agent.FunctionApprovalRequest) []aguievents.Event {
	confirmID := uuid.NewString()
	toolName := b.ApprovalToolName
	if toolName == "" {
		toolName = "confirm_changes"
	}
	steps := []map[string]any{{
		"description": "Execute " + req.FunctionCall.Name,
		"status":      "enabled",
	}}
	argsJSON, _ := json.Marshal(map[string]any{
		"function_name":    req.FunctionCall.Name,
		"function_call_id": req.FunctionCall.CallID,
		"function_arguments": req.FunctionCall.Arguments,
		"steps":            steps,
	})
	return []aguievents.Event{
		aguievents.NewToolCallStartEvent(confirmID, toolName, aguievents.WithParentMessageID(b.state.MessageID)),
		aguievents.NewToolCallArgsEvent(confirmID, string(argsJSON)),
		aguievents.NewToolCallEndEvent(confirmID),
	}
}

func serializeResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	b, err := json.Marshal(result)
	if err != nil {
		log.Debugf("serialize tool result: %v", err)
		return ""
	}
	return string(b)
}
