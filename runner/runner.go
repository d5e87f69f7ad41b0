//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package runner implements the Run Orchestrator (§4.5): the per-request
// state machine that normalizes a Run Input, merges tools, resolves any
// pending approval, drives the inner agent's streaming run, and translates
// its output into AG-UI events.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/approval"
	"github.com/agui-bridge/agui-run/internal/statectx"
	"github.com/agui-bridge/agui-run/predictive"
	"github.com/agui-bridge/agui-run/tooling"
	"github.com/agui-bridge/agui-run/translator"
)

var tracer = otel.Tracer("github.com/agui-bridge/agui-run/runner")

// Runner executes AG-UI runs and emits AG-UI events.
type Runner interface {
	// Run starts processing one AG-UI run request and returns a channel of
	// AG-UI events. The channel is closed once the run reaches a terminal
	// state (RunFinished or RunError was emitted).
	Run(ctx context.Context, input *adapter.RunInput) (<-chan aguievents.Event, error)
}

// New wraps an inner agent with the AG-UI Run Orchestrator.
func New(a agent.Agent, opt ...Option) Runner {
	opts := NewOptions(opt...)
	return &runner{
		agent:               a,
		adapter:             opts.Adapter,
		executor:            opts.Executor,
		approvalCoordinator: opts.ApprovalCoordinator,
		tools:               opts.Tools,
		stateSchema:         opts.StateSchema,
		structuredOutputKey: opts.StructuredOutputKey,
		responseFormat:      opts.ResponseFormat,
		requireConfirmation: opts.RequireConfirmation,
		translateCallbacks:  opts.TranslateCallbacks,
	}
}

// runner is the default implementation of Runner.
type runner struct {
	agent               agent.Agent
	adapter             adapter.Adapter
	executor            agent.Executor
	approvalCoordinator *approval.Coordinator
	tools               []agent.Tool
	stateSchema         adapter.StateSchema
	structuredOutputKey string
	responseFormat      map[string]any
	requireConfirmation bool
	translateCallbacks  *translator.Callbacks
}

// Run implements Runner.
func (r *runner) Run(ctx context.Context, input *adapter.RunInput) (<-chan aguievents.Event, error) {
	if r.agent == nil {
		return nil, errors.New("agui: agent is nil")
	}
	if input == nil {
		return nil, errors.New("agui: run input cannot be nil")
	}
	events := make(chan aguievents.Event)
	go r.run(ctx, input, events)
	return events, nil
}

// run implements the 9-step flow of §4.5. RunStarted is emitted lazily, the
// first time any event needs to go out, preserving the ordering invariant
// that every other event follows it (§8 Invariant #1) while still letting
// the first inner-agent update adopt a service-assigned thread/run identity
// per step 7.
func (r *runner) run(ctx context.Context, input *adapter.RunInput, events chan<- aguievents.Event) {
	defer close(events)

	// Step 1: initialize.
	threadID := input.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}
	runID := input.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "agui.run", trace.WithAttributes(
		attribute.String("thread_id", threadID),
		attribute.String("run_id", runID),
	))
	defer span.End()

	stateManager := statectx.New(r.stateSchema, input.PredictStateConfig)
	state := stateManager.ApplySchemaDefaults(cloneState(input.State))
	engine := predictive.New(input.PredictStateConfig)
	runState := translator.NewRunState(state)
	bridge := translator.New(runState, engine)
	bridge.RequireConfirmation = r.requireConfirmation
	bridge.SkipText = r.structuredOutputKey != ""

	messages := r.adapter.ToInternal(input.Messages)

	// started is true once RunStarted (and, where applicable, PredictState
	// and the initial StateSnapshot) has been emitted for this run. start
	// is idempotent and, given the first inner-agent update, adopts its
	// conversation/response id as thread_id/run_id before emitting (§4.5
	// step 7).
	started := false
	start := func(update *agent.Update) bool {
		if started {
			return true
		}
		started = true
		if update != nil {
			if update.ConversationID != "" {
				threadID = update.ConversationID
			}
			if update.ResponseID != "" {
				runID = update.ResponseID
			}
		}
		if !r.emit(ctx, events, aguievents.NewRunStartedEvent(threadID, runID), runID) {
			return false
		}
		if len(input.PredictStateConfig) > 0 {
			if !r.emit(ctx, events, translator.NewPredictStateEvent(input.PredictStateConfig), runID) {
				return false
			}
		}
		if len(r.stateSchema) > 0 && len(state) > 0 {
			if !r.emit(ctx, events, aguievents.NewStateSnapshotEvent(state), runID) {
				return false
			}
		}
		return true
	}

	// Step 2: empty-input guard.
	if len(messages) == 0 {
		if start(nil) {
			r.emit(ctx, events, aguievents.NewRunFinishedEvent(threadID, runID), runID)
		}
		return
	}

	// Step 3: tool merging.
	serverTools := tooling.CollectServerTools(ctx, r.agent, r.tools)
	clientTools := buildClientTools(input.Tools)
	mergedTools := tooling.MergeTools(serverTools, clientTools)
	bridge.ApprovalToolName = tooling.SelectApprovalToolName(clientTools)

	// Step 4: confirm-changes short-circuit.
	if approvalResp, ok := approval.LatestApprovalResponse(messages); ok && approval.IsConfirmChangesResponse(*approvalResp) {
		steps := approval.ApprovalSteps(*approvalResp)
		text := r.approvalCoordinator.ConfirmChangesMessage(approvalResp.Approved, steps)
		if start(nil) && r.emitTextMessage(ctx, events, text, runID) {
			r.emit(ctx, events, aguievents.NewRunFinishedEvent(threadID, runID), runID)
		}
		return
	}

	// Step 5: approval resolution.
	var err error
	messages, err = r.approvalCoordinator.ResolveApprovals(ctx, messages, mergedTools, r.executor)
	if err != nil {
		if start(nil) {
			r.emit(ctx, events, aguievents.NewRunErrorEvent(fmt.Sprintf("resolve approvals: %v", err),
				aguievents.WithRunID(runID)), runID)
		}
		return
	}
	for _, snapshot := range approval.CollectApprovedStateSnapshots(messages, input.PredictStateConfig, state) {
		if !start(nil) {
			return
		}
		if !r.emit(ctx, events, aguievents.NewStateSnapshotEvent(snapshot), runID) {
			return
		}
	}

	// Step 6: state-context injection.
	messagesToRun := stateManager.SelectMessagesToRun(messages, state)

	// Step 7: invoke the inner agent with streaming. Metadata sanitizes the
	// run's thread/run identity plus any forwarded_props/context passed
	// through on the Run Input before handing it to the inner agent
	// (§ Supplemented Features "build_safe_metadata").
	metadata := map[string]any{
		"ag_ui_thread_id": threadID,
		"ag_ui_run_id":    runID,
	}
	if len(state) > 0 {
		metadata["current_state"] = state
	}
	for k, v := range input.Context {
		metadata[k] = v
	}
	for k, v := range input.ForwardedProps {
		metadata[k] = v
	}
	safeMetadata := statectx.BuildSafeMetadata(metadata)

	agentCtx, agentSpan := tracer.Start(ctx, "agui.run.agent")
	opts := agent.Options{
		Tools:          mergedTools,
		ResponseFormat: r.responseFormat,
		Metadata:       safeMetadata,
		Store:          len(safeMetadata) > 0,
	}
	updatesCh, errCh := r.agent.RunStream(agentCtx, messagesToRun, opts)
	ok := r.stream(ctx, events, bridge, updatesCh, errCh, runState, start, func() string { return runID })
	agentSpan.End()
	if !ok {
		return
	}

	// Step 8: post-stream.
	if !r.closeDanglingToolCalls(ctx, events, runState, mergedTools, runID) {
		return
	}
	if runState.MessageID != "" {
		if !r.emit(ctx, events, aguievents.NewTextMessageEndEvent(runState.MessageID), runID) {
			return
		}
		runState.MessageID = ""
	}

	// Step 9: structured-output mode.
	if r.structuredOutputKey != "" && !runState.WaitingForApproval {
		if applyStructuredOutput(runState.AccumulatedText, r.structuredOutputKey, state) {
			if !r.emit(ctx, events, aguievents.NewStateSnapshotEvent(state), runID) {
				return
			}
		}
	}

	wireMessages := r.adapter.FromInternal(messagesToRun)
	if assistant, ok := assistantSnapshotMessage(runState, r.structuredOutputKey == ""); ok {
		wireMessages = append(wireMessages, assistant)
	}
	wireMessages = append(wireMessages, runState.ToolResults...)
	if !r.emit(ctx, events, aguievents.NewMessagesSnapshotEvent(wireMessages), runID) {
		return
	}

	r.emit(ctx, events, aguievents.NewRunFinishedEvent(threadID, runID), runID)
}

// stream drains updatesCh and errCh until both close, translating every
// update through the Event Bridge. On the first update (or, lacking any
// update, once the loop ends) it calls start to emit RunStarted and its
// companions (§4.5 step 7). It stops early once the bridge marks the Run
// State as waiting for approval, the suspension point of the
// human-in-the-loop protocol (§4.5 step 7, §4.4).
func (r *runner) stream(ctx context.Context, events chan<- aguievents.Event, bridge *translator.Bridge,
	updatesCh <-chan agent.Update, errCh <-chan error, runState *translator.RunState,
	start func(update *agent.Update) bool, getRunID func() string) bool {
	for updatesCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			if !start(nil) {
				return false
			}
			r.emit(ctx, events, aguievents.NewRunErrorEvent("context canceled", aguievents.WithRunID(getRunID())), getRunID())
			return false
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				if !start(nil) {
					return false
				}
				r.emit(ctx, events, aguievents.NewRunErrorEvent(fmt.Sprintf("agent run: %v", err),
					aguievents.WithRunID(getRunID())), getRunID())
				return false
			}
		case update, ok := <-updatesCh:
			if !ok {
				updatesCh = nil
				continue
			}
			if !start(&update) {
				return false
			}
			aguiEvents, err := bridge.ProcessUpdateWithCallbacks(ctx, update, r.translateCallbacks)
			if err != nil {
				r.emit(ctx, events, aguievents.NewRunErrorEvent(fmt.Sprintf("translate update: %v", err),
					aguievents.WithRunID(getRunID())), getRunID())
				return false
			}
			for _, ev := range aguiEvents {
				if !r.emit(ctx, events, ev, getRunID()) {
					return false
				}
			}
			if runState.WaitingForApproval || update.Done {
				return true
			}
		}
	}
	return start(nil)
}

// closeDanglingToolCalls emits a ToolCallEnd for every pending tool call the
// stream never closed itself, when that tool is declaration-only (a client
// tool the server forwards but never executes, so the inner agent has no
// occasion to emit its function_result) (§4.5 step 8).
func (r *runner) closeDanglingToolCalls(ctx context.Context, events chan<- aguievents.Event, runState *translator.RunState,
	tools []agent.Tool, runID string) bool {
	for _, entry := range runState.PendingToolCalls {
		if runState.ToolCallsEnded[entry.ID] {
			continue
		}
		tool := findTool(tools, entry.Name)
		if tool == nil || !tool.DeclarationOnly() {
			continue
		}
		if !r.emit(ctx, events, aguievents.NewToolCallEndEvent(entry.ID), runID) {
			return false
		}
		runState.ToolCallsEnded[entry.ID] = true
	}
	return true
}

// applyStructuredOutput parses the accumulated text of a structured-output
// run as JSON and stores it under stateKey, returning whether a value was
// applied (§4.5 step 9).
func applyStructuredOutput(accumulatedText, stateKey string, state map[string]any) bool {
	if accumulatedText == "" {
		return false
	}
	var parsed any
	if err := json.Unmarshal([]byte(accumulatedText), &parsed); err != nil {
		return false
	}
	state[stateKey] = parsed
	return true
}

// emitTextMessage emits a complete, non-streamed text message (start,
// content, end), used by the confirm-changes short-circuit reply.
func (r *runner) emitTextMessage(ctx context.Context, events chan<- aguievents.Event, text, runID string) bool {
	id := uuid.NewString()
	if !r.emit(ctx, events, aguievents.NewTextMessageStartEvent(id, aguievents.WithRole(string(agent.RoleAssistant))), runID) {
		return false
	}
	if !r.emit(ctx, events, aguievents.NewTextMessageContentEvent(id, text), runID) {
		return false
	}
	return r.emit(ctx, events, aguievents.NewTextMessageEndEvent(id), runID)
}

// emit runs the after-translate callbacks (if any) and sends event,
// returning false if a callback errored (in which case a RunError has
// already been substituted and sent in its place).
func (r *runner) emit(ctx context.Context, events chan<- aguievents.Event, event aguievents.Event, runID string) bool {
	if r.translateCallbacks != nil {
		custom, err := r.translateCallbacks.RunAfterTranslate(ctx, event)
		if err != nil {
			events <- aguievents.NewRunErrorEvent(fmt.Sprintf("after translate callback: %v", err),
				aguievents.WithRunID(runID))
			return false
		}
		if custom != nil {
			event = custom
		}
	}
	events <- event
	return true
}

func buildClientTools(specs []adapter.ToolSpec) []agent.Tool {
	tools := make([]agent.Tool, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, tooling.NewClientTool(spec))
	}
	return tools
}

func findTool(tools []agent.Tool, name string) agent.Tool {
	for _, t := range tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// assistantSnapshotMessage builds the new assistant-turn wire message (tool
// calls issued this turn, plus accumulated text when includeText is set) for
// the post-stream MessagesSnapshot (§4.5 step 8). Returns ok=false when the
// turn produced neither tool calls nor text worth recording.
func assistantSnapshotMessage(state *translator.RunState, includeText bool) (adapter.WireMessage, bool) {
	toolCalls := make([]adapter.ToolCall, 0, len(state.PendingToolCalls))
	for _, entry := range state.PendingToolCalls {
		toolCalls = append(toolCalls, adapter.ToolCall{
			ID:   entry.ID,
			Type: "function",
			Function: adapter.ToolCallFunction{
				Name:      entry.Name,
				Arguments: entry.Arguments,
			},
		})
	}

	var content *string
	if includeText && state.AccumulatedText != "" {
		text := state.AccumulatedText
		content = &text
	}

	if len(toolCalls) == 0 && content == nil {
		return adapter.WireMessage{}, false
	}
	return adapter.WireMessage{
		ID:        uuid.NewString(),
		Role:      string(agent.RoleAssistant),
		Content:   content,
		ToolCalls: toolCalls,
	}, true
}

func cloneState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}
