//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package approval implements the Approval Coordinator (§4.4): it resolves
// a pending function_approval_request against the client's next-turn
// function_approval_response, executing approved tools and synthesizing
// rejection/error sentinel results so the conversation can continue.
package approval

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/internal/log"
)

const rejectedResult = "Tool call invocation was rejected by user."

var tracer = otel.Tracer("github.com/agui-bridge/agui-run/approval")

// Coordinator resolves approval responses against an Executor.
type Coordinator struct {
	Strategy ConfirmationStrategy
}

// New creates a Coordinator. A nil strategy defaults to
// DefaultConfirmationStrategy.
func New(strategy ConfirmationStrategy) *Coordinator {
	if strategy == nil {
		strategy = DefaultConfirmationStrategy{}
	}
	return &Coordinator{Strategy: strategy}
}

// LatestApprovalResponse returns the approval response content item carried
// by the last message, if any.
func LatestApprovalResponse(messages []agent.Message) (*agent.FunctionApprovalResponse, bool) {
	if len(messages) == 0 {
		return nil, false
	}
	last := messages[len(messages)-1]
	for _, c := range last.Contents {
		if c.Kind == agent.ContentFunctionApprovalResponse && c.FunctionApprovalResponse != nil {
			return c.FunctionApprovalResponse, true
		}
	}
	return nil, false
}

// ApprovalSteps extracts the steps array backing an approval response,
// preferring the user-edited ag_ui_state_args over the raw call arguments.
func ApprovalSteps(approval agent.FunctionApprovalResponse) []Step {
	if stateArgs, ok := stateArgs(approval); ok {
		if steps, ok := stepsFrom(stateArgs); ok {
			return steps
		}
	}
	parsed := parseArguments(approval.FunctionCall.Arguments)
	if steps, ok := stepsFrom(parsed); ok {
		return steps
	}
	return nil
}

// IsStepBasedApproval reports whether approval carries an explicit steps
// array, or is bound to a predict-state "steps" argument.
func IsStepBasedApproval(approval agent.FunctionApprovalResponse, predictStateConfig map[string]adapter.PredictStateBinding) bool {
	if len(ApprovalSteps(approval)) > 0 {
		return true
	}
	for _, cfg := range predictStateConfig {
		if cfg.Tool == approval.FunctionCall.Name && cfg.ToolArgument == "steps" {
			return true
		}
	}
	return false
}

// ResolveApprovals executes or synthesizes the result for the latest
// approval response in messages, returning messages with a trailing
// function_result message appended (§4.5 step 5). If there is no pending
// approval response, messages is returned unchanged.
func (c *Coordinator) ResolveApprovals(ctx context.Context, messages []agent.Message, tools []agent.Tool, executor agent.Executor) ([]agent.Message, error) {
	approval, ok := LatestApprovalResponse(messages)
	if !ok {
		return messages, nil
	}

	var content string
	if !approval.Approved {
		content = rejectedResult
	} else {
		result, err := c.execute(ctx, *approval, tools, executor)
		if err != nil {
			content = errorResultText(err)
		} else {
			content = serializeResult(result.Result)
		}
	}

	resultMsg := agent.Message{
		Role: agent.RoleTool,
		Contents: []agent.ContentItem{{
			Kind: agent.ContentFunctionResult,
			FunctionResult: &agent.FunctionResult{
				CallID: approval.FunctionCall.CallID,
				Result: content,
			},
		}},
	}
	return append(messages, resultMsg), nil
}

func (c *Coordinator) execute(ctx context.Context, approval agent.FunctionApprovalResponse, tools []agent.Tool, executor agent.Executor) (agent.FunctionResult, error) {
	call := mergedCall(approval)

	ctx, span := tracer.Start(ctx, "agui.run.approved_tool", trace.WithAttributes(
		attribute.String("tool_name", call.Name),
		attribute.String("call_id", call.CallID),
	))
	defer span.End()

	result, err := executor.Execute(ctx, call, tools)
	if err != nil {
		log.Warnf("execute approved tool %s: %v", call.Name, err)
		return agent.FunctionResult{}, err
	}
	return result, nil
}

// mergedCall overlays any user-edited arguments (ag_ui_state_args) onto the
// original function call before execution, so approval-time edits take
// effect.
func mergedCall(approval agent.FunctionApprovalResponse) agent.FunctionCall {
	call := approval.FunctionCall
	stateArgs, ok := stateArgs(approval)
	if !ok {
		return call
	}
	merged := parseArguments(call.Arguments)
	for k, v := range stateArgs {
		merged[k] = v
	}
	if b, err := json.Marshal(merged); err == nil {
		call.Arguments = string(b)
	}
	return call
}

// ConfirmChangesMessage renders the informational text for the
// confirm-changes short-circuit (§4.4 "Confirm-changes response"): the Run
// Input is purely a confirm-changes acknowledgement, so the orchestrator
// never invokes the inner agent and instead replies with this text. A
// confirm_changes response carrying a steps array is a plan approval;
// one with no steps is a bare predictive-state confirmation.
func (c *Coordinator) ConfirmChangesMessage(accepted bool, steps []Step) string {
	if len(steps) == 0 {
		if accepted {
			return c.Strategy.OnStateConfirmed()
		}
		return c.Strategy.OnStateRejected()
	}
	if accepted {
		return c.Strategy.OnApprovalAccepted(steps)
	}
	return c.Strategy.OnApprovalRejected(steps)
}

// IsConfirmChangesResponse reports whether the Run Input is purely a
// confirm-changes acknowledgement rather than a real per-tool approval
// (§4.4 "Confirm-changes response"): the approval resolves to no backing
// executable tool call at all, because the client's confirm_changes
// response never linked back to one (Message Adapter indirection, §4.1).
// A steps-bearing approval for a real, resolved tool call still executes
// normally — the steps merely rewrite that tool's own arguments.
func IsConfirmChangesResponse(approval agent.FunctionApprovalResponse) bool {
	return approval.FunctionCall.Name == "" || approval.FunctionCall.Name == "confirm_changes"
}

// CollectApprovedStateSnapshots mutates currentState with every predict-
// state-bound value carried by an approved function_approval_response in
// messages, returning one snapshot copy per update applied (§ Supplemented
// Features "collect_approved_state_snapshots").
func CollectApprovedStateSnapshots(messages []agent.Message, predictStateConfig map[string]adapter.PredictStateBinding, currentState map[string]any) []map[string]any {
	if len(predictStateConfig) == 0 {
		return nil
	}

	var snapshots []map[string]any
	for _, msg := range messages {
		if msg.Role != agent.RoleUser {
			continue
		}
		for _, c := range msg.Contents {
			if c.Kind != agent.ContentFunctionApprovalResponse || c.FunctionApprovalResponse == nil {
				continue
			}
			approval := *c.FunctionApprovalResponse
			if !approval.Approved {
				continue
			}
			args, ok := stateArgs(approval)
			if !ok {
				args = parseArguments(approval.FunctionCall.Arguments)
			}
			if len(args) == 0 {
				continue
			}
			for stateKey, cfg := range predictStateConfig {
				if cfg.Tool != approval.FunctionCall.Name {
					continue
				}
				var value any
				if cfg.ToolArgument == "*" {
					value = args
				} else if v, present := args[cfg.ToolArgument]; present {
					value = v
				} else {
					continue
				}
				currentState[stateKey] = value
				snapshot := make(map[string]any, len(currentState))
				for k, v := range currentState {
					snapshot[k] = v
				}
				snapshots = append(snapshots, snapshot)
				break
			}
		}
	}
	return snapshots
}

func stateArgs(approval agent.FunctionApprovalResponse) (map[string]any, bool) {
	if approval.AdditionalProperties == nil {
		return nil, false
	}
	raw, ok := approval.AdditionalProperties["ag_ui_state_args"]
	if !ok {
		return nil, false
	}
	m, ok := raw.(map[string]any)
	return m, ok
}

func stepsFrom(args map[string]any) ([]Step, bool) {
	raw, ok := args["steps"]
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	steps := make([]Step, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		desc, _ := m["description"].(string)
		status, _ := m["status"].(string)
		steps = append(steps, Step{Description: desc, Status: status})
	}
	return steps, true
}

func parseArguments(arguments string) map[string]any {
	if arguments == "" {
		return map[string]any{}
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(arguments), &parsed); err != nil {
		return map[string]any{}
	}
	return parsed
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

func errorResultText(err error) string {
	return "Error: Tool call invocation failed."
}
