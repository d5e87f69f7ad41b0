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

	"github.com/agui-bridge/agui-run/agent"
)

// toInternal converts one wire message into exactly one internal message.
// A tool-role message whose content parses as an approval payload becomes a
// function_approval_response content on a synthetic user message instead of
// an ordinary tool result (§4.1 Approval reconstruction);
// resolveApprovalCallID and findMatchingFunctionCall supply the prior
// function_call it attaches to.
func toInternal(msg WireMessage, prior []agent.Message) agent.Message {
	role := agent.Role(normalizeRole(msg.Role))

	if role == agent.RoleTool {
		content := stringValue(msg.Content)
		if payload, ok := parseApprovalPayload(content); ok {
			return reconstructApproval(msg, payload, prior)
		}
		return agent.Message{
			Role: agent.RoleTool,
			Contents: []agent.ContentItem{{
				Kind: agent.ContentFunctionResult,
				FunctionResult: &agent.FunctionResult{
					CallID: msg.ToolCallID,
					Result: content,
				},
			}},
		}
	}

	if role == agent.RoleAssistant && len(msg.ToolCalls) > 0 {
		var contents []agent.ContentItem
		if text := stringValue(msg.Content); text != "" {
			contents = append(contents, agent.ContentItem{Kind: agent.ContentText, Text: text})
		}
		for _, tc := range msg.ToolCalls {
			contents = append(contents, agent.ContentItem{
				Kind: agent.ContentFunctionCall,
				FunctionCall: &agent.FunctionCall{
					CallID:    tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		return agent.Message{Role: agent.RoleAssistant, Contents: contents}
	}

	return agent.Message{
		Role:     role,
		Contents: []agent.ContentItem{{Kind: agent.ContentText, Text: stringValue(msg.Content)}},
	}
}

// reconstructApproval builds the function_approval_response content for a
// tool-role approval payload, merging user-edited arguments into the
// original call's arguments per §4.1.
func reconstructApproval(msg WireMessage, payload map[string]any, prior []agent.Message) agent.Message {
	accepted, _ := payload["accepted"].(bool)
	callID := resolveApprovalCallID(msg.ToolCallID, payload, prior)
	call := findMatchingFunctionCall(callID, prior)

	modified := map[string]any{}
	for k, v := range payload {
		if k == "accepted" || k == "function_call_id" {
			continue
		}
		modified[k] = v
	}

	response := &agent.FunctionApprovalResponse{
		ID:       callID,
		Approved: accepted,
	}
	if call != nil {
		response.FunctionCall = *call
		originalArgs, _ := parseArguments(call.Arguments)
		filtered := filterModifiedArgs(modified, originalArgs)
		if len(filtered) > 0 {
			merged := mergeArgs(originalArgs, filtered)
			response.AdditionalProperties = map[string]any{"ag_ui_state_args": merged}
		}
	} else {
		response.FunctionCall = agent.FunctionCall{CallID: callID}
	}

	return agent.Message{
		Role: agent.RoleUser,
		Contents: []agent.ContentItem{{
			Kind:                     agent.ContentFunctionApprovalResponse,
			FunctionApprovalResponse: response,
		}},
	}
}

// resolveApprovalCallID follows the same fallback chain as the source:
// explicit function_call_id in the payload; else, scanning prior assistant
// messages in order, a call directly matching toolCallID whose own
// arguments carry a function_call_id (the confirm_changes triplet encodes
// the real tool's call id this way); else the sole non-confirm sibling call
// alongside a matching confirm_changes call; else the tool message's own
// tool_call_id unchanged.
func resolveApprovalCallID(toolCallID string, payload map[string]any, prior []agent.Message) string {
	if explicit, ok := payload["function_call_id"].(string); ok && explicit != "" {
		return explicit
	}
	for _, m := range prior {
		if m.Role != agent.RoleAssistant {
			continue
		}
		var directCall, confirmCall *agent.FunctionCall
		var siblings []agent.FunctionCall
		for _, c := range m.Contents {
			if c.Kind != agent.ContentFunctionCall || c.FunctionCall == nil {
				continue
			}
			if c.FunctionCall.CallID == toolCallID {
				directCall = c.FunctionCall
			}
			if c.FunctionCall.Name == "confirm_changes" && c.FunctionCall.CallID == toolCallID {
				confirmCall = c.FunctionCall
			} else if c.FunctionCall.Name != "confirm_changes" {
				siblings = append(siblings, *c.FunctionCall)
			}
		}
		if directCall != nil {
			if args, ok := parseArguments(directCall.Arguments); ok {
				if id, ok := args["function_call_id"].(string); ok && id != "" {
					return id
				}
			}
		}
		if confirmCall == nil {
			continue
		}
		if args, ok := parseArguments(confirmCall.Arguments); ok {
			if id, ok := args["function_call_id"].(string); ok && id != "" {
				return id
			}
		}
		if len(siblings) == 1 {
			return siblings[0].CallID
		}
	}
	return toolCallID
}

// findMatchingFunctionCall locates the previously-streamed function_call
// content for callID, skipping confirm_changes calls (those never have a
// tool implementation to re-execute).
func findMatchingFunctionCall(callID string, prior []agent.Message) *agent.FunctionCall {
	for _, m := range prior {
		if m.Role != agent.RoleAssistant {
			continue
		}
		for _, c := range m.Contents {
			if c.Kind == agent.ContentFunctionCall && c.FunctionCall != nil &&
				c.FunctionCall.CallID == callID && c.FunctionCall.Name != "confirm_changes" {
				return c.FunctionCall
			}
		}
	}
	return nil
}

// filterModifiedArgs keeps only keys present in the original call's
// arguments — an approval payload cannot introduce new argument keys.
func filterModifiedArgs(modified, original map[string]any) map[string]any {
	if len(modified) == 0 || len(original) == 0 {
		return nil
	}
	out := map[string]any{}
	for k, v := range modified {
		if _, ok := original[k]; ok {
			out[k] = v
		}
	}
	return out
}

// mergeArgs overlays filtered onto original, with special handling for a
// "steps" array: match entries by description and copy through only the
// status, preserving the original order and length (§4.1).
func mergeArgs(original, filtered map[string]any) map[string]any {
	merged := map[string]any{}
	for k, v := range original {
		merged[k] = v
	}
	for k, v := range filtered {
		merged[k] = v
	}
	approvedSteps, ok := filtered["steps"].([]any)
	if !ok {
		return merged
	}
	originalSteps, ok := original["steps"].([]any)
	if !ok {
		return merged
	}
	approvedByDesc := map[string]map[string]any{}
	for _, s := range approvedSteps {
		step, ok := s.(map[string]any)
		if !ok {
			continue
		}
		desc, _ := step["description"].(string)
		if desc != "" {
			approvedByDesc[desc] = step
		}
	}
	mergedSteps := make([]any, 0, len(originalSteps))
	for _, s := range originalSteps {
		step, ok := s.(map[string]any)
		if !ok {
			mergedSteps = append(mergedSteps, s)
			continue
		}
		desc, _ := step["description"].(string)
		status := "disabled"
		if approved, ok := approvedByDesc[desc]; ok {
			if st, ok := approved["status"].(string); ok && st != "" {
				status = st
			}
		}
		updated := map[string]any{}
		for k, v := range step {
			updated[k] = v
		}
		updated["status"] = status
		mergedSteps = append(mergedSteps, updated)
	}
	merged["steps"] = mergedSteps
	return merged
}

func parseArguments(arguments string) (map[string]any, bool) {
	if arguments == "" {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(arguments), &out); err != nil {
		return nil, false
	}
	return out, true
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func normalizeRole(role string) string {
	switch role {
	case "system", "user", "assistant", "tool", "developer":
		return role
	default:
		return "user"
	}
}
