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
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/internal/log"
)

const (
	skippedFollowUpResult = "Tool execution skipped - user provided follow-up message"
	confirmedResult       = "Confirmed"
	rejectedResult        = "Rejected"
)

// sanitizeToolHistory scans messages in order, tracking the set of tool
// call ids an assistant message announced that no tool-role message has yet
// answered, and performs the three corrective actions of §4.1: synthetic
// result injection on an intervening user message, synthetic confirm result
// injection on a confirm-changes response, and dropping stale tool results.
func sanitizeToolHistory(messages []agent.Message) []agent.Message {
	sanitized := make([]agent.Message, 0, len(messages))
	var pending map[string]bool
	var pendingConfirmID string

	for _, msg := range messages {
		switch msg.Role {
		case agent.RoleAssistant:
			pending = nil
			pendingConfirmID = ""
			ids := map[string]bool{}
			for _, c := range msg.Contents {
				if c.Kind == agent.ContentFunctionCall && c.FunctionCall != nil && c.FunctionCall.CallID != "" {
					ids[c.FunctionCall.CallID] = true
					if c.FunctionCall.Name == "confirm_changes" {
						pendingConfirmID = c.FunctionCall.CallID
					}
				}
			}
			if len(ids) > 0 {
				pending = ids
			}
			sanitized = append(sanitized, msg)

		case agent.RoleUser:
			approvalIDs, accepted, anyApproval := approvalCallIDs(msg)
			if anyApproval && pending != nil {
				for id := range approvalIDs {
					delete(pending, id)
				}
				log.Debugf("approval responses for call_ids=%v handled by inner agent", keys(approvalIDs))
			}

			if pendingConfirmID != "" && anyApproval {
				sanitized = append(sanitized, syntheticToolResult(pendingConfirmID, confirmResultText(accepted)))
				delete(pending, pendingConfirmID)
				pendingConfirmID = ""
			} else if pendingConfirmID != "" {
				if textAccepted, ok := firstTextAsApproval(msg); ok {
					sanitized = append(sanitized, syntheticToolResult(pendingConfirmID, confirmResultText(textAccepted)))
					delete(pending, pendingConfirmID)
					pendingConfirmID = ""
					continue
				}
			}

			if len(pending) > 0 {
				log.Debugf("user message arrived with %d pending tool calls - injecting synthetic results", len(pending))
				for id := range pending {
					sanitized = append(sanitized, syntheticToolResult(id, skippedFollowUpResult))
				}
				pending = nil
				pendingConfirmID = ""
			}

			sanitized = append(sanitized, msg)
			pendingConfirmID = ""

		case agent.RoleTool:
			if len(pending) == 0 {
				continue
			}
			callID := ""
			for _, c := range msg.Contents {
				if c.Kind == agent.ContentFunctionResult && c.FunctionResult != nil {
					callID = c.FunctionResult.CallID
					break
				}
			}
			if callID == "" || !pending[callID] {
				continue
			}
			if callID == pendingConfirmID {
				pendingConfirmID = ""
			}
			sanitized = append(sanitized, msg)

		default:
			pending = nil
			pendingConfirmID = ""
			sanitized = append(sanitized, msg)
		}
	}

	return sanitized
}

func approvalCallIDs(msg agent.Message) (ids map[string]bool, accepted bool, found bool) {
	ids = map[string]bool{}
	acceptedAll := true
	for _, c := range msg.Contents {
		if c.Kind != agent.ContentFunctionApprovalResponse || c.FunctionApprovalResponse == nil {
			continue
		}
		found = true
		if c.FunctionApprovalResponse.FunctionCall.CallID != "" {
			ids[c.FunctionApprovalResponse.FunctionCall.CallID] = true
		}
		acceptedAll = acceptedAll && c.FunctionApprovalResponse.Approved
	}
	return ids, acceptedAll, found
}

func firstTextAsApproval(msg agent.Message) (bool, bool) {
	for _, c := range msg.Contents {
		if c.Kind != agent.ContentText {
			continue
		}
		if payload, ok := parseApprovalPayload(c.Text); ok {
			accepted, _ := payload["accepted"].(bool)
			return accepted, true
		}
	}
	return false, false
}

func confirmResultText(accepted bool) string {
	if accepted {
		return confirmedResult
	}
	return rejectedResult
}

func syntheticToolResult(callID, result string) agent.Message {
	return agent.Message{
		Role: agent.RoleTool,
		Contents: []agent.ContentItem{{
			Kind:           agent.ContentFunctionResult,
			FunctionResult: &agent.FunctionResult{CallID: callID, Result: result},
		}},
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
