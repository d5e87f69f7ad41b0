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
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/internal/log"
)

// deduplicate removes duplicate messages while preserving order, keyed per
// §4.1: tool results by (role, call_id), assistant tool-call sets by
// (role, sorted call_ids), everything else by (role, content hash).
func deduplicate(messages []agent.Message) []agent.Message {
	seen := map[string]int{}
	out := make([]agent.Message, 0, len(messages))

	for _, msg := range messages {
		key, ok := dedupeKey(msg)
		if !ok {
			out = append(out, msg)
			continue
		}
		existingIdx, exists := seen[key]
		if !exists {
			seen[key] = len(out)
			out = append(out, msg)
			continue
		}
		if msg.Role == agent.RoleTool && emptyResult(out[existingIdx]) && !emptyResult(msg) {
			log.Debugf("replacing empty tool result for key %q", key)
			out[existingIdx] = msg
			continue
		}
		log.Debugf("dropping duplicate message for key %q", key)
	}

	return out
}

func dedupeKey(msg agent.Message) (string, bool) {
	if msg.Role == agent.RoleTool && len(msg.Contents) > 0 && msg.Contents[0].Kind == agent.ContentFunctionResult {
		return fmt.Sprintf("tool:%s", msg.Contents[0].FunctionResult.CallID), true
	}
	if msg.Role == agent.RoleAssistant && hasFunctionCall(msg) {
		ids := functionCallIDs(msg)
		sort.Strings(ids)
		return fmt.Sprintf("assistant-calls:%v", ids), true
	}
	return fmt.Sprintf("%s:%d", msg.Role, contentHash(msg)), true
}

func hasFunctionCall(msg agent.Message) bool {
	for _, c := range msg.Contents {
		if c.Kind == agent.ContentFunctionCall {
			return true
		}
	}
	return false
}

func functionCallIDs(msg agent.Message) []string {
	var ids []string
	for _, c := range msg.Contents {
		if c.Kind == agent.ContentFunctionCall && c.FunctionCall != nil && c.FunctionCall.CallID != "" {
			ids = append(ids, c.FunctionCall.CallID)
		}
	}
	return ids
}

func emptyResult(msg agent.Message) bool {
	if len(msg.Contents) == 0 || msg.Contents[0].Kind != agent.ContentFunctionResult {
		return true
	}
	result := msg.Contents[0].FunctionResult.Result
	s, ok := result.(string)
	return !ok || s == ""
}

func contentHash(msg agent.Message) uint64 {
	h := fnv.New64a()
	for _, c := range msg.Contents {
		fmt.Fprintf(h, "%v|%s|", c.Kind, c.Text)
	}
	return h.Sum64()
}
