//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tooling merges server-declared and client-declared tools into the
// set passed to one inner-agent invocation (§4.5 step 3 / §6 External
// Tooling Glue).
package tooling

import (
	"context"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/internal/log"
)

// ClientTool adapts a wire-declared ToolSpec into an agent.Tool. Client
// tools are always declaration-only: the server forwards their schema to
// the inner agent but never executes them locally.
type ClientTool struct {
	spec adapter.ToolSpec
}

// NewClientTool wraps a wire ToolSpec as a declaration-only agent.Tool.
func NewClientTool(spec adapter.ToolSpec) ClientTool { return ClientTool{spec: spec} }

func (t ClientTool) Name() string                 { return t.spec.Name }
func (t ClientTool) Description() string          { return t.spec.Description }
func (t ClientTool) Parameters() map[string]any   { return t.spec.Parameters }
func (t ClientTool) ApprovalMode() string         { return agent.ApprovalNeverRequire }
func (t ClientTool) DeclarationOnly() bool        { return true }

// CollectServerTools returns the agent's own configured tools plus, when the
// agent implements agent.MCPToolProvider, the functions exposed by its
// connected MCP server (§ Supplemented Features "MCP server-tool
// collection").
func CollectServerTools(ctx context.Context, a agent.Agent, configured []agent.Tool) []agent.Tool {
	tools := make([]agent.Tool, len(configured))
	copy(tools, configured)

	provider, ok := a.(agent.MCPToolProvider)
	if !ok {
		return tools
	}
	mcpTools, err := provider.MCPTools(ctx)
	if err != nil {
		log.Warnf("collect mcp tools: %v", err)
		return tools
	}
	return append(tools, mcpTools...)
}

// HasApprovalTools reports whether any tool in tools requires approval.
func HasApprovalTools(tools []agent.Tool) bool {
	for _, t := range tools {
		if t.ApprovalMode() == agent.ApprovalAlwaysRequire {
			return true
		}
	}
	return false
}

// MergeTools combines server and client tools without overriding server
// metadata. A server tool's approval requirement always rides along: if any
// server tool requires approval, the server tools are always returned even
// when no client tools add anything new, since the approval-resolution step
// needs the tool's metadata to find it.
func MergeTools(serverTools []agent.Tool, clientTools []agent.Tool) []agent.Tool {
	if len(clientTools) == 0 {
		if HasApprovalTools(serverTools) {
			return serverTools
		}
		return nil
	}

	serverNames := make(map[string]bool, len(serverTools))
	for _, t := range serverTools {
		serverNames[t.Name()] = true
	}

	unique := make([]agent.Tool, 0, len(clientTools))
	for _, t := range clientTools {
		if !serverNames[t.Name()] {
			unique = append(unique, t)
		}
	}

	if len(unique) == 0 {
		if HasApprovalTools(serverTools) {
			return serverTools
		}
		return nil
	}

	combined := make([]agent.Tool, 0, len(serverTools)+len(unique))
	combined = append(combined, serverTools...)
	combined = append(combined, unique...)
	return combined
}

// SchemaHasSteps reports whether a JSON Schema declares a "steps" property
// of type "array", the shape the confirm-changes tool's arguments carry.
func SchemaHasSteps(schema map[string]any) bool {
	if schema == nil {
		return false
	}
	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return false
	}
	steps, ok := properties["steps"].(map[string]any)
	if !ok {
		return false
	}
	return steps["type"] == "array"
}

// SelectApprovalToolName returns the name of the first client tool whose
// parameter schema declares a steps array, i.e. the tool the UI uses to
// render an approval/confirmation dialog.
func SelectApprovalToolName(clientTools []agent.Tool) string {
	for _, t := range clientTools {
		if t.Name() == "" {
			continue
		}
		if SchemaHasSteps(t.Parameters()) {
			return t.Name()
		}
	}
	return ""
}
