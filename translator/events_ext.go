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
	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/predictive"
)

// This file isolates event constructors for the part of the AG-UI event
// surface the teacher's translator.go never exercises (it only drives
// Run/TextMessage/ToolCall events). The constructor shapes here follow the
// same NewXxxEvent(requiredArgs..., opts ...XxxOption) convention observed
// throughout translator.go, applied to the state/messages/custom event
// family. See DESIGN.md for the grounding note on this extrapolation.

func newStateSnapshotEvent(snapshot map[string]any) aguievents.Event {
	return aguievents.NewStateSnapshotEvent(snapshot)
}

func newStateDeltaEvent(ops []predictive.JSONPatchOp) aguievents.Event {
	delta := make([]any, 0, len(ops))
	for _, op := range ops {
		delta = append(delta, map[string]any{
			"op":    op.Op,
			"path":  op.Path,
			"value": op.Value,
		})
	}
	return aguievents.NewStateDeltaEvent(delta)
}

func newMessagesSnapshotEvent(messages []adapter.WireMessage) aguievents.Event {
	return aguievents.NewMessagesSnapshotEvent(messages)
}

func newCustomEvent(name string, value any) aguievents.Event {
	return aguievents.NewCustomEvent(name, aguievents.WithValue(value))
}

// NewPredictStateEvent builds the CustomEvent(name="PredictState", value=[…])
// emitted once per run, on first update, when predict_state_config is
// non-empty (§4.5 step 7, grounded on _state_manager.py's predict_state_event).
func NewPredictStateEvent(config map[string]adapter.PredictStateBinding) aguievents.Event {
	value := make([]map[string]string, 0, len(config))
	for stateKey, binding := range config {
		value = append(value, map[string]string{
			"state_key":     stateKey,
			"tool":          binding.Tool,
			"tool_argument": binding.ToolArgument,
		})
	}
	return newCustomEvent("PredictState", value)
}
