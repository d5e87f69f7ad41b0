//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package predictive implements the predictive-state engine (§4.2): while a
// function call's arguments stream in, it parses partial JSON and emits
// incremental JSON-Patch deltas against a user-visible state document.
package predictive

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/agui-bridge/agui-run/adapter"
)

// JSONPatchOp is a single RFC 6902-shaped patch operation. This module only
// ever produces {op:"replace", path:"/<key>", value:…}; it neither parses
// nor applies patches, so a dependency isn't warranted for it.
type JSONPatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Engine accumulates streaming tool-argument chunks per call and emits
// JSON-Patch deltas for state keys bound in the predict-state config.
// Operates only for tools named in the config; zero-value Engine with an
// empty config is inert.
type Engine struct {
	config map[string]adapter.PredictStateBinding

	accumulated      string
	lastEmitted      map[string]any
	pendingUpdates   map[string]any
}

// New creates a Predictive-State Engine. A nil/empty config means the
// engine never matches any tool and Ingest always returns nil.
func New(config map[string]adapter.PredictStateBinding) *Engine {
	return &Engine{
		config:      config,
		lastEmitted: map[string]any{},
	}
}

// Enabled reports whether the engine has any bindings configured.
func (e *Engine) Enabled() bool {
	return len(e.config) > 0
}

// IsPredictiveTool reports whether toolName is bound to any state key.
func (e *Engine) IsPredictiveTool(toolName string) bool {
	if toolName == "" {
		return false
	}
	for _, cfg := range e.config {
		if cfg.Tool == toolName {
			return true
		}
	}
	return false
}

// Reset clears the accumulator for a new tool call.
func (e *Engine) Reset() {
	e.accumulated = ""
}

// ExtractStateValue returns the (stateKey, value) bound to toolName given
// its (possibly complete) arguments, or ok=false if nothing binds.
func (e *Engine) ExtractStateValue(toolName, arguments string) (stateKey string, value any, ok bool) {
	if !e.Enabled() || arguments == "" {
		return "", nil, false
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(arguments), &parsed); err != nil {
		return "", nil, false
	}
	for key, cfg := range e.config {
		if cfg.Tool != toolName {
			continue
		}
		if cfg.ToolArgument == "*" {
			return key, parsed, true
		}
		if v, present := parsed[cfg.ToolArgument]; present {
			return key, v, true
		}
	}
	return "", nil, false
}

// Ingest appends argumentChunk to the per-call accumulator and attempts a
// strict JSON parse. On success it emits a replace delta per fully-resolved
// bound key (§4.2 "On success"); on failure it falls back to regex-based
// partial string extraction for string-valued bindings only (§4.2 "On
// failure").
func (e *Engine) Ingest(toolName, argumentChunk string) []JSONPatchOp {
	if toolName == "" || !e.Enabled() {
		return nil
	}
	e.accumulated += argumentChunk

	var parsed map[string]any
	if err := json.Unmarshal([]byte(e.accumulated), &parsed); err != nil {
		return e.emitPartialDeltas(toolName)
	}
	return e.emitCompleteDeltas(toolName, parsed)
}

func (e *Engine) emitPartialDeltas(toolName string) []JSONPatchOp {
	var ops []JSONPatchOp
	for stateKey, cfg := range e.config {
		if cfg.Tool != toolName || cfg.ToolArgument == "*" {
			continue
		}
		pattern := regexp.MustCompile(`"` + regexp.QuoteMeta(cfg.ToolArgument) + `":\s*"([^"]*)`)
		match := pattern.FindStringSubmatch(e.accumulated)
		if match == nil {
			continue
		}
		partial := unescapePartial(match[1])
		if last, ok := e.lastEmitted[stateKey]; ok && last == partial {
			continue
		}
		ops = append(ops, e.recordAndBuild(stateKey, partial))
	}
	return ops
}

func (e *Engine) emitCompleteDeltas(toolName string, parsed map[string]any) []JSONPatchOp {
	var ops []JSONPatchOp
	for stateKey, cfg := range e.config {
		if cfg.Tool != toolName {
			continue
		}
		var value any
		if cfg.ToolArgument == "*" {
			value = parsed
		} else if v, present := parsed[cfg.ToolArgument]; present {
			value = v
		} else {
			continue
		}
		if last, ok := e.lastEmitted[stateKey]; ok && equalValue(last, value) {
			continue
		}
		ops = append(ops, e.recordAndBuild(stateKey, value))
	}
	return ops
}

func (e *Engine) recordAndBuild(stateKey string, value any) JSONPatchOp {
	e.lastEmitted[stateKey] = value
	if e.pendingUpdates == nil {
		e.pendingUpdates = map[string]any{}
	}
	e.pendingUpdates[stateKey] = value
	return JSONPatchOp{Op: "replace", Path: fmt.Sprintf("/%s", stateKey), Value: value}
}

// ApplyPendingUpdates copies accumulated pending updates into currentState
// and clears them (§4.2 "Apply-on-result").
func (e *Engine) ApplyPendingUpdates(currentState map[string]any) {
	for k, v := range e.pendingUpdates {
		currentState[k] = v
	}
	e.pendingUpdates = nil
}

// unescapePartial reverses the fixed escape sequence in the order the
// regex-extracted partial string requires: \n, then \", then \\ last so a
// double backslash in the source doesn't get mangled by an earlier pass.
func unescapePartial(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

func equalValue(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}
