//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/approval"
	"github.com/agui-bridge/agui-run/translator"
)

// Options holds the options for the runner.
type Options struct {
	Adapter             adapter.Adapter
	Executor            agent.Executor
	ApprovalCoordinator *approval.Coordinator
	Tools               []agent.Tool
	StateSchema         adapter.StateSchema
	StructuredOutputKey string
	ResponseFormat      map[string]any
	RequireConfirmation bool
	TranslateCallbacks  *translator.Callbacks
}

// NewOptions creates a new options instance.
func NewOptions(opt ...Option) *Options {
	opts := &Options{
		Adapter:             adapter.New(),
		ApprovalCoordinator: approval.New(nil),
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option is a function that configures the options.
type Option func(*Options)

// WithAdapter sets the Message Adapter. Defaults to adapter.New().
func WithAdapter(a adapter.Adapter) Option {
	return func(o *Options) {
		o.Adapter = a
	}
}

// WithExecutor sets the Executor used to run approved tool calls.
func WithExecutor(e agent.Executor) Option {
	return func(o *Options) {
		o.Executor = e
	}
}

// WithApprovalCoordinator sets the Approval Coordinator, including its
// ConfirmationStrategy. Defaults to approval.New(nil) (DefaultConfirmationStrategy).
func WithApprovalCoordinator(c *approval.Coordinator) Option {
	return func(o *Options) {
		o.ApprovalCoordinator = c
	}
}

// WithTools sets the server-declared tools the inner agent is configured
// with, collected alongside any MCP-provided tools (§4.5 step 3).
func WithTools(tools []agent.Tool) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// WithStateSchema sets the JSON Schema fragments used for schema-default
// application and structured-output key selection.
func WithStateSchema(schema adapter.StateSchema) Option {
	return func(o *Options) {
		o.StateSchema = schema
	}
}

// WithStructuredOutputKey enables structured-output mode (§4.5 step 9): text
// deltas are suppressed from the client and the accumulated text is parsed
// as JSON into state[key] once the stream ends.
func WithStructuredOutputKey(key string) Option {
	return func(o *Options) {
		o.StructuredOutputKey = key
	}
}

// WithResponseFormat sets the response-format option forwarded to the inner
// agent, typically a JSON-schema constraint for structured-output mode.
func WithResponseFormat(format map[string]any) Option {
	return func(o *Options) {
		o.ResponseFormat = format
	}
}

// WithRequireConfirmation enables the confirm_changes tool-call triplet
// following every approval request (§4.3 "Confirm-changes").
func WithRequireConfirmation(require bool) Option {
	return func(o *Options) {
		o.RequireConfirmation = require
	}
}

// WithTranslateCallbacks sets translation lifecycle hooks (§4.5 step 7).
func WithTranslateCallbacks(callbacks *translator.Callbacks) Option {
	return func(o *Options) {
		o.TranslateCallbacks = callbacks
	}
}
