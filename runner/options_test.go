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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agui-bridge/agui-run/adapter"
	"github.com/agui-bridge/agui-run/agent"
	"github.com/agui-bridge/agui-run/approval"
	"github.com/agui-bridge/agui-run/translator"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()
	assert.NotNil(t, opts.Adapter)
	assert.NotNil(t, opts.ApprovalCoordinator)
	assert.Nil(t, opts.Executor)
	assert.Nil(t, opts.Tools)
	assert.Nil(t, opts.StateSchema)
	assert.Equal(t, "", opts.StructuredOutputKey)
	assert.Nil(t, opts.ResponseFormat)
	assert.False(t, opts.RequireConfirmation)
	assert.Nil(t, opts.TranslateCallbacks)
}

func TestWithAdapter(t *testing.T) {
	a := adapter.New()
	opts := NewOptions(WithAdapter(a))
	assert.Equal(t, a, opts.Adapter)
}

func TestWithExecutor(t *testing.T) {
	e := &fakeExecutor{}
	opts := NewOptions(WithExecutor(e))
	assert.Equal(t, e, opts.Executor)
}

func TestWithApprovalCoordinator(t *testing.T) {
	c := approval.New(approval.RecipeConfirmationStrategy{})
	opts := NewOptions(WithApprovalCoordinator(c))
	assert.Same(t, c, opts.ApprovalCoordinator)
}

func TestWithTools(t *testing.T) {
	tools := []agent.Tool{&fakeTool{name: "search"}}
	opts := NewOptions(WithTools(tools))
	assert.Equal(t, tools, opts.Tools)
}

func TestWithStateSchema(t *testing.T) {
	schema := adapter.StateSchema{"steps": map[string]any{"type": "array"}}
	opts := NewOptions(WithStateSchema(schema))
	assert.Equal(t, schema, opts.StateSchema)
}

func TestWithStructuredOutputKey(t *testing.T) {
	opts := NewOptions(WithStructuredOutputKey("result"))
	assert.Equal(t, "result", opts.StructuredOutputKey)
}

func TestWithResponseFormat(t *testing.T) {
	format := map[string]any{"type": "json_object"}
	opts := NewOptions(WithResponseFormat(format))
	assert.Equal(t, format, opts.ResponseFormat)
}

func TestWithRequireConfirmation(t *testing.T) {
	opts := NewOptions(WithRequireConfirmation(true))
	assert.True(t, opts.RequireConfirmation)
}

func TestWithTranslateCallbacks(t *testing.T) {
	cb := translator.NewCallbacks()
	opts := NewOptions(WithTranslateCallbacks(cb))
	assert.Same(t, cb, opts.TranslateCallbacks)
}
