package translator

import (
	"context"
	"errors"
	"testing"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/stretchr/testify/assert"

	"github.com/agui-bridge/agui-run/agent"
)

func TestBeforeTranslateCallback(t *testing.T) {
	t.Run("with callback", func(t *testing.T) {
		base := agent.ContentItem{Kind: agent.ContentText, Text: "original"}
		replacement := agent.ContentItem{Kind: agent.ContentText, Text: "replacement"}
		cb := NewCallbacks().
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return &replacement, nil
			})
		got, err := cb.RunBeforeTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Equal(t, &replacement, got)
	})
	t.Run("return err", func(t *testing.T) {
		base := agent.ContentItem{Kind: agent.ContentText, Text: "original"}
		cb := NewCallbacks().
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return nil, errors.New("fail")
			})
		got, err := cb.RunBeforeTranslate(context.Background(), base)
		assert.Error(t, err)
		assert.Nil(t, got)
	})
	t.Run("both nil", func(t *testing.T) {
		base := agent.ContentItem{Kind: agent.ContentText, Text: "original"}
		cb := NewCallbacks().
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return nil, nil
			})
		got, err := cb.RunBeforeTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
	t.Run("multiple callbacks", func(t *testing.T) {
		base := agent.ContentItem{Kind: agent.ContentText, Text: "original"}
		item1 := agent.ContentItem{Kind: agent.ContentText, Text: "item-1"}
		item2 := agent.ContentItem{Kind: agent.ContentText, Text: "item-2"}
		cb := NewCallbacks().
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return &item1, nil
			}).
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return &item2, nil
			})
		got, err := cb.RunBeforeTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Equal(t, &item1, got)
	})
	t.Run("multiple callbacks return nil", func(t *testing.T) {
		base := agent.ContentItem{Kind: agent.ContentText, Text: "original"}
		item2 := agent.ContentItem{Kind: agent.ContentText, Text: "item-2"}
		cb := NewCallbacks().
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return nil, nil
			}).
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return &item2, nil
			})
		got, err := cb.RunBeforeTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Equal(t, &item2, got)
	})
	t.Run("multiple callbacks return err", func(t *testing.T) {
		base := agent.ContentItem{Kind: agent.ContentText, Text: "original"}
		item2 := agent.ContentItem{Kind: agent.ContentText, Text: "item-2"}
		cb := NewCallbacks().
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return nil, errors.New("fail")
			}).
			RegisterBeforeTranslate(func(ctx context.Context, item agent.ContentItem) (*agent.ContentItem, error) {
				return &item2, nil
			})
		got, err := cb.RunBeforeTranslate(context.Background(), base)
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestAfterTranslateCallback(t *testing.T) {
	t.Run("with callback", func(t *testing.T) {
		base := aguievents.NewRunFinishedEvent("thread", "run")
		replacement := aguievents.NewRunErrorEvent("callback override")
		cb := NewCallbacks().
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return replacement, nil
			})
		got, err := cb.RunAfterTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Equal(t, replacement, got)
	})
	t.Run("return err", func(t *testing.T) {
		base := aguievents.NewRunFinishedEvent("thread", "run")
		cb := NewCallbacks().
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return nil, errors.New("fail")
			})
		got, err := cb.RunAfterTranslate(context.Background(), base)
		assert.Error(t, err)
		assert.Nil(t, got)
	})
	t.Run("both nil", func(t *testing.T) {
		base := aguievents.NewRunFinishedEvent("thread", "run")
		cb := NewCallbacks().
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return nil, nil
			})
		got, err := cb.RunAfterTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
	t.Run("multiple callbacks", func(t *testing.T) {
		base := aguievents.NewRunFinishedEvent("thread", "run")
		event1 := aguievents.NewRunFinishedEvent("thread", "run")
		event2 := aguievents.NewRunFinishedEvent("thread", "run")
		cb := NewCallbacks().
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return event1, nil
			}).
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return event2, nil
			})
		got, err := cb.RunAfterTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Equal(t, event1, got)
	})
	t.Run("multiple callbacks return nil", func(t *testing.T) {
		base := aguievents.NewRunFinishedEvent("thread", "run")
		event2 := aguievents.NewRunFinishedEvent("thread", "run")
		cb := NewCallbacks().
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return nil, nil
			}).
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return event2, nil
			})
		got, err := cb.RunAfterTranslate(context.Background(), base)
		assert.NoError(t, err)
		assert.Equal(t, event2, got)
	})
	t.Run("multiple callbacks return err", func(t *testing.T) {
		base := aguievents.NewRunFinishedEvent("thread", "run")
		event2 := aguievents.NewRunFinishedEvent("thread", "run")
		cb := NewCallbacks().
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return nil, errors.New("fail")
			}).
			RegisterAfterTranslate(func(ctx context.Context, event aguievents.Event) (aguievents.Event, error) {
				return event2, nil
			})
		got, err := cb.RunAfterTranslate(context.Background(), base)
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}
