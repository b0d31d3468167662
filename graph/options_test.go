package graph

import (
	"testing"
	"time"

	"github.com/dshills/raggraph-go/graph/emit"
)

func TestOptions(t *testing.T) {
	t.Run("valid options applied", func(t *testing.T) {
		em := emit.NewNullEmitter()
		g := New(
			WithMaxLayers(8),
			WithNodeTimeout(time.Second),
			WithRunTimeout(time.Minute),
			WithEmitter(em),
			WithRunID(func() string { return "id" }),
		)
		if g.optErr != nil {
			t.Fatalf("unexpected option error: %v", g.optErr)
		}
		if g.opts.MaxLayers != 8 {
			t.Errorf("expected MaxLayers = 8, got %d", g.opts.MaxLayers)
		}
		if g.opts.NodeTimeout != time.Second {
			t.Errorf("expected NodeTimeout = 1s, got %v", g.opts.NodeTimeout)
		}
		if g.opts.RunTimeout != time.Minute {
			t.Errorf("expected RunTimeout = 1m, got %v", g.opts.RunTimeout)
		}
		if g.opts.Emitter != em {
			t.Error("expected emitter to be set")
		}
	})

	t.Run("negative values rejected", func(t *testing.T) {
		for name, opt := range map[string]Option{
			"max layers":   WithMaxLayers(-1),
			"node timeout": WithNodeTimeout(-time.Second),
			"run timeout":  WithRunTimeout(-time.Second),
		} {
			if err := opt(&Options{}); err == nil {
				t.Errorf("%s: expected error for negative value", name)
			}
		}
	})
}
