package graph

import (
	"fmt"
	"time"

	"github.com/dshills/raggraph-go/graph/emit"
)

// Options configures Graph execution behavior.
//
// Zero values are valid - the Graph will use sensible defaults.
type Options struct {
	// MaxLayers caps the number of executed layers. Zero means the number of
	// registered nodes, which is the longest possible run of an acyclic graph.
	MaxLayers int

	// NodeTimeout bounds a single node's Run. Zero means no per-node limit.
	NodeTimeout time.Duration

	// RunTimeout bounds the whole traversal. Zero means no limit beyond the
	// caller's context.
	RunTimeout time.Duration

	// Emitter receives observability events. Nil discards them.
	Emitter emit.Emitter

	// Metrics records Prometheus metrics. Nil disables metrics.
	Metrics *PrometheusMetrics

	// Costs accumulates the token usage reported by node results.
	Costs *CostTracker

	// RunID generates the identifier attached to a run's events.
	// Nil uses a random UUID.
	RunID func() string
}

// Option is a functional option for configuring a Graph.
//
// Example:
//
//	g := graph.New(
//	    graph.WithEmitter(emit.NewLogEmitter(os.Stderr, false)),
//	    graph.WithNodeTimeout(30*time.Second),
//	    graph.WithMaxLayers(16),
//	)
type Option func(*Options) error

// WithMaxLayers limits how many layers a run may execute before failing with
// ErrInfiniteTraversal.
//
// Default: the number of nodes in the graph.
func WithMaxLayers(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return fmt.Errorf("max layers must be >= 0, got %d", n)
		}
		o.MaxLayers = n
		return nil
	}
}

// WithNodeTimeout sets the maximum execution time of a single node.
//
// A node that exceeds it gets a cancelled context; its result is recorded as
// a failure and its branch is pruned.
func WithNodeTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d < 0 {
			return fmt.Errorf("node timeout must be >= 0, got %v", d)
		}
		o.NodeTimeout = d
		return nil
	}
}

// WithRunTimeout sets the wall-clock budget of Run. When exceeded, Run
// returns ErrTraversalCancelled.
func WithRunTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d < 0 {
			return fmt.Errorf("run timeout must be >= 0, got %v", d)
		}
		o.RunTimeout = d
		return nil
	}
}

// WithEmitter sets the observability event receiver.
func WithEmitter(e emit.Emitter) Option {
	return func(o *Options) error {
		o.Emitter = e
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	g := graph.New(graph.WithMetrics(graph.NewPrometheusMetrics(registry)))
func WithMetrics(m *PrometheusMetrics) Option {
	return func(o *Options) error {
		o.Metrics = m
		return nil
	}
}

// WithCostTracker records token usage and cost of every node result that
// reports it.
func WithCostTracker(ct *CostTracker) Option {
	return func(o *Options) error {
		o.Costs = ct
		return nil
	}
}

// WithRunID overrides run identifier generation, mostly for tests.
func WithRunID(fn func() string) Option {
	return func(o *Options) error {
		o.RunID = fn
		return nil
	}
}
