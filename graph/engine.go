package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/raggraph-go/graph/emit"
)

// Graph owns a set of named nodes and the gated edges between them, and runs
// them layer by layer.
//
// A Graph is built once (Add, Connect) and is read-only afterwards. Edge
// enablement and yield messages are tracked per run, so the same Graph may
// serve concurrent runs.
//
// Example:
//
//	g := graph.New(graph.WithNodeTimeout(30 * time.Second))
//	_ = g.Add("start", graph.Passthrough{}, graph.AsStart())
//	_ = g.Add("answer", answerNode, graph.AsEnd())
//	_ = g.Connect("start", "answer", nil)
//
//	out, err := g.Run(ctx, graph.NewState("hello", nil))
type Graph struct {
	mu sync.RWMutex

	// nodes maps node names to registrations
	nodes map[string]*registration

	// order preserves registration order for deterministic validation
	order []string

	// edges in declaration order
	edges []Edge

	opts   Options
	optErr error
}

type registration struct {
	node  Node
	start bool
	end   bool
}

// NodeOption configures a node at registration time.
type NodeOption func(*registration)

// AsStart marks the node as the graph's entry point. A valid graph has
// exactly one start node.
func AsStart() NodeOption {
	return func(r *registration) { r.start = true }
}

// AsEnd marks the node as terminal: once it is eligible for the next layer
// the traversal stops.
func AsEnd() NodeOption {
	return func(r *registration) { r.end = true }
}

// Outcome is what a successful Run produces.
type Outcome struct {
	// Response is the payload of the sole result in the final layer.
	Response any

	// Messages are the yield messages of every executed node, in layer order
	// and, within a layer, in sibling order.
	Messages []YieldMessage

	// State is the final state, including every executed node's result.
	State State

	// Layers is the number of executed layers.
	Layers int

	// RunID identifies the run in emitted events.
	RunID string
}

// New creates an empty Graph. An invalid option is reported by Validate and Run.
func New(opts ...Option) *Graph {
	g := &Graph{nodes: make(map[string]*registration)}
	for _, opt := range opts {
		if err := opt(&g.opts); err != nil && g.optErr == nil {
			g.optErr = err
		}
	}
	return g
}

// Add registers a node under a unique, non-empty name.
func (g *Graph) Add(name string, node Node, opts ...NodeOption) error {
	if name == "" {
		return &EngineError{Message: "node name cannot be empty", Code: "INVALID_NODE"}
	}
	if node == nil {
		return &EngineError{Message: "node cannot be nil: " + name, Code: "INVALID_NODE"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[name]; exists {
		return &EngineError{
			Message: "duplicate node name: " + name,
			Code:    "DUPLICATE_NODE",
			Err:     ErrDuplicateNode,
		}
	}

	reg := &registration{node: node}
	for _, opt := range opts {
		opt(reg)
	}
	g.nodes[name] = reg
	g.order = append(g.order, name)
	return nil
}

// Connect adds an edge from one node to another. A nil gate leaves the edge
// always enabled. Endpoints are checked by Validate, so nodes and edges may be
// declared in any order.
func (g *Graph) Connect(from, to string, gate Gate) error {
	if from == "" || to == "" {
		return &EngineError{Message: "edge endpoints cannot be empty", Code: "INVALID_EDGE"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = append(g.edges, Edge{From: from, To: to, Gate: gate})
	return nil
}

// Edges returns a copy of the graph's edges in declaration order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.edges)
}

// Nodes returns the registered node names in registration order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.order)
}

// plan is an immutable copy of the graph taken at the start of a run.
type plan struct {
	nodes    map[string]*registration
	edges    []Edge
	start    string
	maxLayer int
}

func (g *Graph) snapshot() (*plan, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, err := g.validateLocked()
	if err != nil {
		return nil, err
	}

	p := &plan{
		nodes:    make(map[string]*registration, len(g.nodes)),
		edges:    slices.Clone(g.edges),
		start:    start,
		maxLayer: g.opts.MaxLayers,
	}
	for name, reg := range g.nodes {
		p.nodes[name] = reg
	}
	if p.maxLayer == 0 {
		p.maxLayer = len(g.nodes)
	}
	return p, nil
}

// Run executes the graph against state and returns the terminal response and
// the yield messages produced along the way.
//
// Structural problems (no start node, repeated layers, ambiguous terminal
// layer) and cancellation return an error. A failing node does not: its
// result carries Err, does not forward, and its branch is pruned.
func (g *Graph) Run(ctx context.Context, state State) (Outcome, error) {
	p, err := g.snapshot()
	if err != nil {
		return Outcome{}, err
	}

	r := &run{
		plan:    p,
		opts:    g.opts,
		emitter: g.opts.Emitter,
		metrics: g.opts.Metrics,
	}
	if r.emitter == nil {
		r.emitter = emit.NewNullEmitter()
	}
	if g.opts.RunID != nil {
		r.id = g.opts.RunID()
	} else {
		r.id = uuid.NewString()
	}

	if g.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.RunTimeout)
		defer cancel()
	}

	out, err := r.execute(ctx, state)
	out.RunID = r.id
	switch {
	case err == nil:
		r.metrics.RecordRun("ok")
		r.emit(out.Layers, "", "run_complete", map[string]any{"layers": out.Layers})
	case IsCancelled(err):
		r.metrics.RecordRun("cancelled")
		r.emit(out.Layers, "", "run_failed", map[string]any{"error": err.Error()})
	default:
		r.metrics.RecordRun("error")
		r.emit(out.Layers, "", "run_failed", map[string]any{"error": err.Error()})
	}
	return out, err
}

// IsCancelled reports whether err is a traversal cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrTraversalCancelled)
}

type run struct {
	*plan
	opts    Options
	id      string
	emitter emit.Emitter
	metrics *PrometheusMetrics

	// mu guards abandoned. Once a cancelled layer is abandoned, nodes still
	// running in it report nothing.
	mu        sync.Mutex
	abandoned bool
}

func (r *run) emit(step int, nodeID, msg string, meta map[string]any) {
	r.emitter.Emit(emit.Event{RunID: r.id, Step: step, NodeID: nodeID, Msg: msg, Meta: meta})
}

func (r *run) execute(ctx context.Context, state State) (Outcome, error) {
	if state.ParentResults == nil {
		state.ParentResults = map[string]Result{}
	}
	if state.AllResults == nil {
		state.AllResults = map[string]Result{}
	}

	r.emit(0, r.start, "run_start", map[string]any{"nodes": len(r.nodes)})

	var (
		messages []YieldMessage
		current  = []string{r.start}
		seen     = make(map[string]struct{})
		layers   int
	)

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{State: state, Messages: messages, Layers: layers}, cancelled(err)
		}

		siblings := r.successors(layers+1, current, state)
		if len(siblings) == 0 {
			break
		}

		key := layerKey(siblings)
		if _, dup := seen[key]; dup {
			return Outcome{State: state, Messages: messages, Layers: layers}, &EngineError{
				Message: fmt.Sprintf("layer %v repeats an earlier layer", siblings),
				Code:    "INFINITE_TRAVERSAL",
				Err:     ErrInfiniteTraversal,
			}
		}
		if layers >= r.maxLayer {
			return Outcome{State: state, Messages: messages, Layers: layers}, &EngineError{
				Message: fmt.Sprintf("exceeded %d layers", r.maxLayer),
				Code:    "MAX_LAYERS_EXCEEDED",
				Err:     ErrInfiniteTraversal,
			}
		}
		seen[key] = struct{}{}
		layers++

		results, err := r.runLayer(ctx, layers, siblings, state)
		if err != nil {
			return Outcome{State: state, Messages: messages, Layers: layers}, err
		}

		layer := make(map[string]Result, len(results))
		var next []string
		stop := false
		for i, res := range results {
			name := siblings[i]
			layer[name] = res
			messages = append(messages, res.YieldMessages...)
			if res.Forward {
				next = append(next, name)
				if r.nodes[name].end {
					stop = true
				}
			}
		}
		state = state.publish(layer)

		r.emit(layers, "", "layer_complete", map[string]any{
			"next": next,
			"stop": stop,
		})

		if stop {
			break
		}
		current = next
	}

	out := Outcome{State: state, Messages: messages, Layers: layers}
	if len(state.ParentResults) != 1 {
		return out, &EngineError{
			Message: fmt.Sprintf("final layer holds %d results, want exactly 1", len(state.ParentResults)),
			Code:    "AMBIGUOUS_TERMINAL",
			Err:     ErrAmbiguousTerminal,
		}
	}
	for _, res := range state.ParentResults {
		out.Response = res.Response
	}
	return out, nil
}

// successors evaluates every outgoing edge of the current layer and returns
// the de-duplicated targets of the enabled ones, in edge declaration order.
func (r *run) successors(step int, current []string, state State) []string {
	inLayer := make(map[string]struct{}, len(current))
	for _, name := range current {
		inLayer[name] = struct{}{}
	}

	var siblings []string
	added := make(map[string]struct{})
	for _, e := range r.edges {
		if _, ok := inLayer[e.From]; !ok {
			continue
		}
		on, panicked := e.enabled(state)
		r.metrics.RecordGate(e.From, e.To, on)
		if e.Gate != nil {
			r.emit(step, e.From, "gate_evaluated", map[string]any{
				"to":       e.To,
				"enabled":  on,
				"panicked": panicked,
			})
		}
		if !on {
			continue
		}
		if _, dup := added[e.To]; dup {
			continue
		}
		added[e.To] = struct{}{}
		siblings = append(siblings, e.To)
	}
	return siblings
}

// runLayer executes siblings concurrently against the same state snapshot and
// waits for all of them. Results are returned in sibling order.
func (r *run) runLayer(ctx context.Context, step int, siblings []string, state State) ([]Result, error) {
	r.metrics.SetLayerSize(len(siblings))
	r.emit(step, "", "layer_start", map[string]any{"nodes": slices.Clone(siblings)})

	results := make([]Result, len(siblings))

	var eg errgroup.Group
	eg.SetLimit(len(siblings))
	for i, name := range siblings {
		node := r.nodes[name].node
		eg.Go(func() error {
			started := time.Now()
			res := executeNode(ctx, name, node, state, r.opts.NodeTimeout)
			latency := time.Since(started)

			r.mu.Lock()
			defer r.mu.Unlock()
			if r.abandoned {
				return nil
			}

			kind := KindOf(node)
			r.metrics.RecordNode(name, kind, latency, res)
			r.opts.Costs.RecordNode(name, res)
			meta := map[string]any{
				"kind":       kind.String(),
				"forward":    res.Forward,
				"latency_ms": latency.Milliseconds(),
			}
			if res.Err != nil {
				meta["error"] = res.Err.Error()
			}
			r.emit(step, name, nodeMsg(res), meta)

			results[i] = res
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = eg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.mu.Lock()
		r.abandoned = true
		r.mu.Unlock()
		return nil, cancelled(ctx.Err())
	}

	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}
	return results, nil
}

func nodeMsg(res Result) string {
	switch {
	case res.Err != nil:
		return "node_failed"
	case !res.Forward:
		return "node_pruned"
	default:
		return "node_complete"
	}
}

// cancelled matches both ErrTraversalCancelled and the context error.
func cancelled(cause error) error {
	return &EngineError{
		Message: fmt.Sprintf("traversal aborted: %v", cause),
		Code:    "TRAVERSAL_CANCELLED",
		Err:     fmt.Errorf("%w: %w", ErrTraversalCancelled, cause),
	}
}

func layerKey(names []string) string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return strings.Join(sorted, "\x00")
}
