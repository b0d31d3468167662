package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"
)

// executeNode runs a node with the configured timeout and normalizes its
// result.
//
// The returned Result always carries the node's name. A panic inside Run, a
// timeout, or a non-nil Err all produce Forward=false with meta["error"] set,
// so one failing node never disturbs its siblings in the layer.
func executeNode(ctx context.Context, name string, node Node, state State, timeout time.Duration) (res Result) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &NodeError{
				Message: fmt.Sprintf("panic: %v", r),
				Code:    "NODE_PANIC",
				NodeID:  name,
			}}
		}
		res = normalize(name, res)
	}()

	res = node.Run(ctx, state)

	if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) && res.Err == nil {
		res.Err = &NodeError{
			Message: fmt.Sprintf("exceeded timeout of %v", timeout),
			Code:    "NODE_TIMEOUT",
			NodeID:  name,
			Cause:   context.DeadlineExceeded,
		}
	}
	return res
}

func normalize(name string, res Result) Result {
	res.NodeName = name
	if res.Err != nil {
		res.Err = attribute(name, res.Err)
		res.Forward = false
		meta := maps.Clone(res.Meta)
		if meta == nil {
			meta = map[string]any{}
		}
		meta["error"] = res.Err.Error()
		res.Meta = meta
	}
	return res
}

// attribute returns err with the node name filled in, for errors built by
// nodes that do not know the name they were registered under. The node's own
// value is copied, never modified, since it may be shared across runs.
func attribute(name string, err error) error {
	switch e := err.(type) {
	case *NodeError:
		if e.NodeID == "" {
			c := *e
			c.NodeID = name
			return &c
		}
	case *ServiceCallError:
		if e.NodeID == "" {
			c := *e
			c.NodeID = name
			return &c
		}
	}
	return err
}
