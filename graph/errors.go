// Package graph provides the layered graph execution engine for raggraph-go.
package graph

import (
	"errors"
	"fmt"
)

// Structural errors abort a run. They indicate a misconfigured graph rather
// than a runtime condition.
var (
	// ErrNoStartNode indicates that the graph does not have exactly one start node.
	ErrNoStartNode = errors.New("exactly one start node required")

	// ErrAmbiguousTerminal indicates that the final layer did not contain
	// exactly one result, or that two end nodes can be reached together.
	ErrAmbiguousTerminal = errors.New("ambiguous terminal result")

	// ErrInfiniteTraversal indicates that a layer repeated or the layer cap was hit.
	ErrInfiniteTraversal = errors.New("infinite traversal detected")

	// ErrTraversalCancelled indicates the run context was cancelled or timed out
	// while a layer was in flight.
	ErrTraversalCancelled = errors.New("traversal cancelled")

	// ErrUnknownNode indicates an edge or lookup referencing a node that was never added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateNode indicates a node name was registered twice.
	ErrDuplicateNode = errors.New("duplicate node")
)

// Per-node errors never abort a run. They travel in Result.Err and prune the
// branch that produced them.
var (
	// ErrInvalidUpstreamResult indicates an upstream result a node depends on
	// did not forward or has an unexpected shape.
	ErrInvalidUpstreamResult = errors.New("invalid upstream result")

	// ErrToolNotSelected indicates a tool node ran although its tool was not selected.
	ErrToolNotSelected = errors.New("tool not selected")
)

// EngineError represents a structural error from Graph operations.
//
// Code is a machine-readable identifier (e.g. "NO_START_NODE"). Err is the
// sentinel the error matches with errors.Is.
type EngineError struct {
	Message string
	Code    string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is support.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NodeError represents an error that occurred during node execution.
// It provides structured error information for better observability and debugging.
type NodeError struct {
	// Message is the human-readable error description.
	Message string

	// Code is a machine-readable error code for programmatic handling.
	Code string

	// NodeID identifies which node produced this error.
	NodeID string

	// Cause is the underlying error that caused this NodeError.
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause error for error wrapping support.
func (e *NodeError) Unwrap() error {
	return e.Cause
}

// ServiceCallError wraps a failure of an external service (chat completion,
// web search, memory store) invoked from inside a node.
type ServiceCallError struct {
	// Service names the external collaborator, e.g. "chat", "web_search".
	Service string

	// NodeID identifies the calling node.
	NodeID string

	// Err is the error returned by the service client.
	Err error
}

func (e *ServiceCallError) Error() string {
	return fmt.Sprintf("node %s: %s call failed: %v", e.NodeID, e.Service, e.Err)
}

// Unwrap returns the service error.
func (e *ServiceCallError) Unwrap() error {
	return e.Err
}

// Failf builds a NodeError for nodeID that wraps the given sentinel, for use in
// Result.Err.
//
//	return graph.Result{NodeName: name, Err: graph.Failf(name, graph.ErrToolNotSelected, "web_search not in %v", tools)}
func Failf(nodeID string, sentinel error, format string, args ...any) *NodeError {
	return &NodeError{
		Message: fmt.Sprintf(format, args...),
		Code:    codeFor(sentinel),
		NodeID:  nodeID,
		Cause:   sentinel,
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidUpstreamResult):
		return "INVALID_UPSTREAM_RESULT"
	case errors.Is(err, ErrToolNotSelected):
		return "TOOL_NOT_SELECTED"
	default:
		return "NODE_FAILED"
	}
}
