package graph

import "maps"

// Message is one role/content pair of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the shared context handed to every node of a layer.
//
// The engine is its only writer. Between layers it publishes fresh maps, so
// the snapshot a node receives is never modified while the node runs and
// nodes must treat it as read-only.
type State struct {
	// MessageHistory is the conversation so far. Informational.
	MessageHistory []Message

	// Prompt is the original user request.
	Prompt string

	// ParentResults holds the results of the most recently executed layer.
	ParentResults map[string]Result

	// AllResults accumulates the results of every layer executed so far.
	AllResults map[string]Result
}

// NewState creates the initial state for a run.
func NewState(prompt string, history []Message) State {
	return State{
		MessageHistory: history,
		Prompt:         prompt,
		ParentResults:  map[string]Result{},
		AllResults:     map[string]Result{},
	}
}

// Parent returns the result of node name from the previous layer.
func (s State) Parent(name string) (Result, bool) {
	r, ok := s.ParentResults[name]
	return r, ok
}

// Lookup returns the latest result of node name from any executed layer.
func (s State) Lookup(name string) (Result, bool) {
	r, ok := s.AllResults[name]
	return r, ok
}

// publish returns the state that follows a layer: layer becomes the parent
// results and is merged into a copy of AllResults, last write wins.
func (s State) publish(layer map[string]Result) State {
	all := make(map[string]Result, len(s.AllResults)+len(layer))
	maps.Copy(all, s.AllResults)
	maps.Copy(all, layer)

	next := s
	next.ParentResults = layer
	next.AllResults = all
	return next
}
