// Package agents assembles complete agent graphs from nodes and tools and
// registers them by name.
package agents

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dshills/raggraph-go/graph"
	"github.com/dshills/raggraph-go/graph/model"
	"github.com/dshills/raggraph-go/graph/tool"
	"github.com/dshills/raggraph-go/rag/nodes"
)

// ErrUnknownAgent is returned by Lookup for unregistered names.
var ErrUnknownAgent = errors.New("unknown agent")

// Deps are the collaborators an agent graph is built from.
type Deps struct {
	// Model answers every chat call of the graph.
	Model model.ChatModel

	// Search serves web_search lookups.
	Search tool.Tool

	// Memory serves memory_lookup lookups.
	Memory tool.Tool

	// GraphOptions are passed to graph.New.
	GraphOptions []graph.Option

	// NodeOptions are applied to every chat node.
	NodeOptions []nodes.Option
}

func (d Deps) validate() error {
	switch {
	case d.Model == nil:
		return errors.New("agent requires a chat model")
	case d.Search == nil:
		return errors.New("agent requires a search tool")
	case d.Memory == nil:
		return errors.New("agent requires a memory tool")
	}
	return nil
}

// Builder creates a fresh agent graph.
type Builder func(Deps) (*graph.Graph, error)

var registry = map[string]Builder{
	HAL9004Name: NewHAL9004,
}

// Lookup returns the builder registered under name.
func Lookup(name string) (Builder, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownAgent, name, Names())
	}
	return b, nil
}

// Names lists the registered agents, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IntentSelected enables an edge when categorizer selected intent.
func IntentSelected(categorizer string, intent nodes.Intent) graph.Gate {
	return func(state graph.State) bool {
		return slices.Contains(nodes.IntentsOf(state, categorizer, "intends"), intent)
	}
}

// CasualOnly enables an edge when casual is the only intent categorizer
// selected.
func CasualOnly(categorizer string) graph.Gate {
	return func(state graph.State) bool {
		intents := nodes.IntentsOf(state, categorizer, "intends")
		return len(intents) == 1 && intents[0] == nodes.IntentCasual
	}
}
