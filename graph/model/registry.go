package model

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Provider identifies the API family serving a model.
type Provider string

// Supported providers. DeepInfra speaks the OpenAI protocol under its own
// base URL.
const (
	ProviderOpenAI    Provider = "openai"
	ProviderDeepInfra Provider = "deepinfra"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "meta-llama/Meta-Llama-3-70B-Instruct"

// DeepInfraBaseURL is the OpenAI-compatible endpoint of DeepInfra.
const DeepInfraBaseURL = "https://api.deepinfra.com/v1/openai"

// ErrUnknownModel is returned by Registry.Lookup for unregistered models.
var ErrUnknownModel = errors.New("unknown model")

// Backend describes how to reach one model.
type Backend struct {
	Model    string
	Provider Provider

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string

	SupportsJSON  bool
	SupportsTools bool
}

// Registry maps model names to backends. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates a registry holding backends.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		r.backends[b.Model] = b
	}
	return r
}

// DefaultRegistry returns a registry with the models known out of the box.
func DefaultRegistry() *Registry {
	deepinfra := func(name string) Backend {
		return Backend{Model: name, Provider: ProviderDeepInfra, BaseURL: DeepInfraBaseURL, APIKeyEnv: "DEEPINFRA_API_KEY"}
	}
	openai := func(name string) Backend {
		return Backend{Model: name, Provider: ProviderOpenAI, APIKeyEnv: "OPENAI_API_KEY", SupportsTools: true}
	}
	return NewRegistry(
		deepinfra("meta-llama/Meta-Llama-3-70B-Instruct"),
		deepinfra("meta-llama/Meta-Llama-3-8B-Instruct"),
		deepinfra("databricks/dbrx-instruct"),
		deepinfra("cognitivecomputations/dolphin-2.6-mixtral-8x7b"),
		openai("gpt-3.5-turbo"),
		openai("gpt-4-turbo"),
		openai("gpt-4o"),
		Backend{Model: "claude-3-5-sonnet-latest", Provider: ProviderAnthropic, APIKeyEnv: "ANTHROPIC_API_KEY", SupportsTools: true},
		Backend{Model: "gemini-2.5-flash", Provider: ProviderGoogle, APIKeyEnv: "GOOGLE_API_KEY", SupportsJSON: true, SupportsTools: true},
	)
}

// Register adds or replaces a backend.
func (r *Registry) Register(b Backend) error {
	if b.Model == "" {
		return errors.New("backend model cannot be empty")
	}
	switch b.Provider {
	case ProviderOpenAI, ProviderDeepInfra, ProviderAnthropic, ProviderGoogle:
	default:
		return fmt.Errorf("backend %s: unsupported provider %q", b.Model, b.Provider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Model] = b
	return nil
}

// Lookup returns the backend serving name.
func (r *Registry) Lookup(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[name]
	if !ok {
		return Backend{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return b, nil
}

// Models returns the registered model names, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
