package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// ProviderConfig describes one generation backend the registry can
// build clients for.
type ProviderConfig struct {
	// DefaultModel is used when a spec names no model.
	DefaultModel string

	// KeyEnvVar is the environment variable holding the API key. Keys
	// never live in configuration files.
	KeyEnvVar string

	// BaseURL overrides the provider endpoint when non-empty.
	BaseURL string
}

// DefaultProviders is the standard provider table. Callers copy it and
// override entries rather than mutating the shared map.
var DefaultProviders = map[string]ProviderConfig{
	"openai":    {DefaultModel: OpenAIDefaultModel, KeyEnvVar: "OPENAI_API_KEY"},
	"anthropic": {DefaultModel: AnthropicDefaultModel, KeyEnvVar: "ANTHROPIC_API_KEY"},
	"google":    {DefaultModel: GoogleDefaultModel, KeyEnvVar: "GOOGLE_API_KEY"},
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Providers is the provider table; empty falls back to DefaultProviders.
	Providers map[string]ProviderConfig

	// DefaultProvider answers GetDefaultClient and bare-model specs.
	DefaultProvider string

	// DefaultTimeout bounds provider HTTP requests for every built client.
	DefaultTimeout time.Duration

	// DefaultMiddleware is installed on every built client, first entry
	// outermost.
	DefaultMiddleware []Middleware
}

// Registry resolves "provider/model" specs into ready clients, building
// each combination once and caching it.
type Registry struct {
	config RegistryConfig

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry validates the provider table and returns an empty registry.
// Clients are built lazily on first request.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if len(config.Providers) == 0 {
		config.Providers = DefaultProviders
	}
	if config.DefaultProvider == "" {
		return nil, fmt.Errorf("default provider is required")
	}
	if _, ok := config.Providers[config.DefaultProvider]; !ok {
		return nil, fmt.Errorf("default provider %q is not in the provider table", config.DefaultProvider)
	}

	return &Registry{
		config:  config,
		clients: make(map[string]*Client),
	}, nil
}

// GetClient resolves a spec of the form "provider" or "provider/model"
// into a client, reading the API key from the provider's environment
// variable. Repeated calls for the same spec return the same client.
func (r *Registry) GetClient(spec string) (*Client, error) {
	provider, model, err := r.parseSpec(spec)
	if err != nil {
		return nil, err
	}
	key := provider + "/" + model

	r.mu.RLock()
	client, ok := r.clients[key]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[key]; ok {
		return client, nil
	}

	client, err = r.buildClient(provider, model)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client
	return client, nil
}

// GetDefaultClient returns a client for the default provider's default
// model.
func (r *Registry) GetDefaultClient() (*Client, error) {
	return r.GetClient(r.config.DefaultProvider)
}

// parseSpec splits "provider/model" and fills in defaults. A bare
// provider name selects that provider's default model.
func (r *Registry) parseSpec(spec string) (provider, model string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", fmt.Errorf("empty provider spec")
	}

	provider = spec
	if i := strings.Index(spec, "/"); i >= 0 {
		provider, model = spec[:i], spec[i+1:]
		if model == "" {
			return "", "", fmt.Errorf("spec %q names no model after the slash", spec)
		}
	}

	cfg, ok := r.config.Providers[provider]
	if !ok {
		return "", "", fmt.Errorf("unknown provider %q", provider)
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	return provider, model, nil
}

// buildClient assembles a client for a provider and model. Caller holds
// the write lock.
func (r *Registry) buildClient(provider, model string) (*Client, error) {
	cfg := r.config.Providers[provider]

	apiKey := os.Getenv(cfg.KeyEnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("provider %s: environment variable %s is not set", provider, cfg.KeyEnvVar)
	}

	return NewClient(provider, ClientConfig{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    cfg.BaseURL,
		Timeout:    r.config.DefaultTimeout,
		Middleware: r.config.DefaultMiddleware,
	})
}
