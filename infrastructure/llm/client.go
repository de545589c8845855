// Package llm resolves the generation backends the ad pipeline writes
// copy through. OpenAI, Anthropic, and Google Gemini sit behind one
// small Generator interface; middleware layers retries, pacing,
// metrics, and tracing around any of them without the pipeline knowing
// which provider it is talking to.
//
// The pipeline itself only sees ports.LLMClient. Client adapts a
// wrapped Generator to that surface, parsing the pipeline's loose
// option map into typed Options exactly once at the boundary so
// providers never touch map[string]any.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-copyforge/internal/ports"
)

// Completion is one provider response. Token counts come from the
// provider's usage metadata when available and from estimation when not.
type Completion struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Generator is the minimal surface a generation backend exposes. Every
// provider and every middleware implements it, which is what lets the
// middleware chain wrap any backend.
type Generator interface {
	// Generate sends one prompt and returns the completion. Implementations
	// must honor ctx cancellation and return ProviderError for backend
	// failures so retry and metrics layers can classify them.
	Generate(ctx context.Context, prompt string, opts Options) (Completion, error)

	// Model returns the model the next Generate call will use.
	Model() string
}

// Middleware wraps a Generator with a cross-cutting concern such as
// retries or request pacing. Chains are composed outermost-first.
type Middleware func(Generator) Generator

// ClientConfig configures a provider-backed client.
type ClientConfig struct {
	// APIKey authenticates against the provider.
	APIKey string

	// Model selects the model; empty picks the provider default.
	Model string

	// BaseURL overrides the provider endpoint when non-empty.
	BaseURL string

	// Timeout bounds individual HTTP requests. Zero means no limit;
	// the pipeline applies its own per-call deadlines regardless.
	Timeout time.Duration

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// ProviderFactory builds a bare provider Generator from configuration.
type ProviderFactory func(ClientConfig) (Generator, error)

// providerFactories maps provider names to their factories. Providers
// self-register from init so importing the package is enough.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory installs a factory under a provider name,
// replacing any previous registration.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// Client adapts a middleware-wrapped Generator to ports.LLMClient.
type Client struct {
	provider string
	core     Generator
}

// NewClient builds a client for the named provider, wrapping it with
// the configured middleware chain.
func NewClient(provider string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("building %s provider: %w", provider, err)
	}

	// Wrap in reverse so the first configured middleware ends up outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{provider: provider, core: core}, nil
}

// Complete sends a prompt and returns the generated text. The option
// map is parsed into typed Options here; unknown keys are ignored.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	completion, err := c.core.Generate(ctx, prompt, parseOptions(options))
	if err != nil {
		return "", err
	}
	return completion.Text, nil
}

// EstimateTokens approximates the token count of text without calling
// the provider. Used for budget reservations before a call is made.
func (c *Client) EstimateTokens(text string) (int, error) {
	return estimateTokens(text), nil
}

// GetModel returns the model the underlying provider is configured with.
func (c *Client) GetModel() string { return c.core.Model() }

// GetProvider returns the provider name the client was built for. The
// pipeline uses it to label candidates and metrics.
func (c *Client) GetProvider() string { return c.provider }

var _ ports.LLMClient = (*Client)(nil)

// estimateTokens approximates provider token counts at about four bytes
// per token. Coarse, but close enough for budget accounting on short
// Spanish-language ad copy.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
