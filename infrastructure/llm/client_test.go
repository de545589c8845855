package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator is the in-package test double for provider backends.
type stubGenerator struct {
	model      string
	completion Completion
	err        error

	calls     int
	gotPrompt string
	gotOpts   Options
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, opts Options) (Completion, error) {
	s.calls++
	s.gotPrompt = prompt
	s.gotOpts = opts
	return s.completion, s.err
}

func (s *stubGenerator) Model() string { return s.model }

// registerStub installs a factory returning the given stub under a
// test-only provider name and removes it when the test ends.
func registerStub(t *testing.T, stub *stubGenerator) string {
	t.Helper()
	const name = "stub"
	RegisterProviderFactory(name, func(ClientConfig) (Generator, error) {
		return stub, nil
	})
	t.Cleanup(func() { delete(providerFactories, name) })
	return name
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("openai", ClientConfig{Model: "gpt-4.1"})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient("nonexistent", ClientConfig{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewClient_FirstMiddlewareIsOutermost(t *testing.T) {
	stub := &stubGenerator{model: "stub-model"}
	name := registerStub(t, stub)

	var order []string
	tag := func(label string) Middleware {
		return func(next Generator) Generator {
			return generatorFunc{
				model: next.Model,
				generate: func(ctx context.Context, prompt string, opts Options) (Completion, error) {
					order = append(order, label)
					return next.Generate(ctx, prompt, opts)
				},
			}
		}
	}

	client, err := NewClient(name, ClientConfig{
		APIKey:     "key",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "hola", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestClient_CompleteParsesOptionMap(t *testing.T) {
	stub := &stubGenerator{
		model:      "stub-model",
		completion: Completion{Text: "respuesta", TokensIn: 10, TokensOut: 5},
	}
	name := registerStub(t, stub)

	client, err := NewClient(name, ClientConfig{APIKey: "key"})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "hola", map[string]any{
		"temperature": 0.8,
		"max_tokens":  512,
	})
	require.NoError(t, err)

	assert.Equal(t, "respuesta", text)
	assert.Equal(t, "hola", stub.gotPrompt)
	require.NotNil(t, stub.gotOpts.Temperature)
	assert.Equal(t, 0.8, *stub.gotOpts.Temperature)
	assert.Equal(t, 512, stub.gotOpts.MaxTokens)
}

func TestClient_ProviderAndModel(t *testing.T) {
	stub := &stubGenerator{model: "stub-model"}
	name := registerStub(t, stub)

	client, err := NewClient(name, ClientConfig{APIKey: "key"})
	require.NoError(t, err)

	assert.Equal(t, name, client.GetProvider())
	assert.Equal(t, "stub-model", client.GetModel())
}

func TestClient_EstimateTokens(t *testing.T) {
	stub := &stubGenerator{model: "stub-model"}
	name := registerStub(t, stub)

	client, err := NewClient(name, ClientConfig{APIKey: "key"})
	require.NoError(t, err)

	n, err := client.EstimateTokens("doce letras!")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = client.EstimateTokens("")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// generatorFunc adapts plain functions to the Generator interface for
// middleware tests.
type generatorFunc struct {
	generate func(context.Context, string, Options) (Completion, error)
	model    func() string
}

func (g generatorFunc) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	return g.generate(ctx, prompt, opts)
}

func (g generatorFunc) Model() string { return g.model() }
