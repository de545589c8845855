package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicDefaultModel is used when no model is configured for Anthropic.
const AnthropicDefaultModel = "claude-4-sonnet"

func init() {
	RegisterProviderFactory("anthropic", newAnthropicProvider)
}

// anthropicProvider generates ad copy through Anthropic's Messages API.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(config ClientConfig) (Generator, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &anthropicProvider{client: anthropic.NewClient(opts...), model: model}, nil
}

func (p *anthropicProvider) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	message, err := p.client.Messages.New(ctx, p.buildParams(prompt, opts))
	if err != nil {
		return Completion{}, p.classify(ctx, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}
	if text.Len() == 0 {
		return Completion{}, NewProviderError("anthropic", ErrorTypeUnknown, 0,
			"empty completion", ErrEmptyResponse)
	}

	out := text.String()
	return Completion{
		Text:      out,
		TokensIn:  tokensOrEstimate(int(message.Usage.InputTokens), prompt),
		TokensOut: tokensOrEstimate(int(message.Usage.OutputTokens), out),
	}, nil
}

// buildParams maps Options onto the Messages API request. Anthropic
// carries the system instruction as a dedicated request field rather
// than a message.
func (p *anthropicProvider) buildParams(prompt string, opts Options) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.modelOrDefault(p.model)),
		MaxTokens: int64(opts.maxTokensOrDefault()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.Temperature != nil {
		// Anthropic accepts temperatures up to 1.
		params.Temperature = anthropic.Float(clampFloat(*opts.Temperature, 0, 1))
	}
	if opts.TopP != nil {
		params.TopP = anthropic.Float(clampFloat(*opts.TopP, 0, 1))
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}
	return params
}

func (p *anthropicProvider) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ClassifyContextError("anthropic", ctx.Err())
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return ClassifyHTTPError("anthropic", apiErr.StatusCode, apiErr.Error(), err)
	}
	return ClassifyContextError("anthropic", err)
}

func (p *anthropicProvider) Model() string { return p.model }
