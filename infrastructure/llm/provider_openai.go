package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIDefaultModel is used when no model is configured for OpenAI.
const OpenAIDefaultModel = "gpt-4.1"

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
}

// openAIProvider generates ad copy through OpenAI's chat completion API.
type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(config ClientConfig) (Generator, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &openAIProvider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (p *openAIProvider) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(prompt, opts))
	if err != nil {
		return Completion{}, p.classify(ctx, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Completion{}, NewProviderError("openai", ErrorTypeUnknown, 0,
			"empty completion", ErrEmptyResponse)
	}

	text := resp.Choices[0].Message.Content
	return Completion{
		Text:      text,
		TokensIn:  tokensOrEstimate(resp.Usage.PromptTokens, prompt),
		TokensOut: tokensOrEstimate(resp.Usage.CompletionTokens, text),
	}, nil
}

// buildRequest maps Options onto the chat completion request. A system
// instruction becomes a leading system message.
func (p *openAIProvider) buildRequest(prompt string, opts Options) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:     opts.modelOrDefault(p.model),
		Messages:  messages,
		MaxTokens: opts.maxTokensOrDefault(),
	}
	if opts.Temperature != nil {
		req.Temperature = float32(clampFloat(*opts.Temperature, 0, 2))
	}
	if opts.TopP != nil {
		req.TopP = float32(clampFloat(*opts.TopP, 0, 1))
	}
	return req
}

func (p *openAIProvider) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ClassifyContextError("openai", ctx.Err())
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return ClassifyHTTPError("openai", apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	return ClassifyContextError("openai", err)
}

func (p *openAIProvider) Model() string { return p.model }

// tokensOrEstimate trusts the provider's usage count when present and
// falls back to estimation when the API omitted it.
func tokensOrEstimate(reported int, text string) int {
	if reported > 0 {
		return reported
	}
	return estimateTokens(text)
}
