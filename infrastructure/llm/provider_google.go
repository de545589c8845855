package llm

import (
	"context"
	"math"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is used when no model is configured for Google.
const GoogleDefaultModel = "gemini-2.5-flash"

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider generates ad copy through Google's Gemini API.
type googleProvider struct {
	client *genai.Client
	model  string
}

func newGoogleProvider(config ClientConfig) (Generator, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &googleProvider{client: client, model: model}, nil
}

func (p *googleProvider) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx,
		opts.modelOrDefault(p.model), contents, buildGeminiConfig(opts))
	if err != nil {
		return Completion{}, p.classify(ctx, err)
	}

	text := resp.Text()
	if text == "" {
		return Completion{}, NewProviderError("google", ErrorTypeUnknown, 0,
			"empty completion", ErrEmptyResponse)
	}

	completion := Completion{
		Text:      text,
		TokensIn:  estimateTokens(prompt),
		TokensOut: estimateTokens(text),
	}
	if usage := resp.UsageMetadata; usage != nil {
		completion.TokensIn = tokensOrEstimate(int(usage.PromptTokenCount), prompt)
		completion.TokensOut = tokensOrEstimate(int(usage.CandidatesTokenCount), text)
	}
	return completion, nil
}

// buildGeminiConfig maps Options onto Gemini's generation config. Gemini
// has no separate system role, so the system instruction travels in the
// dedicated SystemInstruction field.
func buildGeminiConfig(opts Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if opts.System != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	if opts.Temperature != nil {
		config.Temperature = genai.Ptr(float32(clampFloat(*opts.Temperature, 0, 2)))
	}
	if opts.TopP != nil {
		config.TopP = genai.Ptr(float32(clampFloat(*opts.TopP, 0, 1)))
	}
	if n := opts.maxTokensOrDefault(); n > 0 {
		if n > math.MaxInt32 {
			n = math.MaxInt32
		}
		config.MaxOutputTokens = int32(n)
	}
	return config
}

func (p *googleProvider) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ClassifyContextError("google", ctx.Err())
	}
	if apiErr, ok := err.(*googleapi.Error); ok {
		if isSafetyBlock(apiErr) {
			return NewProviderError("google", ErrorTypeContentPolicy, apiErr.Code,
				"request blocked by safety filters", err)
		}
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		return ClassifyHTTPError("google", apiErr.Code, message, err)
	}
	return ClassifyContextError("google", err)
}

func (p *googleProvider) Model() string { return p.model }

// isSafetyBlock reports whether a Gemini error is a content policy
// rejection. Esoteric-services ad copy trips safety filters more often
// than most verticals, so these are surfaced distinctly from other 4xx.
func isSafetyBlock(apiErr *googleapi.Error) bool {
	lower := strings.ToLower(apiErr.Message)
	if strings.Contains(lower, "safety") || strings.Contains(lower, "blocked") {
		return true
	}
	for _, e := range apiErr.Errors {
		if e.Reason == "SAFETY" || e.Reason == "BLOCKED" {
			return true
		}
	}
	return false
}
