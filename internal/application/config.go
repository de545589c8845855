// Package application wires the generation pipeline into a runnable
// service: YAML configuration loading and validation, provider client
// resolution, and a façade over orchestrator, scorer, and candidate store.
package application

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-copyforge/infrastructure/pipeline"
	"github.com/ahrav/go-copyforge/infrastructure/scoring"
)

var validate = validator.New()

// Config is the root configuration for the generation service.
// Zero-valued policy sections fall back to their package defaults when the
// config is normalized, so a minimal file only needs version and provider.
type Config struct {
	// Version is the configuration schema version.
	Version string `yaml:"version" validate:"required"`

	// Provider selects and configures the generation backend.
	Provider ProviderConfig `yaml:"provider" validate:"required"`

	// Generation tunes orchestrator behavior: counts, pacing, sampling.
	Generation GenerationConfig `yaml:"generation"`

	// Lengths bounds headline and description rune lengths.
	Lengths pipeline.LengthPolicy `yaml:"lengths"`

	// Dedupe sets the near-duplicate similarity threshold.
	Dedupe pipeline.DedupePolicy `yaml:"dedupe"`

	// Scoring tunes the CTR heuristic scorer.
	Scoring scoring.ScoringPolicy `yaml:"scoring"`

	// Budget caps provider spend per batch. Zero values mean unlimited.
	Budget BudgetConfig `yaml:"budget"`

	// ForbiddenPhrases overrides the default advisory phrase blocklist
	// when non-empty.
	ForbiddenPhrases []string `yaml:"forbidden_phrases"`
}

// ProviderConfig selects the generation backend. The API key is never part
// of the file; it is resolved from the provider's environment variable.
type ProviderConfig struct {
	// Name is the provider identifier.
	Name string `yaml:"name" validate:"required,oneof=openai anthropic google"`

	// Model overrides the provider's default model when non-empty.
	Model string `yaml:"model"`

	// BaseURL overrides the provider's default endpoint when non-empty.
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds bounds individual HTTP requests to the provider.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"omitempty,min=1,max=600"`
}

// GenerationConfig tunes the orchestrator. Zero values fall back to the
// pipeline defaults during normalization.
type GenerationConfig struct {
	// HeadlineCount and DescriptionCount override the per-request defaults
	// when positive.
	HeadlineCount    int `yaml:"headline_count" validate:"min=0,max=50"`
	DescriptionCount int `yaml:"description_count" validate:"min=0,max=20"`

	// Tones optionally cycles tones across batch candidates.
	Tones []string `yaml:"tones"`

	// Concurrency is the number of batch variations generated in parallel.
	Concurrency int `yaml:"concurrency" validate:"min=0,max=10"`

	// CallTimeoutSeconds bounds each provider call.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds" validate:"min=0,max=600"`

	// RequestsPerMinute paces provider calls. Zero falls back to the
	// default inter-call delay during normalization; batch generation is
	// always paced.
	RequestsPerMinute float64 `yaml:"requests_per_minute" validate:"min=0"`

	// Temperature and MaxTokens are the default provider sampling options.
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"min=0"`
}

// BudgetConfig caps provider spend per batch. Zero means unlimited.
type BudgetConfig struct {
	// MaxTokens caps total tokens consumed across a batch.
	MaxTokens int64 `yaml:"max_tokens" validate:"min=0"`

	// MaxCalls caps the number of provider calls across a batch.
	MaxCalls int64 `yaml:"max_calls" validate:"min=0"`
}

// DefaultConfig returns a runnable configuration using the standard policy
// tables and sequential, default-paced generation.
func DefaultConfig() Config {
	return Config{
		Version:  "1.0",
		Provider: ProviderConfig{Name: "openai"},
		Generation: GenerationConfig{
			CallTimeoutSeconds: int(pipeline.DefaultCallTimeout / time.Second),
			Concurrency:        pipeline.DefaultConcurrency,
			RequestsPerMinute:  pipeline.DefaultRequestsPerMinute,
			Temperature:        0.8,
			MaxTokens:          2048,
		},
		Lengths: pipeline.DefaultLengthPolicy(),
		Dedupe:  pipeline.DefaultDedupePolicy(),
		Scoring: scoring.DefaultScoringPolicy(),
	}
}

// LoadConfig reads, parses, validates, and normalizes a YAML config file.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// LoadConfigFromReader parses a configuration from any reader.
func LoadConfigFromReader(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config data: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes into a validated, normalized Config.
// Decoding is strict: unknown fields are an error, so typos do not pass
// silently as defaults.
func ParseConfig(data []byte) (Config, error) {
	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("YAML decode failed: %w", err)
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// normalize fills omitted sections with package defaults. Partial policy
// sections are not merged; a section is defaulted only when fully zero.
func (c *Config) normalize() {
	if c.Lengths == (pipeline.LengthPolicy{}) {
		c.Lengths = pipeline.DefaultLengthPolicy()
	}
	if c.Dedupe == (pipeline.DedupePolicy{}) {
		c.Dedupe = pipeline.DefaultDedupePolicy()
	}
	if c.Scoring == (scoring.ScoringPolicy{}) {
		c.Scoring = scoring.DefaultScoringPolicy()
	}
	if c.Generation.CallTimeoutSeconds == 0 {
		c.Generation.CallTimeoutSeconds = int(pipeline.DefaultCallTimeout / time.Second)
	}
	if c.Generation.Concurrency == 0 {
		c.Generation.Concurrency = pipeline.DefaultConcurrency
	}
	if c.Generation.RequestsPerMinute == 0 {
		c.Generation.RequestsPerMinute = pipeline.DefaultRequestsPerMinute
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.8
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = 2048
	}
}

// Validate checks struct tags and the cross-field policy constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := c.Lengths.Validate(); err != nil {
		return err
	}
	if err := c.Dedupe.Validate(); err != nil {
		return err
	}
	return nil
}

// OrchestratorConfig converts the generation section into the pipeline's
// orchestrator configuration.
func (c *Config) OrchestratorConfig() pipeline.OrchestratorConfig {
	return pipeline.OrchestratorConfig{
		CallTimeout:       time.Duration(c.Generation.CallTimeoutSeconds) * time.Second,
		Concurrency:       c.Generation.Concurrency,
		RequestsPerMinute: c.Generation.RequestsPerMinute,
		Temperature:       c.Generation.Temperature,
		MaxTokens:         c.Generation.MaxTokens,
	}
}

// ProviderTimeout returns the provider HTTP timeout as a duration, zero
// when unset.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}
