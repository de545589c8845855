package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-copyforge/internal/domain"
	"github.com/ahrav/go-copyforge/internal/ports"
)

// Orchestrator configuration defaults.
const (
	// DefaultCallTimeout bounds a single provider call. Generation
	// prompts are large and some providers stream slowly, so this sits
	// well above typical completion latency.
	DefaultCallTimeout = 60 * time.Second

	// DefaultConcurrency runs batch variations sequentially. Sequential
	// generation lets each variation exclude everything the previous
	// ones produced, which measurably reduces cross-candidate duplicates.
	DefaultConcurrency = 1

	// MaxConcurrency caps parallel provider calls per batch.
	MaxConcurrency = 10

	// DefaultRequestsPerMinute spaces provider calls about two seconds
	// apart, the pacing batch generation has always used to stay under
	// provider rate limits.
	DefaultRequestsPerMinute = 30.0
)

// Budget authorizes provider calls against batch spending limits. A nil
// Budget on the orchestrator means unlimited.
type Budget interface {
	// Reserve requests authorization for one call expected to consume
	// estimatedTokens. It returns domain.ErrBudgetExceeded when the call
	// would break a limit.
	Reserve(estimatedTokens int) error

	// Commit records the call's actual consumption after it completes.
	Commit(actualTokens int)
}

// GenerationRequest describes one candidate to generate.
type GenerationRequest struct {
	// Keywords are the seed search terms, order preserved.
	Keywords []string `json:"keywords" validate:"required,min=1,dive,required"`

	// Tone is the requested copy tone.
	Tone string `json:"tone" validate:"required"`

	// UsesLocationInsertion requests dynamic location placeholders.
	UsesLocationInsertion bool `json:"uses_location_insertion"`

	// HeadlineCount and DescriptionCount override the default request
	// quantities when positive.
	HeadlineCount    int `json:"headline_count" validate:"min=0,max=50"`
	DescriptionCount int `json:"description_count" validate:"min=0,max=20"`

	// Temperature overrides the orchestrator default when non-nil.
	Temperature *float64 `json:"temperature,omitempty"`

	// VariationSeed selects the prompt strategy and keyword rotation.
	VariationSeed int `json:"variation_seed" validate:"min=0"`

	// Exclusions are descriptions the provider must not reproduce.
	Exclusions []string `json:"exclusions,omitempty"`
}

// BatchRequest describes a multi-candidate generation run.
type BatchRequest struct {
	// Request is the shared base configuration. Its VariationSeed is
	// ignored; each candidate gets its index as seed.
	Request GenerationRequest `json:"request"`

	// Count is the number of candidates to generate.
	Count int `json:"count" validate:"required,min=1,max=50"`

	// Tones optionally cycles tones across candidates. Empty means every
	// candidate uses Request.Tone.
	Tones []string `json:"tones,omitempty"`
}

// OrchestratorConfig tunes provider call behavior.
type OrchestratorConfig struct {
	// CallTimeout bounds each individual provider call. Zero falls back
	// to DefaultCallTimeout.
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout"`

	// Concurrency is the number of batch variations generated in
	// parallel. Zero falls back to DefaultConcurrency (sequential).
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=0,max=10"`

	// RequestsPerMinute paces provider calls across the whole
	// orchestrator. Zero disables pacing.
	RequestsPerMinute float64 `yaml:"requests_per_minute" json:"requests_per_minute" validate:"min=0"`

	// Temperature and MaxTokens are the default sampling options passed
	// to the provider.
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0,max=2"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens" validate:"min=0"`
}

// DefaultOrchestratorConfig returns sequential generation paced at the
// default inter-call delay, with moderate sampling randomness.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		CallTimeout:       DefaultCallTimeout,
		Concurrency:       DefaultConcurrency,
		RequestsPerMinute: DefaultRequestsPerMinute,
		Temperature:       0.8,
		MaxTokens:         2048,
	}
}

// Orchestrator drives candidate generation end to end: prompt build,
// paced and budgeted provider call, and assembly. Provider failures are
// absorbed into failed candidates so a batch always accounts for every
// requested variation.
//
// The orchestrator is safe for concurrent use.
type Orchestrator struct {
	client    ports.LLMClient
	builder   *PromptBuilder
	assembler *Assembler
	config    OrchestratorConfig
	limiter   *rate.Limiter
	budget    Budget
	logger    *zap.Logger
	metrics   ports.MetricsCollector
}

// NewOrchestrator wires an orchestrator. client, builder, and assembler
// are required; budget, logger, and metrics may be nil.
func NewOrchestrator(
	client ports.LLMClient,
	builder *PromptBuilder,
	assembler *Assembler,
	config OrchestratorConfig,
	budget Budget,
	logger *zap.Logger,
	metrics ports.MetricsCollector,
) (*Orchestrator, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if builder == nil {
		return nil, fmt.Errorf("prompt builder cannot be nil")
	}
	if assembler == nil {
		return nil, fmt.Errorf("assembler cannot be nil")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("orchestrator configuration validation failed: %w", err)
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerMinute/60.0), 1)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		client:    client,
		builder:   builder,
		assembler: assembler,
		config:    config,
		limiter:   limiter,
		budget:    budget,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Generate produces a single candidate. The returned error is non-nil only
// for precondition failures (invalid request, canceled context before the
// call); provider and parsing failures come back as a failed candidate.
func (o *Orchestrator) Generate(ctx context.Context, req GenerationRequest) (domain.AdCandidate, error) {
	if err := validate.Struct(req); err != nil {
		return domain.AdCandidate{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return o.generate(ctx, req, "")
}

// GenerateBatch produces Count candidates under a shared batch ID,
// cycling tones and feeding each variation the accumulated description
// pool as exclusions. The batch invariant Successful+Failed == Requested holds
// even when the budget runs out or the provider fails partway.
func (o *Orchestrator) GenerateBatch(ctx context.Context, req BatchRequest) (domain.GenerationBatch, error) {
	if err := validate.Struct(req); err != nil {
		return domain.GenerationBatch{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	batch := domain.GenerationBatch{
		BatchID:   uuid.NewString(),
		Requested: req.Count,
		StartedAt: time.Now().UTC(),
	}
	candidates := make([]domain.AdCandidate, req.Count)

	// pool accumulates descriptions across variations so later prompts
	// can exclude them. Guarded because variations may run in parallel.
	var mu sync.Mutex
	pool := append([]string(nil), req.Request.Exclusions...)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Concurrency)

	for i := 0; i < req.Count; i++ {
		g.Go(func() error {
			vreq := req.Request
			vreq.VariationSeed = i
			if len(req.Tones) > 0 {
				vreq.Tone = req.Tones[i%len(req.Tones)]
			}

			mu.Lock()
			vreq.Exclusions = append([]string(nil), pool...)
			mu.Unlock()

			c, err := o.generate(gctx, vreq, batch.BatchID)
			if err != nil {
				// Precondition failures become failed candidates here;
				// batch accounting must cover every requested variation.
				c = failedCandidate(vreq, batch.BatchID, i, err)
			}
			candidates[i] = c

			if c.Accepted() {
				mu.Lock()
				pool = append(pool, c.Descriptions...)
				mu.Unlock()
			}
			return nil
		})
	}

	// Workers never return errors; Wait only propagates context
	// cancellation from gctx.
	if err := g.Wait(); err != nil {
		o.logger.Warn("batch interrupted", zap.String("batch_id", batch.BatchID), zap.Error(err))
	}

	for i := range candidates {
		if candidates[i].ID == "" {
			candidates[i] = failedCandidate(req.Request, batch.BatchID, i, ctx.Err())
		}
		if candidates[i].Accepted() {
			batch.Successful++
		} else {
			batch.Failed++
		}
	}
	batch.Candidates = candidates
	batch.Elapsed = time.Since(batch.StartedAt)

	o.logger.Info("batch complete",
		zap.String("batch_id", batch.BatchID),
		zap.Int("requested", batch.Requested),
		zap.Int("successful", batch.Successful),
		zap.Int("failed", batch.Failed),
		zap.Duration("elapsed", batch.Elapsed))
	if o.metrics != nil {
		o.metrics.RecordHistogram("pipeline_batch_success_rate", batch.SuccessRate(), nil)
	}
	return batch, nil
}

// generate runs one paced, budgeted provider call and assembles the
// result. Provider, budget, and parse failures are absorbed into the
// candidate; only prompt-build failures return an error.
func (o *Orchestrator) generate(ctx context.Context, req GenerationRequest, batchID string) (domain.AdCandidate, error) {
	seed := req.VariationSeed
	in := AssembleInput{
		BatchID:               batchID,
		Keywords:              req.Keywords,
		Tone:                  req.Tone,
		Provider:              providerLabel(o.client),
		Model:                 o.client.GetModel(),
		UsesLocationInsertion: req.UsesLocationInsertion,
		VariationSeed:         seed,
	}

	prompt, err := o.builder.Build(PromptInput{
		Keywords:              req.Keywords,
		Tone:                  req.Tone,
		Exclusions:            req.Exclusions,
		UsesLocationInsertion: req.UsesLocationInsertion,
		VariationSeed:         seed,
		HeadlineCount:         req.HeadlineCount,
		DescriptionCount:      req.DescriptionCount,
	})
	if err != nil {
		return domain.AdCandidate{}, err
	}

	estimate := o.config.MaxTokens
	if n, err := o.client.EstimateTokens(prompt); err == nil {
		estimate += n
	}
	if o.budget != nil {
		if err := o.budget.Reserve(estimate); err != nil {
			o.logger.Warn("generation rejected by budget",
				zap.String("batch_id", batchID), zap.Int("seed", seed), zap.Error(err))
			c := failedCandidate(req, batchID, seed, err)
			c.Error = domain.ErrMsgBudgetExceeded
			return c, nil
		}
	}

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return domain.AdCandidate{}, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	temperature := o.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	options := map[string]any{
		"temperature": temperature,
		"max_tokens":  o.config.MaxTokens,
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()

	start := time.Now()
	response, err := o.client.Complete(callCtx, prompt, options)
	latency := time.Since(start)
	if o.metrics != nil {
		o.metrics.RecordLatency("provider_complete", latency,
			map[string]string{"provider": in.Provider, "model": in.Model})
	}
	if err != nil {
		o.logger.Error("provider call failed",
			zap.String("batch_id", batchID),
			zap.Int("seed", seed),
			zap.Duration("latency", latency),
			zap.Error(err))
		c := failedCandidate(req, batchID, seed, err)
		c.Error = domain.ErrMsgCritical
		return c, nil
	}

	if o.budget != nil {
		actual := estimate
		if n, err := o.client.EstimateTokens(response); err == nil {
			actual = n
			if m, err := o.client.EstimateTokens(prompt); err == nil {
				actual += m
			}
		}
		o.budget.Commit(actual)
	}

	return o.assembler.Assemble(response, in), nil
}

// failedCandidate builds the minimal failed-candidate record for a
// variation that never produced usable output.
func failedCandidate(req GenerationRequest, batchID string, seed int, cause error) domain.AdCandidate {
	c := domain.AdCandidate{
		ID:                    uuid.NewString(),
		BatchID:               batchID,
		Keywords:              req.Keywords,
		Tone:                  req.Tone,
		UsesLocationInsertion: req.UsesLocationInsertion,
		VariationSeed:         seed,
		Error:                 domain.ErrMsgCritical,
		CreatedAt:             time.Now().UTC(),
	}
	if cause != nil {
		c.Warnings = []string{cause.Error()}
	}
	return c
}

// providerLabel derives a stable provider label from the client. Clients
// built by the llm package expose their provider through GetModel's
// registry spec; anything else is labeled by its model alone.
func providerLabel(client ports.LLMClient) string {
	type provider interface{ GetProvider() string }
	if p, ok := client.(provider); ok {
		return p.GetProvider()
	}
	return client.GetModel()
}
