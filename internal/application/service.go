package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ahrav/go-copyforge/infrastructure/llm"
	"github.com/ahrav/go-copyforge/infrastructure/middleware"
	"github.com/ahrav/go-copyforge/infrastructure/pipeline"
	"github.com/ahrav/go-copyforge/infrastructure/scoring"
	"github.com/ahrav/go-copyforge/internal/domain"
	"github.com/ahrav/go-copyforge/internal/ports"
)

// ErrNoStore indicates a store-backed operation was called on a service
// configured without a candidate store.
var ErrNoStore = errors.New("no candidate store configured")

// Service is the façade over the generation pipeline. It owns the
// orchestrator, the scorer, the optional budget manager, and the optional
// candidate store, exposing the handful of operations callers need.
//
// Safe for concurrent use.
type Service struct {
	config       Config
	orchestrator *pipeline.Orchestrator
	scorer       *scoring.Scorer
	store        ports.CandidateStore
	budget       *middleware.BudgetManager
	logger       *zap.Logger
}

// NewService wires a service around an already-constructed provider client.
// store, logger, and metrics may be nil; a nil store disables persistence
// and a nil logger falls back to a no-op logger.
func NewService(
	config Config,
	client ports.LLMClient,
	store ports.CandidateStore,
	logger *zap.Logger,
	metrics ports.MetricsCollector,
) (*Service, error) {
	if client == nil {
		return nil, domain.ErrNoProvider
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	builder, err := pipeline.NewPromptBuilder(config.Lengths)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt builder: %w", err)
	}

	checker := pipeline.DefaultPolicyChecker()
	if len(config.ForbiddenPhrases) > 0 {
		checker = &pipeline.PolicyChecker{ForbiddenPhrases: config.ForbiddenPhrases}
	}

	assembler, err := pipeline.NewAssembler(config.Lengths, config.Dedupe, checker, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build assembler: %w", err)
	}

	// The budget interface stays nil-nil when no limits are configured;
	// assigning a nil *BudgetManager would make the orchestrator see a
	// non-nil budget.
	var budgetManager *middleware.BudgetManager
	var budget pipeline.Budget
	if config.Budget.MaxTokens > 0 || config.Budget.MaxCalls > 0 {
		var observer middleware.BudgetObserver
		if metrics != nil {
			observer = middleware.NewOTelBudgetObserver(metrics, "service")
		}
		budgetManager, err = middleware.NewBudgetManager(middleware.Budget{
			MaxTokens: config.Budget.MaxTokens,
			MaxCalls:  config.Budget.MaxCalls,
		}, observer)
		if err != nil {
			return nil, fmt.Errorf("failed to build budget manager: %w", err)
		}
		budget = budgetManager
	}

	orchestrator, err := pipeline.NewOrchestrator(
		client, builder, assembler, config.OrchestratorConfig(), budget, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to build orchestrator: %w", err)
	}

	scorer, err := scoring.NewScorer(config.Scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to build scorer: %w", err)
	}

	return &Service{
		config:       config,
		orchestrator: orchestrator,
		scorer:       scorer,
		store:        store,
		budget:       budgetManager,
		logger:       logger,
	}, nil
}

// NewServiceFromEnv resolves the provider client through the llm registry,
// reading the API key from the provider's environment variable, then wires
// a service around it. Built clients carry tracing, retry, and pacing
// middleware; metrics middleware is added when a collector is supplied.
func NewServiceFromEnv(
	config Config,
	store ports.CandidateStore,
	logger *zap.Logger,
	metrics ports.MetricsCollector,
) (*Service, error) {
	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Copy the shared provider table before applying per-run overrides.
	providers := make(map[string]llm.ProviderConfig, len(llm.DefaultProviders))
	for name, p := range llm.DefaultProviders {
		providers[name] = p
	}
	if p, ok := providers[config.Provider.Name]; ok && config.Provider.BaseURL != "" {
		p.BaseURL = config.Provider.BaseURL
		providers[config.Provider.Name] = p
	}

	// Tracing outermost so one span covers all attempts; retries sit
	// above the limiter so every attempt waits its turn; metrics sit
	// innermost to measure each attempt individually.
	clientMiddleware := []llm.Middleware{
		llm.TracingMiddleware("copyforge"),
		llm.RetryMiddleware(llm.DefaultRetryAttempts, llm.DefaultRetryBaseDelay, llm.DefaultRetryMaxDelay),
		llm.RateLimitMiddleware(config.Generation.RequestsPerMinute, 1),
	}
	if metrics != nil {
		clientMiddleware = append(clientMiddleware, llm.MetricsMiddleware(metrics))
	}

	registry, err := llm.NewRegistry(llm.RegistryConfig{
		Providers:         providers,
		DefaultProvider:   config.Provider.Name,
		DefaultTimeout:    config.ProviderTimeout(),
		DefaultMiddleware: clientMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build provider registry: %w", err)
	}

	spec := config.Provider.Name
	if config.Provider.Model != "" {
		spec += "/" + config.Provider.Model
	}
	client, err := registry.GetClient(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoProvider, err)
	}

	return NewService(config, client, store, logger, metrics)
}

// Generate produces, scores, and persists a single candidate. Provider and
// parsing failures come back as a failed candidate, not an error.
func (s *Service) Generate(ctx context.Context, req pipeline.GenerationRequest) (domain.AdCandidate, error) {
	candidate, err := s.orchestrator.Generate(ctx, req)
	if err != nil {
		return candidate, err
	}
	s.scorer.ScoreCandidate(&candidate)
	s.persist(ctx, candidate)
	return candidate, nil
}

// GenerateBatch produces a full batch, scores every accepted candidate, and
// persists all candidate records, failed ones included.
func (s *Service) GenerateBatch(ctx context.Context, req pipeline.BatchRequest) (domain.GenerationBatch, error) {
	if len(req.Tones) == 0 {
		req.Tones = s.config.Generation.Tones
	}
	if req.Request.HeadlineCount == 0 {
		req.Request.HeadlineCount = s.config.Generation.HeadlineCount
	}
	if req.Request.DescriptionCount == 0 {
		req.Request.DescriptionCount = s.config.Generation.DescriptionCount
	}

	batch, err := s.orchestrator.GenerateBatch(ctx, req)
	if err != nil {
		return batch, err
	}
	for i := range batch.Candidates {
		s.scorer.ScoreCandidate(&batch.Candidates[i])
		s.persist(ctx, batch.Candidates[i])
	}
	return batch, nil
}

// ScoreHeadlines runs the CTR heuristic scorer over arbitrary headlines.
func (s *Service) ScoreHeadlines(headlines, keywords []string) domain.ScoreReport {
	return s.scorer.ScoreHeadlines(headlines, keywords)
}

// Records lists stored candidate records, newest first.
func (s *Service) Records(ctx context.Context, limit int) ([]domain.CandidateRecord, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx, limit)
}

// Stats summarizes the candidate store's contents.
func (s *Service) Stats(ctx context.Context) (domain.StoreStats, error) {
	if s.store == nil {
		return domain.StoreStats{}, ErrNoStore
	}
	return s.store.Stats(ctx)
}

// Usage reports accumulated budget consumption. The second return is false
// when no budget is configured.
func (s *Service) Usage() (middleware.Usage, bool) {
	if s.budget == nil {
		return middleware.Usage{}, false
	}
	return s.budget.Usage(), true
}

// persist saves the candidate's flat record. Persistence is best-effort:
// a store failure is logged but never fails the generation that produced
// the candidate.
func (s *Service) persist(ctx context.Context, c domain.AdCandidate) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, domain.NewCandidateRecord(c)); err != nil {
		s.logger.Error("failed to persist candidate record",
			zap.String("candidate_id", c.ID),
			zap.String("batch_id", c.BatchID),
			zap.Error(err))
	}
}
