package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ahrav/go-copyforge/internal/ports"
)

// MockLLMClient implements the LLMClient interface with deterministic ad-copy
// responses for consistent testing and development workflows.
// It serves scripted responses in order when a script is loaded, falling back
// to prompt pattern matching so pipeline tests can exercise the three prompt
// strategies without a real provider.
type MockLLMClient struct {
	mu sync.Mutex
	// model is the mock model identifier.
	model string
	// script holds ordered responses consumed one per Complete call.
	script []string
	// next is the index of the next scripted response.
	next int
	// responses are pattern-matched fallbacks, checked in insertion order.
	responses []MockResponse
	// prompts records every prompt received, for assertions.
	prompts []string
}

// MockResponse defines a pre-configured response pattern for the mock client.
type MockResponse struct {
	// Pattern is matched against prompts (case-insensitive substring).
	// The empty pattern matches everything and acts as the default.
	Pattern string
	// Response is the text returned for matching prompts.
	Response string
	// TokensUsed is the estimated token count for this response.
	TokensUsed int
}

// Canned provider payloads, one per prompt strategy. Every headline is
// 10-30 runes and every description 30-90 runes so assembled candidates
// survive length validation and thresholds.
const (
	// DirectAdResponse answers prompts built with the direct strategy.
	DirectAdResponse = `{"headlines": ["Amarres de Amor Efectivos", "Tarot del Amor Certero", "Ritual de Amor Serio", "Consulta Espiritual Hoy"], "descriptions": ["Consulta con un maestro espiritual serio y recupera el amor de tu pareja.", "Resultados discretos con atencion personalizada para tu caso de amor."]}`

	// UrgencyAdResponse answers prompts built with the urgency strategy.
	UrgencyAdResponse = `{"headlines": ["Amarres de Amor Urgentes", "Recupera Tu Amor Hoy", "Tarot Inmediato 24 Horas", "Consulta Rapida de Amor"], "descriptions": ["Atencion inmediata de un experto en amarres y rituales de amor efectivos.", "No esperes mas y consulta hoy mismo con total discrecion para tu caso."]}`

	// AuthorityAdResponse answers prompts built with the authority strategy.
	AuthorityAdResponse = `{"headlines": ["Maestro Espiritual Experto", "Tarot Profesional Serio", "Amarres con Experiencia", "Consulta de Amor Confiable"], "descriptions": ["Decadas de experiencia en rituales y amarres de amor con casos reales.", "Un maestro reconocido atiende tu consulta con seriedad y discrecion."]}`
)

// NewMockLLMClient creates a MockLLMClient with pre-configured responses for
// the three prompt strategies. The mock provides deterministic responses to
// enable reliable testing of the generation pipeline.
func NewMockLLMClient(model string) *MockLLMClient {
	client := &MockLLMClient{model: model}
	client.setupDefaultResponses()
	return client
}

// setupDefaultResponses configures one canned ad payload per prompt strategy.
// Patterns key off the strategy instructions the prompt builder renders.
func (m *MockLLMClient) setupDefaultResponses() {
	m.AddResponse(MockResponse{
		Pattern:    "urgencia",
		Response:   UrgencyAdResponse,
		TokensUsed: 90,
	})
	m.AddResponse(MockResponse{
		Pattern:    "autoridad",
		Response:   AuthorityAdResponse,
		TokensUsed: 90,
	})
	// Default: the direct-strategy payload.
	m.AddResponse(MockResponse{
		Pattern:    "",
		Response:   DirectAdResponse,
		TokensUsed: 90,
	})
}

// AddResponse appends a response pattern. Patterns are checked in insertion
// order, so register specific patterns before broad ones.
func (m *MockLLMClient) AddResponse(response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
}

// Script loads ordered responses consumed one per Complete call before any
// pattern matching happens. Once the script is exhausted the client falls
// back to pattern matching.
func (m *MockLLMClient) Script(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, responses...)
}

// Prompts returns a copy of every prompt received so far, in call order.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount returns the number of Complete calls served.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Complete implements LLMClient.Complete with deterministic responses.
// Scripted responses are served first; otherwise the first pattern matching
// the prompt wins.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if m.next < len(m.script) {
		response := m.script[m.next]
		m.next++
		return response, nil
	}

	return m.findMatchingResponse(prompt), nil
}

// EstimateTokens implements LLMClient.EstimateTokens using a simple
// characters-per-token heuristic, enough for budget tracking in tests.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	tokens := len(text) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens, nil
}

// GetModel implements LLMClient.GetModel returning the mock model identifier.
func (m *MockLLMClient) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel updates the mock model identifier.
func (m *MockLLMClient) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// GetTokenUsage returns the configured token count for a response pattern.
func (m *MockLLMClient) GetTokenUsage(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.responses {
		if r.Pattern == pattern {
			return r.TokensUsed
		}
	}
	return 0
}

// Reset clears the script, recorded prompts, and custom responses, restoring
// the default configuration.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	m.script = nil
	m.next = 0
	m.prompts = nil
	m.responses = nil
	m.mu.Unlock()
	m.setupDefaultResponses()
}

// findMatchingResponse returns the first response whose pattern appears in
// the prompt. Empty patterns are defaults and only apply when no specific
// pattern matched. Caller holds the lock.
func (m *MockLLMClient) findMatchingResponse(prompt string) string {
	promptLower := strings.ToLower(prompt)
	for _, r := range m.responses {
		if r.Pattern != "" && strings.Contains(promptLower, r.Pattern) {
			return r.Response
		}
	}
	for _, r := range m.responses {
		if r.Pattern == "" {
			return r.Response
		}
	}
	return DirectAdResponse
}

// Verify interface compliance at compile time.
var _ ports.LLMClient = (*MockLLMClient)(nil)
