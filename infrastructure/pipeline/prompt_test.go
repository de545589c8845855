package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T) *PromptBuilder {
	t.Helper()
	b, err := NewPromptBuilder(DefaultLengthPolicy())
	require.NoError(t, err)
	return b
}

func TestPromptBuilder_Build(t *testing.T) {
	b := newTestBuilder(t)

	prompt, err := b.Build(PromptInput{
		Keywords: []string{"amarres de amor", "brujos"},
		Tone:     "profesional",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "amarres de amor, brujos", "keywords listed in order for seed 0")
	assert.Contains(t, prompt, "profesional")
	assert.Contains(t, prompt, "15 titulares", "default headline count")
	assert.Contains(t, prompt, "4 descripciones", "default description count")
	assert.Contains(t, prompt, "entre 10 y 30 caracteres", "headline limits stated")
	assert.Contains(t, prompt, "entre 30 y 90 caracteres", "description limits stated")
	assert.Contains(t, prompt, `{"headlines"`, "JSON format demanded")
	assert.NotContains(t, prompt, "{LOCATION(City)}", "no location block without the flag")
	assert.NotContains(t, prompt, "NO repitas", "no exclusion block without exclusions")
}

func TestPromptBuilder_EmptyKeywords(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build(PromptInput{Tone: "profesional"})
	assert.ErrorIs(t, err, ErrEmptyKeywords)
}

func TestPromptBuilder_LocationInstructions(t *testing.T) {
	b := newTestBuilder(t)

	prompt, err := b.Build(PromptInput{
		Keywords:              []string{"curanderos"},
		Tone:                  "urgente",
		UsesLocationInsertion: true,
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, LocationCity)
	assert.Contains(t, prompt, LocationState)
	assert.Contains(t, prompt, LocationCountry)
}

func TestPromptBuilder_Exclusions(t *testing.T) {
	b := newTestBuilder(t)

	prompt, err := b.Build(PromptInput{
		Keywords: []string{"brujos"},
		Tone:     "profesional",
		Exclusions: []string{
			"Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.",
			"Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata.",
		},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "NO repitas ni parafrasees estas descripciones")
	assert.Contains(t, prompt, "- Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.")
	assert.Contains(t, prompt, "- Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata.")
}

func TestPromptBuilder_SeedRotatesKeywords(t *testing.T) {
	b := newTestBuilder(t)
	keywords := []string{"amarres", "brujos", "tarot"}

	p0, err := b.Build(PromptInput{Keywords: keywords, Tone: "x", VariationSeed: 0})
	require.NoError(t, err)
	p1, err := b.Build(PromptInput{Keywords: keywords, Tone: "x", VariationSeed: 1})
	require.NoError(t, err)

	assert.Contains(t, p0, "amarres, brujos, tarot")
	assert.Contains(t, p1, "brujos, tarot, amarres")
}

func TestPromptBuilder_SeedSelectsStrategy(t *testing.T) {
	b := newTestBuilder(t)

	for seed, marker := range map[int]string{
		0: "directos y claros",
		1: "urgencia",
		2: "autoridad",
		7: "autoridad",
	} {
		prompt, err := b.Build(PromptInput{
			Keywords:      []string{"brujos"},
			Tone:          "x",
			VariationSeed: seed,
		})
		require.NoError(t, err)
		assert.Contains(t, prompt, marker, "seed %d should use the %s strategy", seed, marker)
	}
}

func TestStrategyForSeed(t *testing.T) {
	assert.Equal(t, strategyDirect, StrategyForSeed(0))
	assert.Equal(t, strategyUrgency, StrategyForSeed(1))
	assert.Equal(t, strategyAuthority, StrategyForSeed(2))
	assert.Equal(t, strategyAuthority, StrategyForSeed(9))
}

func TestRotateKeywords(t *testing.T) {
	keywords := []string{"a", "b", "c"}

	assert.Equal(t, []string{"a", "b", "c"}, rotateKeywords(keywords, 0))
	assert.Equal(t, []string{"b", "c", "a"}, rotateKeywords(keywords, 1))
	assert.Equal(t, []string{"a", "b", "c"}, rotateKeywords(keywords, 3), "rotation wraps")
	assert.Equal(t, []string{"a", "b", "c"}, keywords, "input never mutated")
}

func TestArchetypeSplit(t *testing.T) {
	tests := []struct {
		total, direct, benefit, cta int
	}{
		{15, 10, 3, 2},
		{10, 7, 2, 1},
		{3, 3, 0, 0},
		{20, 12, 5, 3},
	}

	for _, tt := range tests {
		direct, benefit, cta := archetypeSplit(tt.total)
		assert.Equal(t, tt.direct, direct)
		assert.Equal(t, tt.benefit, benefit)
		assert.Equal(t, tt.cta, cta)
		assert.Equal(t, tt.total, direct+benefit+cta, "parts must sum to total")
	}
}

func TestPromptBuilder_CustomCounts(t *testing.T) {
	b := newTestBuilder(t)

	prompt, err := b.Build(PromptInput{
		Keywords:         []string{"brujos"},
		Tone:             "x",
		HeadlineCount:    8,
		DescriptionCount: 3,
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "8 titulares")
	assert.Contains(t, prompt, "3 descripciones")
	assert.False(t, strings.Contains(prompt, "15 titulares"))
}
