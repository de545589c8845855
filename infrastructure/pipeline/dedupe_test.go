package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupePolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultDedupePolicy().Validate())
	assert.Error(t, DedupePolicy{Threshold: 1.5}.Validate())
	assert.Error(t, DedupePolicy{Threshold: -0.1}.Validate())
}

func TestDedupe_ExactDuplicates(t *testing.T) {
	p := DefaultDedupePolicy()

	got := p.Dedupe([]string{
		"Amarres de Amor Efectivos",
		"Amarres de Amor Efectivos",
		"Recupera a Tu Pareja Hoy",
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Amarres de Amor Efectivos", got[0])
	assert.Equal(t, "Recupera a Tu Pareja Hoy", got[1])
}

func TestDedupe_CaseInsensitive(t *testing.T) {
	p := DefaultDedupePolicy()

	got := p.Dedupe([]string{
		"Amarres de Amor Efectivos",
		"AMARRES DE AMOR EFECTIVOS",
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Amarres de Amor Efectivos", got[0], "first occurrence wins")
}

func TestDedupe_NearDuplicates(t *testing.T) {
	p := DefaultDedupePolicy()

	// One-character edit over 25 runes is ~0.96 similarity.
	got := p.Dedupe([]string{
		"Amarres de Amor Efectivos",
		"Amarres de Amor Efectivoz",
		"Consulta Espiritual Seria",
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Amarres de Amor Efectivos", got[0])
	assert.Equal(t, "Consulta Espiritual Seria", got[1])
}

func TestDedupe_KeepsDistinctTexts(t *testing.T) {
	p := DefaultDedupePolicy()

	in := []string{
		"Amarres de Amor Efectivos",
		"Brujo Experto en Rituales",
		"Lectura de Tarot con Cita",
	}
	got := p.Dedupe(in)
	assert.Equal(t, in, got, "distinct texts all survive in order")
}

func TestDedupe_Idempotent(t *testing.T) {
	p := DefaultDedupePolicy()

	in := []string{
		"Amarres de Amor Efectivos",
		"Amarres de Amor Efectivoz",
		"Brujo Experto en Rituales",
		"brujo experto en rituales",
		"Lectura de Tarot con Cita",
	}
	once := p.Dedupe(in)
	twice := p.Dedupe(once)

	assert.Equal(t, once, twice, "deduping its own output changes nothing")
}

func TestDedupe_LocationVariantsSurvive(t *testing.T) {
	p := DefaultDedupePolicy()

	in := []string{
		"Amarres De Amor en {LOCATION(City)}",
		"Amarres De Amor {LOCATION(State)}",
		"Amarres De Amor en {LOCATION(Country)}",
	}
	got := p.Dedupe(in)

	assert.Equal(t, in, got, "distinct location variants are not duplicates")
}

func TestDedupe_Empty(t *testing.T) {
	p := DefaultDedupePolicy()
	assert.Nil(t, p.Dedupe(nil))
	assert.Nil(t, p.Dedupe([]string{}))
}

func TestIsDuplicate(t *testing.T) {
	p := DefaultDedupePolicy()

	existing := []string{"Amarres de Amor Efectivos"}
	assert.True(t, p.IsDuplicate("amarres de amor efectivos", existing))
	assert.True(t, p.IsDuplicate("Amarres de Amor Efectivoz", existing))
	assert.False(t, p.IsDuplicate("Lectura de Tarot con Cita", existing))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		want float64
	}{
		{"identical", "amarres", "amarres", 1.0},
		{"both empty", "", "", 1.0},
		{"completely different length one", "a", "z", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity(tt.s1, tt.s2), 1e-9)
		})
	}

	t.Run("one edit over ten runes", func(t *testing.T) {
		assert.InDelta(t, 0.9, similarity("abcdefghij", "abcdefghiz"), 1e-9)
	})
}
