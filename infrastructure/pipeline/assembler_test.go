package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-copyforge/internal/domain"
)

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	a, err := NewAssembler(
		DefaultLengthPolicy(),
		DefaultDedupePolicy(),
		DefaultPolicyChecker(),
		nil,
		nil,
	)
	require.NoError(t, err)
	return a
}

// validResponse builds a provider JSON payload that clears every stage.
func validResponse(t *testing.T) string {
	t.Helper()
	payload := map[string][]string{
		"headlines": {
			"Amarres de Amor Efectivos",
			"Recupera a Tu Pareja Hoy",
			"Brujo Experto en Rituales",
			"Lectura de Tarot con Cita",
		},
		"descriptions": {
			"Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.",
			"Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata.",
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(raw)
}

func baseInput() AssembleInput {
	return AssembleInput{
		BatchID:       "batch-1",
		Keywords:      []string{"amarres de amor"},
		Tone:          "profesional",
		Provider:      "openai",
		Model:         "gpt-4o",
		VariationSeed: 2,
	}
}

func TestAssemble_AcceptedCandidate(t *testing.T) {
	a := newTestAssembler(t)

	c := a.Assemble(validResponse(t), baseInput())

	assert.True(t, c.Accepted(), "candidate should be accepted: %s", c.Error)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "batch-1", c.BatchID)
	assert.Equal(t, "profesional", c.Tone)
	assert.Equal(t, "openai", c.Provider)
	assert.Equal(t, "gpt-4o", c.Model)
	assert.Equal(t, 2, c.VariationSeed)
	assert.Len(t, c.Headlines, 4)
	assert.Len(t, c.Descriptions, 2)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestAssemble_MarkdownFencedJSON(t *testing.T) {
	a := newTestAssembler(t)

	raw := "Here is your ad copy:\n```json\n" + validResponse(t) + "\n```\nEnjoy!"
	c := a.Assemble(raw, baseInput())

	assert.True(t, c.Accepted(), "fenced JSON should parse: %s", c.Error)
}

func TestAssemble_JSONWithSurroundingProse(t *testing.T) {
	a := newTestAssembler(t)

	raw := "Sure! " + validResponse(t) + " Let me know if you need more."
	c := a.Assemble(raw, baseInput())

	assert.True(t, c.Accepted(), "embedded JSON should parse: %s", c.Error)
}

func TestAssemble_ParseFailure(t *testing.T) {
	a := newTestAssembler(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"no JSON at all", "I cannot generate that content."},
		{"malformed JSON", `{"headlines": ["unterminated`},
		{"empty payload", `{"headlines": [], "descriptions": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := a.Assemble(tt.raw, baseInput())
			assert.False(t, c.Accepted())
			assert.Equal(t, domain.ErrMsgParseFailure, c.Error)
			assert.NotEmpty(t, c.ID, "failed candidates still carry an ID")
		})
	}
}

func TestAssemble_InsufficientHeadlines(t *testing.T) {
	a := newTestAssembler(t)

	// Only two valid headlines survive: one under threshold of three.
	raw := `{"headlines": ["Amarres de Amor Efectivos", "Recupera a Tu Pareja Hoy"],
		"descriptions": [
			"Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.",
			"Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata."
		]}`
	c := a.Assemble(raw, baseInput())

	assert.False(t, c.Accepted())
	assert.Equal(t, domain.ErrMsgInsufficientHeadlines, c.Error)
	assert.Len(t, c.Headlines, 2, "surviving texts are kept for inspection")
}

func TestAssemble_InsufficientAfterValidation(t *testing.T) {
	a := newTestAssembler(t)

	// Four headlines arrive but two die in validation, leaving two.
	raw := `{"headlines": ["Amarres de Amor Efectivos", "Recupera a Tu Pareja Hoy", "Corto", "x"],
		"descriptions": [
			"Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.",
			"Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata."
		]}`
	c := a.Assemble(raw, baseInput())

	assert.False(t, c.Accepted())
	assert.Equal(t, domain.ErrMsgInsufficientHeadlines, c.Error)
}

func TestAssemble_InsufficientAfterDedupe(t *testing.T) {
	a := newTestAssembler(t)

	// Three headlines arrive but two are near-duplicates.
	raw := `{"headlines": ["Amarres de Amor Efectivos", "amarres de amor efectivos", "Recupera a Tu Pareja Hoy"],
		"descriptions": [
			"Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.",
			"Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata."
		]}`
	c := a.Assemble(raw, baseInput())

	assert.False(t, c.Accepted())
	assert.Equal(t, domain.ErrMsgInsufficientHeadlines, c.Error)
	assert.Len(t, c.Headlines, 2)
}

func TestAssemble_InsufficientDescriptions(t *testing.T) {
	a := newTestAssembler(t)

	raw := `{"headlines": ["Amarres de Amor Efectivos", "Recupera a Tu Pareja Hoy", "Brujo Experto en Rituales"],
		"descriptions": ["Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo."]}`
	c := a.Assemble(raw, baseInput())

	assert.False(t, c.Accepted())
	assert.Equal(t, domain.ErrMsgInsufficientDescriptions, c.Error)
}

func TestAssemble_LocationNormalization(t *testing.T) {
	a := newTestAssembler(t)

	in := baseInput()
	in.UsesLocationInsertion = true

	c := a.Assemble(validResponse(t), in)

	require.True(t, c.Accepted(), "candidate should be accepted: %s", c.Error)
	assert.True(t, c.UsesLocationInsertion)

	tokens := 0
	for _, h := range c.Headlines {
		if ContainsLocationToken(h) {
			tokens++
		}
	}
	assert.Equal(t, 3, tokens, "all three location variants should be present")
	assert.Contains(t, c.Headlines[0], LocationCity, "synthesized headlines lead the list")
}

func TestAssemble_WhitespaceCleaning(t *testing.T) {
	a := newTestAssembler(t)

	raw := `{"headlines": ["  Amarres de Amor   Efectivos ", "Recupera a Tu Pareja Hoy", "Brujo Experto en Rituales"],
		"descriptions": [
			"Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.",
			"Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata."
		]}`
	c := a.Assemble(raw, baseInput())

	require.True(t, c.Accepted(), "candidate should be accepted: %s", c.Error)
	assert.Equal(t, "Amarres de Amor Efectivos", c.Headlines[0])
}

func TestAssemble_PolicyWarningsDoNotReject(t *testing.T) {
	a := newTestAssembler(t)

	raw := `{"headlines": ["Amarres GRATIS para Tu Amor", "Recupera a Tu Pareja Hoy", "Brujo Experto en Rituales"],
		"descriptions": [
			"Consulta espiritual seria con resultados comprobados. Agenda tu cita hoy mismo.",
			"Rituales de amor personalizados por un maestro con experiencia. Atencion inmediata."
		]}`
	c := a.Assemble(raw, baseInput())

	assert.True(t, c.Accepted(), "advisory findings never fail a candidate")
	require.NotEmpty(t, c.Warnings)
	assert.Contains(t, c.Warnings[0], "excessive capitalization")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced json block", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"generic fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", `ok {"a": 1} done`, `{"a": 1}`},
		{"nested objects", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"braces inside strings", `{"a": "{LOCATION(City)}"}`, `{"a": "{LOCATION(City)}"}`},
		{"no json", "nothing here", ""},
		{"unbalanced", `{"a": 1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}
