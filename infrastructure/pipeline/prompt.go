package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Default counts requested from the provider. Both sit above the
// acceptance minimums so validation and deduplication losses still leave a
// viable candidate.
const (
	DefaultHeadlineCount    = 15
	DefaultDescriptionCount = 4
)

// Generation strategies rotated across batch variations. The seed picks
// the angle so sibling candidates in a batch attack the keywords
// differently instead of converging on the same phrasing.
const (
	strategyDirect    = "direct"
	strategyUrgency   = "urgency"
	strategyAuthority = "authority"
)

// strategyInstructions maps each strategy to the instruction block injected
// into the prompt.
var strategyInstructions = map[string]string{
	strategyDirect: "Escribe titulares directos y claros que describan el servicio " +
		"exactamente como lo buscaría el usuario.",
	strategyUrgency: "Escribe titulares con sentido de urgencia e inmediatez: " +
		"resultados rápidos, atención hoy mismo, disponibilidad inmediata.",
	strategyAuthority: "Escribe titulares que transmitan autoridad y experiencia: " +
		"maestría comprobada, años de experiencia, especialización reconocida.",
}

// PromptInput parameterizes a single prompt build.
type PromptInput struct {
	// Keywords are the seed search terms. The list is rotated by
	// VariationSeed before rendering so each variation leads with a
	// different keyword.
	Keywords []string

	// Tone is the requested copy tone, e.g. "profesional" or "urgente".
	Tone string

	// Exclusions are descriptions from earlier variations that the
	// provider must not repeat or rephrase.
	Exclusions []string

	// UsesLocationInsertion asks the provider to weave location tokens
	// into some headlines.
	UsesLocationInsertion bool

	// VariationSeed selects the generation strategy and the keyword
	// rotation offset.
	VariationSeed int

	// HeadlineCount and DescriptionCount are the quantities to request.
	// Zero values fall back to the package defaults.
	HeadlineCount    int
	DescriptionCount int
}

// promptData is the flattened view handed to the template.
type promptData struct {
	Keywords             string
	Tone                 string
	Strategy             string
	Exclusions           []string
	HeadlineCount        int
	DescriptionCount     int
	DirectCount          int
	BenefitCount         int
	CallToActionCount    int
	HeadlineMin          int
	HeadlineMax          int
	DescriptionMin       int
	DescriptionMax       int
	UseLocationInsertion bool
	LocationCity         string
	LocationState        string
	LocationCountry      string
}

// defaultPromptTemplate is the compiled-in prompt. It demands strict JSON
// so the assembler's parser has a fighting chance, distributes headline
// archetypes, and spells out the platform's length limits up front since
// providers respect limits stated in the prompt far more often than
// implied ones.
const defaultPromptTemplate = `Eres un redactor experto en anuncios de Google Ads para el mercado hispanohablante.

Genera exactamente {{.HeadlineCount}} titulares y {{.DescriptionCount}} descripciones para una campaña de búsqueda.

Palabras clave de la campaña: {{.Keywords}}
Tono: {{.Tone}}

Estrategia: {{.Strategy}}

Distribución de titulares:
- {{.DirectCount}} titulares directos sobre el servicio
- {{.BenefitCount}} titulares de beneficio o resultado
- {{.CallToActionCount}} titulares con llamada a la acción

Reglas estrictas:
- Titulares: entre {{.HeadlineMin}} y {{.HeadlineMax}} caracteres cada uno.
- Descripciones: entre {{.DescriptionMin}} y {{.DescriptionMax}} caracteres cada una.
- Sin signos de exclamación ni interrogación.
- Sin emojis y sin mayúsculas sostenidas.
{{- if .UseLocationInsertion}}
- Incluye en algunos titulares los marcadores de ubicación exactamente así:
  {{.LocationCity}}, {{.LocationState}}, {{.LocationCountry}}
  Ejemplo: "Curandero en {{.LocationCity}}"
{{- end}}
{{- if .Exclusions}}

NO repitas ni parafrasees estas descripciones ya utilizadas:
{{- range .Exclusions}}
- {{.}}
{{- end}}
{{- end}}

IMPORTANTE: Responde únicamente con JSON válido, exactamente en este formato, sin texto adicional:
{"headlines": ["..."], "descriptions": ["..."]}`

// PromptBuilder renders generation prompts from a compiled template.
// The zero value is unusable; construct with NewPromptBuilder. Builders
// are immutable and safe for concurrent use.
type PromptBuilder struct {
	tmpl    *template.Template
	lengths LengthPolicy
}

// NewPromptBuilder compiles the default prompt template against the given
// length policy so the prompt always states the limits the assembler will
// enforce.
func NewPromptBuilder(lengths LengthPolicy) (*PromptBuilder, error) {
	if err := lengths.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.New("adPrompt").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl, lengths: lengths}, nil
}

// Build renders the prompt for one variation. Returns ErrEmptyKeywords
// when the input carries no keywords.
func (b *PromptBuilder) Build(in PromptInput) (string, error) {
	if len(in.Keywords) == 0 {
		return "", ErrEmptyKeywords
	}

	headlineCount := in.HeadlineCount
	if headlineCount <= 0 {
		headlineCount = DefaultHeadlineCount
	}
	descriptionCount := in.DescriptionCount
	if descriptionCount <= 0 {
		descriptionCount = DefaultDescriptionCount
	}

	direct, benefit, cta := archetypeSplit(headlineCount)

	data := promptData{
		Keywords:             strings.Join(rotateKeywords(in.Keywords, in.VariationSeed), ", "),
		Tone:                 in.Tone,
		Strategy:             strategyInstructions[StrategyForSeed(in.VariationSeed)],
		Exclusions:           in.Exclusions,
		HeadlineCount:        headlineCount,
		DescriptionCount:     descriptionCount,
		DirectCount:          direct,
		BenefitCount:         benefit,
		CallToActionCount:    cta,
		HeadlineMin:          b.lengths.HeadlineMin,
		HeadlineMax:          b.lengths.HeadlineMax,
		DescriptionMin:       b.lengths.DescriptionMin,
		DescriptionMax:       b.lengths.DescriptionMax,
		UseLocationInsertion: in.UsesLocationInsertion,
		LocationCity:         LocationCity,
		LocationState:        LocationState,
		LocationCountry:      LocationCountry,
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return buf.String(), nil
}

// StrategyForSeed maps a variation seed to its generation strategy:
// seed 0 is direct, seed 1 urgency, everything after leans on authority.
func StrategyForSeed(seed int) string {
	switch seed {
	case 0:
		return strategyDirect
	case 1:
		return strategyUrgency
	default:
		return strategyAuthority
	}
}

// rotateKeywords returns keywords rotated left by seed positions so each
// variation leads with a different keyword. The input is never mutated.
func rotateKeywords(keywords []string, seed int) []string {
	n := len(keywords)
	if n == 0 {
		return nil
	}
	offset := seed % n
	if offset < 0 {
		offset += n
	}
	out := make([]string, 0, n)
	out = append(out, keywords[offset:]...)
	out = append(out, keywords[:offset]...)
	return out
}

// archetypeSplit distributes a headline count 60/25/15 across direct,
// benefit, and call-to-action archetypes, giving rounding leftovers to the
// direct bucket so the parts always sum to total.
func archetypeSplit(total int) (direct, benefit, cta int) {
	benefit = total * 25 / 100
	cta = total * 15 / 100
	direct = total - benefit - cta
	return direct, benefit, cta
}
