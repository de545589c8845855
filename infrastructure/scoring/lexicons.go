package scoring

// The lexicons below encode CTR heuristics for Spanish-market search ads.
// They are plain data so tuning is a table edit, not a code change.

// prepositions are the Spanish prepositions used by the structural
// anti-pattern detectors. Short function words, so matching is always
// token-exact.
var prepositions = map[string]bool{
	"en": true, "de": true, "para": true, "por": true,
	"con": true, "a": true, "sin": true, "sobre": true,
}

// intensifiers are modifiers that read as filler when doubled.
var intensifiers = map[string]bool{
	"muy": true, "super": true, "súper": true,
	"ultra": true, "mega": true, "más": true,
}

// boosterCategory is one scoring table entry: the first trigger found in a
// headline contributes points*weight, and each category fires at most once.
type boosterCategory struct {
	name     string
	points   float64
	weight   float64
	triggers []string
}

// genericBoosters are vertical-agnostic CTR signals. Numeric content is
// detected separately (any digit counts), so it carries no trigger list.
var genericBoosters = []boosterCategory{
	{name: "numeric", points: 8, weight: 1.0},
	{name: "urgency", points: 7, weight: 1.0, triggers: []string{
		"urgente", "rápido", "rapido", "hoy", "ahora", "inmediato", "inmediata",
	}},
	{name: "free", points: 6, weight: 1.0, triggers: []string{
		"gratis", "gratuito", "gratuita", "sin costo",
	}},
	{name: "guarantee", points: 6, weight: 1.0, triggers: []string{
		"garantizado", "garantizada", "garantizados", "garantizadas",
		"garantía", "garantia", "comprobado", "comprobada", "comprobados",
	}},
	{name: "exclusivity", points: 5, weight: 1.0, triggers: []string{
		"exclusivo", "exclusiva", "único", "unico", "única", "unica", "limitado", "limitada",
	}},
}

// domainBoosters are signals specific to the esoteric-services vertical.
// Weights above 1.0 mark the signals that historically move CTR most.
var domainBoosters = []boosterCategory{
	{name: "authority", points: 6, weight: 1.2, triggers: []string{
		"maestro", "maestra", "experto", "experta", "profesional", "especialista",
	}},
	{name: "effectiveness", points: 6, weight: 1.3, triggers: []string{
		"efectivo", "efectiva", "efectivos", "poderoso", "poderosa", "funciona", "infalible",
	}},
	{name: "outcome", points: 6, weight: 1.4, triggers: []string{
		"enamorar", "recuperar", "recupera", "resultados", "volverá", "volvera", "regresa",
	}},
	{name: "emotional_urgency", points: 5, weight: 1.2, triggers: []string{
		"no esperes", "no pierdas", "última oportunidad", "ultima oportunidad",
	}},
	{name: "confidentiality", points: 5, weight: 1.1, triggers: []string{
		"discreto", "discreta", "discretos", "discretas",
		"confidencial", "privado", "privada", "secreto", "secreta",
	}},
	{name: "call_to_action", points: 5, weight: 1.2, triggers: []string{
		"consulta", "llama", "contacta", "pide", "agenda",
	}},
}

// intentCategory is one search-intent lexicon: matching any trigger adds
// weight points to the intent score, once per category.
type intentCategory struct {
	name     string
	weight   float64
	triggers []string
}

// intents recognize what the searcher is trying to do. Weights sum above
// 100 on purpose; the intent score is capped.
var intents = []intentCategory{
	{name: "urgency", weight: 25, triggers: []string{
		"urgente", "rápido", "rapido", "hoy", "ahora", "inmediato",
	}},
	{name: "transactional", weight: 30, triggers: []string{
		"consulta", "llama", "contacta", "agenda", "precio", "cita",
	}},
	{name: "outcome", weight: 20, triggers: []string{
		"enamorar", "recuperar", "amarre", "amarres", "resultados",
	}},
	{name: "authority", weight: 15, triggers: []string{
		"maestro", "experto", "especialista", "profesional",
	}},
	{name: "credibility", weight: 10, triggers: []string{
		"comprobado", "garantizado", "años de experiencia", "testimonios",
	}},
}

// boosterRecommendations suggest a concrete edit for each unused booster
// category. Keys match booster category names.
var boosterRecommendations = map[string]string{
	"numeric":           "add a concrete number (price, years, day count) to at least one headline",
	"urgency":           "add a time signal like \"hoy\" or \"inmediato\" to one headline",
	"free":              "mention a free first consultation if the offer supports it",
	"guarantee":         "reference proven or guaranteed results where defensible",
	"exclusivity":       "differentiate with an exclusivity angle (\"único\", \"especial\")",
	"authority":         "lead one headline with a credential (\"maestro\", \"experto\")",
	"effectiveness":     "state effectiveness directly (\"efectivo\", \"funciona\")",
	"outcome":           "name the outcome the searcher wants (\"recuperar\", \"enamorar\")",
	"emotional_urgency": "add an emotional urgency hook (\"no esperes más\")",
	"confidentiality":   "reassure discretion (\"100 por ciento confidencial\")",
	"call_to_action":    "close one headline with a direct action (\"consulta ya\")",
}

// antiPatternRecommendations suggest a fix for each fired anti-pattern
// family. Keys match detector category names.
var antiPatternRecommendations = map[string]string{
	"adjacent_prepositions": "rewrite headlines with stacked prepositions; they read as broken grammar",
	"word_repetition":       "remove immediately repeated words",
	"preposition_boundary":  "avoid starting or ending a headline on a preposition",
	"doubled_intensifiers":  "drop doubled intensity modifiers; one is enough",
}
