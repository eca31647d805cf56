package intent

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

const (
	DefaultTerm            = "producto"
	DefaultOpportunityName = "Oportunidad desde chat"
)

type Config struct {
	TermTokens       int      `split_words:"true" default:"3" validate:"gte=1"`
	DefaultThreshold float64  `split_words:"true" default:"10" validate:"gte=0"`
	DefaultStages    []string `split_words:"true" default:"Nuevo,Calificado,Propuesta,Negociación,Ganado,Perdido"`
}

func DefaultConfig() Config {
	return Config{
		TermTokens:       3,
		DefaultThreshold: 10,
		DefaultStages:    []string{"Nuevo", "Calificado", "Propuesta", "Negociación", "Ganado", "Perdido"},
	}
}

// StageSource lists the live pipeline stages ordered by sequence.
type StageSource interface {
	StageNames(ctx context.Context) ([]string, error)
}

// Extractor pulls tool params out of free text. It never fails; every
// field falls back to a default.
type Extractor struct {
	cfg    Config
	stages StageSource
}

func NewExtractor(cfg Config, stages StageSource) *Extractor {
	if cfg.TermTokens <= 0 {
		cfg.TermTokens = DefaultConfig().TermTokens
	}
	if len(cfg.DefaultStages) == 0 {
		cfg.DefaultStages = DefaultConfig().DefaultStages
	}
	return &Extractor{cfg: cfg, stages: stages}
}

func (x *Extractor) Extract(ctx context.Context, tool contractx.ToolID, text string) map[string]any {
	switch tool {
	case contractx.ToolSearchProducts, contractx.ToolSearchQuotations:
		return map[string]any{"term": x.Term(text, DefaultTerm)}
	case contractx.ToolLeadInfo:
		return map[string]any{"name": x.Term(text, "")}
	case contractx.ToolSearchByCategory:
		return map[string]any{"category": x.Category(text)}
	case contractx.ToolLowStock:
		return map[string]any{"threshold": x.Threshold(text)}
	case contractx.ToolSearchByStage:
		return map[string]any{"stage": x.Stage(ctx, text)}
	case contractx.ToolListOpenOpportunities:
		if n, ok := firstNumber(text); ok && n >= 1 {
			return map[string]any{"limit": int(math.Min(math.Floor(n), 100))}
		}
		return map[string]any{}
	case contractx.ToolCreateOpportunity:
		return x.NewOpportunity(text)
	default:
		return map[string]any{}
	}
}

var stopWords = toSet(
	// articles, prepositions and fillers
	"el", "la", "los", "las", "de", "en", "un", "una", "unos", "unas", "por", "para", "con",
	"que", "me", "tu", "su", "al", "del", "y", "o", "pero", "si", "no", "sobre", "todos", "todas",
	"busco", "necesito", "quiero", "tengo", "hay", "tiene", "tienes", "tenemos", "cual", "cuales",
	"cuanto", "cuantos", "cuanta", "cuantas", "donde", "dame", "muestra", "muestrame", "ver",
	"the", "for", "and", "with", "what", "which", "show", "give", "find", "about", "any", "all",
	// intent keywords
	"cotizacion", "cotizaciones", "presupuesto", "presupuestos", "quotation", "quotations", "quote", "quotes",
	"producto", "productos", "product", "products", "stock", "precio", "precios", "price", "prices",
	"buscar", "busca", "search", "lead", "leads", "cliente", "clientes", "customer", "customers",
	"informacion", "info", "datos", "detalle", "detalles", "details", "contacto",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Term keeps the first few words that are neither stop words nor shorter
// than three letters.
func (x *Extractor) Term(text, fallback string) string {
	kept := make([]string, 0, x.cfg.TermTokens)
	for _, tok := range tokens(text) {
		folded := Fold(tok)
		if len([]rune(folded)) <= 2 {
			continue
		}
		if _, stop := stopWords[folded]; stop {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == x.cfg.TermTokens {
			break
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, " ")
}

var categoryPattern = regexp.MustCompile(`categor(?:ia|y|ias|ies)\s+(?:del?\s+|of\s+)?(\w+)`)

func (x *Extractor) Category(text string) string {
	if m := categoryPattern.FindStringSubmatch(Normalize(text)); m != nil {
		return originalWord(text, m[1])
	}
	return x.Term(strings.NewReplacer("categoría", "", "categoria", "", "category", "").Replace(text), "")
}

// originalWord returns the token of text whose folded form is folded, so
// "Electrónica" survives the normalization used for matching.
func originalWord(text, folded string) string {
	for _, tok := range tokens(text) {
		if Fold(tok) == folded {
			return tok
		}
	}
	return folded
}

func (x *Extractor) Threshold(text string) float64 {
	if n, ok := firstNumber(text); ok {
		return n
	}
	return x.cfg.DefaultThreshold
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

func firstNumber(text string) (float64, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	return parseAmount(m)
}

// parseAmount accepts "1500", "1.500", "1,500.50" and "1500,5".
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
	case lastComma >= 0:
		if len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastDot >= 0 && strings.Count(s, ".") > 1, lastDot >= 0 && len(s)-lastDot-1 == 3:
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Stage picks the first vocabulary stage named in text, or the first stage
// of the vocabulary when none is.
func (x *Extractor) Stage(ctx context.Context, text string) string {
	vocab := x.vocabulary(ctx)
	if len(vocab) == 0 {
		return ""
	}
	normalized := " " + Normalize(text) + " "
	for _, name := range vocab {
		if n := Normalize(name); n != "" && strings.Contains(normalized, " "+n+" ") {
			return name
		}
	}
	for _, word := range strings.Fields(normalized) {
		if len(word) < 4 {
			continue
		}
		for _, name := range vocab {
			if strings.HasPrefix(Normalize(name), word) {
				return name
			}
		}
	}
	return vocab[0]
}

func (x *Extractor) vocabulary(ctx context.Context) []string {
	if x.stages == nil {
		return x.cfg.DefaultStages
	}
	names, err := x.stages.StageNames(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("stage vocabulary unavailable, using defaults")
		return x.cfg.DefaultStages
	}
	if len(names) == 0 {
		return x.cfg.DefaultStages
	}
	return names
}

var (
	quotedPattern   = regexp.MustCompile(`["“«']([^"”»']+)["”»']`)
	namedPattern    = regexp.MustCompile(`(?i)\b(?:llamad[ao]|named|called|nombre|titulad[ao])\s*:?\s+(.+?)(?:\s+(?:para|for|cliente|customer|con|with|por)\b|[,;]|$)`)
	clientPattern   = regexp.MustCompile(`(?i)\b(?:cliente|customer)\s*:?\s+(.+?)(?:\s+(?:con|with|por|de|email|correo|tel|telefono|teléfono|phone|ingresos?|revenue)\b|[,;]|$)`)
	forPattern      = regexp.MustCompile(`(?i)\b(?:para|for)\s+(?:el\s+|la\s+)?(.+?)(?:\s+(?:con|with|por|de|email|correo|tel|telefono|teléfono|phone|ingresos?|revenue)\b|[,;]|$)`)
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	revenuePattern  = regexp.MustCompile(`(?i)(?:\$\s*|\b(?:ingresos?|revenue|valor|monto|importe)\s*(?:de|of)?\s*\$?\s*)(\d+(?:[.,]\d+)*)`)
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s\-]{6,}\d`)
	leadTypePattern = regexp.MustCompile(`\bleads?\b`)
	oppTypePattern  = regexp.MustCompile(`\b(oportunidad|opportunity)\b`)
)

// NewOpportunity builds createOpportunity params. Empty fields are left
// out so the store applies its own defaults.
func (x *Extractor) NewOpportunity(text string) map[string]any {
	params := map[string]any{}
	rest := text

	name := ""
	if m := quotedPattern.FindStringSubmatch(rest); m != nil {
		name = strings.TrimSpace(m[1])
		rest = strings.Replace(rest, m[0], " ", 1)
	} else if m := namedPattern.FindStringSubmatch(rest); m != nil {
		name = strings.TrimSpace(m[1])
	}
	if name == "" {
		name = DefaultOpportunityName
	}
	params["name"] = name

	if m := emailPattern.FindString(rest); m != "" {
		params["email"] = m
		rest = strings.Replace(rest, m, " ", 1)
	}
	if m := revenuePattern.FindStringSubmatch(rest); m != nil {
		if v, ok := parseAmount(m[1]); ok {
			params["expected_revenue"] = v
		}
		rest = strings.Replace(rest, m[0], " ", 1)
	}
	if m := phonePattern.FindString(rest); m != "" && digitCount(m) >= 8 {
		params["phone"] = strings.TrimSpace(m)
	}

	customer := ""
	if m := clientPattern.FindStringSubmatch(rest); m != nil {
		customer = m[1]
	} else if m := forPattern.FindStringSubmatch(rest); m != nil {
		customer = m[1]
	}
	if customer = strings.Trim(strings.TrimSpace(customer), ".!?"); customer != "" {
		params["customer"] = customer
	}

	normalized := Normalize(text)
	if leadTypePattern.MatchString(normalized) && !oppTypePattern.MatchString(normalized) {
		params["type"] = "lead"
	} else {
		params["type"] = "opportunity"
	}
	return params
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
