package intent

import (
	"regexp"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

// Rule maps a pattern over normalized text to a tool.
type Rule struct {
	Tool    contractx.ToolID
	Pattern *regexp.Regexp
}

func rule(tool contractx.ToolID, pattern string) Rule {
	return Rule{Tool: tool, Pattern: regexp.MustCompile(pattern)}
}

// DefaultRules is evaluated top to bottom and the first match wins, so
// specific phrases sit above the generic keywords they contain.
var DefaultRules = []Rule{
	rule(contractx.ToolSearchQuotations, `\b(cotizacion(es)?|presupuestos?|quotations?|quotes?)\b`),
	rule(contractx.ToolLowStock, `\b(bajo stock|poco stock|stock bajo|low stock|reabastec\w*|restock\w*|repon(er|gan?)|agotando\w*)\b`),
	rule(contractx.ToolProductCount, `\b(cuantos productos|how many products|(numero|total|cantidad) de productos)\b`),
	rule(contractx.ToolInventorySummary, `\b(inventario|inventory|stock total)\b`),
	rule(contractx.ToolSearchByCategory, `\b(categorias?|category|categories)\b`),
	// Creation needs an imperative verb or an explicit name, so questions
	// about new leads stay on the read path.
	rule(contractx.ToolCreateOpportunity, `\b(crear|crea|creame|registra|registrar|create|add)\s+(una\s+|un\s+|an?\s+)?(nueva\s+|nuevo\s+|new\s+)?(oportunidad|lead|opportunity)\b|\b(nueva|nuevo|new)\s+(oportunidad|lead|opportunity)\s+(llamad[oa]|named|called)\b`),
	rule(contractx.ToolOpportunitiesByStage, `\b(por etapas?|by stages?|per stage)\b`),
	rule(contractx.ToolSearchByStage, `\b(etapas?|stages?)\b`),
	rule(contractx.ToolPipelineSummary, `\b(pipeline|embudo)\b`),
	rule(contractx.ToolCRMSummary, `\b(crm|ganadas|perdidas)\b`),
	rule(contractx.ToolOpenOpportunityCount, `\b(cuantas oportunidades|how many opportunities|numero de oportunidades)\b`),
	rule(contractx.ToolListOpenOpportunities, `\b(oportunidades abiertas|open opportunities|oportunidad(es)?|opportunit(y|ies))\b`),
	rule(contractx.ToolLeadInfo, `\b(leads?|clientes?|customers?)\b`),
	rule(contractx.ToolSearchProducts, `\b(productos?|stock|precios?|buscar|busco|necesito|quiero|products?|prices?)\b`),
}

type Classifier struct {
	rules []Rule
}

func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the tool of the first matching rule. ok is false when
// nothing matches.
func (c *Classifier) Classify(text string) (contractx.ToolID, bool) {
	normalized := Normalize(text)
	if normalized == "" {
		return "", false
	}
	for _, r := range c.rules {
		if r.Pattern.MatchString(normalized) {
			return r.Tool, true
		}
	}
	return "", false
}

func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}
