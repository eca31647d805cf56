package tool

import (
	"context"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

const helpMessage = "No entendí la consulta. Puedo ayudarte con inventario y CRM; prueba con alguna de estas preguntas."

var helpTopics = []struct {
	category contractx.Category
	title    string
	examples []string
}{
	{
		category: contractx.CategoryInventory,
		title:    "Productos y stock",
		examples: []string{
			"¿Cuántos productos tenemos?",
			"Busco sillas",
			"Productos con stock bajo",
			"Resumen de inventario",
			"Productos de la categoría muebles",
			"Cotización para sillas",
		},
	},
	{
		category: contractx.CategoryCRM,
		title:    "Leads y oportunidades",
		examples: []string{
			"Resumen del CRM",
			"¿Cuántas oportunidades abiertas hay?",
			"Pipeline de ventas",
			"Oportunidades en etapa propuesta",
			"Información del lead Acme",
			`Crear oportunidad "Mesas" para cliente Globex`,
		},
	},
}

// HelpResult lists what the catalog can answer. It is what unmatched
// messages get back.
func HelpResult(c *Catalog) contractx.QueryResult {
	out := contractx.Help{
		Message:    helpMessage,
		Categories: make([]contractx.HelpCategory, 0, len(helpTopics)),
	}
	for _, topic := range helpTopics {
		tools := []contractx.ToolID{}
		for _, d := range c.List(topic.category) {
			tools = append(tools, d.ID)
		}
		out.Categories = append(out.Categories, contractx.HelpCategory{
			Category: topic.category,
			Title:    topic.title,
			Examples: append([]string(nil), topic.examples...),
			Tools:    tools,
		})
	}
	return contractx.Success(contractx.ToolHelp, out)
}

// RegisterHelp adds the help tool; call it after the domain tools so the
// listing is complete.
func RegisterHelp(c *Catalog) error {
	return c.Register(Descriptor{
		ID:          contractx.ToolHelp,
		Category:    contractx.CategoryHelp,
		Title:       "Ayuda",
		Description: "List the kinds of questions the assistant can answer.",
		Handler: func(ctx context.Context, _ Params) contractx.QueryResult {
			return HelpResult(c)
		},
	})
}

// ListResult describes every registered tool, optionally by category.
func ListResult(c *Catalog, categories ...contractx.Category) contractx.QueryResult {
	descs := c.List(categories...)
	out := contractx.ToolList{Tools: make([]contractx.ToolSummary, 0, len(descs))}
	for _, d := range descs {
		out.Tools = append(out.Tools, d.Summary())
	}
	out.Count = len(out.Tools)
	return contractx.Success("tools.list", out)
}
