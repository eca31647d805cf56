package engine

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

// DefaultSearchTerm is used when a product query carries no usable term.
const DefaultSearchTerm = "producto"

func noParams(fn func(context.Context) contractx.QueryResult) toolx.Handler {
	return func(ctx context.Context, _ toolx.Params) contractx.QueryResult {
		return fn(ctx)
	}
}

// Descriptors lists every engine operation as a catalog tool.
func (e *Engine) Descriptors() []toolx.Descriptor {
	return []toolx.Descriptor{
		{
			ID:          contractx.ToolProductCount,
			Category:    contractx.CategoryInventory,
			Title:       "Total de productos",
			Description: "Count active stockable products.",
			Handler:     noParams(e.ProductCount),
		},
		{
			ID:          contractx.ToolInventorySummary,
			Category:    contractx.CategoryInventory,
			Title:       "Resumen de inventario",
			Description: "Product count, total stock quantity and the products running low.",
			Handler:     noParams(e.InventorySummary),
		},
		{
			ID:          contractx.ToolSearchProducts,
			Category:    contractx.CategoryInventory,
			Title:       "Buscar productos",
			Description: "Search active products by name, description or category and report stock.",
			Params: []toolx.Param{
				{Name: "term", Type: toolx.TypeString, Desc: "Text to look for"},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.SearchProducts(ctx, p.String("term", DefaultSearchTerm))
			},
		},
		{
			ID:          contractx.ToolSearchByCategory,
			Category:    contractx.CategoryInventory,
			Title:       "Productos por categoría",
			Description: "List active products whose category matches.",
			Params: []toolx.Param{
				{Name: "category", Type: toolx.TypeString, Desc: "Category name or part of it"},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.SearchByCategory(ctx, p.String("category", ""))
			},
		},
		{
			ID:          contractx.ToolLowStock,
			Category:    contractx.CategoryInventory,
			Title:       "Stock bajo",
			Description: "Products with stock below a threshold and the suggested restock.",
			Params: []toolx.Param{
				{Name: "threshold", Type: toolx.TypeNumber, Desc: "Quantity below which stock is low", Minimum: toolx.Min(0)},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.LowStock(ctx, p.Float("threshold", e.cfg.DefaultThreshold))
			},
		},
		{
			ID:          contractx.ToolSearchQuotations,
			Category:    contractx.CategoryInventory,
			Title:       "Cotizaciones con stock",
			Description: "Open quotations containing matching products, with stock coverage per line.",
			Params: []toolx.Param{
				{Name: "term", Type: toolx.TypeString, Desc: "Product text to look for"},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.SearchQuotations(ctx, p.String("term", DefaultSearchTerm))
			},
		},
		{
			ID:          contractx.ToolCRMSummary,
			Category:    contractx.CategoryCRM,
			Title:       "Resumen del CRM",
			Description: "Open, won and lost opportunity counts and open expected revenue.",
			Handler:     noParams(e.CRMSummary),
		},
		{
			ID:          contractx.ToolOpenOpportunityCount,
			Category:    contractx.CategoryCRM,
			Title:       "Oportunidades abiertas",
			Description: "Count open opportunities.",
			Handler:     noParams(e.OpenOpportunityCount),
		},
		{
			ID:          contractx.ToolOpportunitiesByStage,
			Category:    contractx.CategoryCRM,
			Title:       "Oportunidades por etapa",
			Description: "Active opportunity count and expected revenue per stage.",
			Handler:     noParams(e.OpportunitiesByStage),
		},
		{
			ID:          contractx.ToolPipelineSummary,
			Category:    contractx.CategoryCRM,
			Title:       "Pipeline de ventas",
			Description: "Active opportunities grouped by stage with revenue and average deal size.",
			Handler:     noParams(e.PipelineSummary),
		},
		{
			ID:          contractx.ToolListOpenOpportunities,
			Category:    contractx.CategoryCRM,
			Title:       "Listado de oportunidades abiertas",
			Description: "Open opportunities ordered by probability and expected revenue.",
			Params: []toolx.Param{
				{Name: "limit", Type: toolx.TypeInteger, Desc: "Maximum rows", Minimum: toolx.Min(1), Maximum: toolx.Max(100)},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.ListOpenOpportunities(ctx, p.Int("limit", e.cfg.OpenListLimit))
			},
		},
		{
			ID:          contractx.ToolSearchByStage,
			Category:    contractx.CategoryCRM,
			Title:       "Buscar por etapa",
			Description: "Leads and opportunities in stages whose name matches.",
			Params: []toolx.Param{
				{Name: "stage", Type: toolx.TypeString, Desc: "Stage name or part of it"},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.SearchByStage(ctx, p.String("stage", ""))
			},
		},
		{
			ID:          contractx.ToolLeadInfo,
			Category:    contractx.CategoryCRM,
			Title:       "Información de leads",
			Description: "Details of leads and opportunities whose name or customer matches.",
			Params: []toolx.Param{
				{Name: "name", Type: toolx.TypeString, Desc: "Lead or customer name"},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.LeadInfo(ctx, p.String("name", ""))
			},
		},
		{
			ID:          contractx.ToolCreateOpportunity,
			Category:    contractx.CategoryCRM,
			Title:       "Crear oportunidad",
			Description: "Create a lead or opportunity, resolving the customer and stage by name.",
			Mutating:    true,
			Params: []toolx.Param{
				{Name: "name", Type: toolx.TypeString, Desc: "Opportunity title", Required: true},
				{Name: "type", Type: toolx.TypeString, Desc: "Record type", Enum: []string{storex.RecordTypeLead, storex.RecordTypeOpportunity}},
				{Name: "customer", Type: toolx.TypeString, Desc: "Customer name"},
				{Name: "email", Type: toolx.TypeString, Desc: "Contact email"},
				{Name: "phone", Type: toolx.TypeString, Desc: "Contact phone"},
				{Name: "stage", Type: toolx.TypeString, Desc: "Stage name"},
				{Name: "salesperson", Type: toolx.TypeString, Desc: "Salesperson"},
				{Name: "expected_revenue", Type: toolx.TypeNumber, Desc: "Expected revenue", Minimum: toolx.Min(0)},
				{Name: "probability", Type: toolx.TypeNumber, Desc: "Success probability", Minimum: toolx.Min(0), Maximum: toolx.Max(100)},
			},
			Handler: func(ctx context.Context, p toolx.Params) contractx.QueryResult {
				return e.CreateOpportunity(ctx, storex.NewOpportunity{
					Name:            p.String("name", ""),
					Type:            p.String("type", storex.RecordTypeOpportunity),
					CustomerName:    p.String("customer", ""),
					Email:           p.String("email", ""),
					Phone:           p.String("phone", ""),
					StageName:       p.String("stage", ""),
					Salesperson:     p.String("salesperson", ""),
					ExpectedRevenue: p.Float("expected_revenue", 0),
					Probability:     p.Float("probability", 0),
				})
			},
		},
	}
}

// BuildCatalog registers every engine tool plus help and freezes the
// catalog.
func BuildCatalog(e *Engine) (*toolx.Catalog, error) {
	cat := toolx.NewCatalog()
	for _, d := range e.Descriptors() {
		if err := cat.Register(d); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
	}
	if err := toolx.RegisterHelp(cat); err != nil {
		return nil, fmt.Errorf("register help: %w", err)
	}
	cat.Freeze()
	return cat, nil
}
