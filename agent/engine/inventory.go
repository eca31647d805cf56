package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
)

func activeStockable() storex.Term {
	return storex.And(
		storex.Where(storex.FieldActive, storex.OpEq, true),
		storex.Where(storex.FieldType, storex.OpEq, storex.ProductTypeStorable),
	)
}

// productMatch matches name, description or category against the term and
// its singular forms, so "sillas" still finds "Silla ergonómica".
func productMatch(term string) storex.Term {
	terms := make([]storex.Term, 0, 9)
	for _, v := range termVariants(term) {
		terms = append(terms,
			storex.Where(storex.FieldName, storex.OpILike, v),
			storex.Where(storex.FieldDescription, storex.OpILike, v),
			storex.Where(storex.FieldCategory, storex.OpILike, v),
		)
	}
	return storex.Or(terms...)
}

func termVariants(term string) []string {
	out := []string{term}
	if len([]rune(term)) <= 3 || strings.Contains(term, " ") {
		return out
	}
	lower := strings.ToLower(term)
	if strings.HasSuffix(lower, "es") {
		out = append(out, term[:len(term)-2])
	}
	if strings.HasSuffix(lower, "s") {
		out = append(out, term[:len(term)-1])
	}
	return out
}

func (e *Engine) ProductCount(ctx context.Context) contractx.QueryResult {
	return e.run(ctx, contractx.ToolProductCount, func(ctx context.Context) (any, error) {
		n, err := e.store.CountProducts(ctx, activeStockable())
		if err != nil {
			return nil, err
		}
		return contractx.ProductCount{TotalProducts: n}, nil
	})
}

// InventorySummary derives every figure from one snapshot, so the stock
// total always covers exactly the counted products.
func (e *Engine) InventorySummary(ctx context.Context) contractx.QueryResult {
	return e.run(ctx, contractx.ToolInventorySummary, func(ctx context.Context) (any, error) {
		products, err := e.store.SearchProducts(ctx, activeStockable(), storex.Page{})
		if err != nil {
			return nil, err
		}

		total := decimal.Zero
		low := make([]contractx.LowStockItem, 0)
		for _, p := range products {
			total = total.Add(dec(p.QtyAvailable))
			if p.QtyAvailable > 0 && p.QtyAvailable <= e.cfg.LowStockLevel && len(low) < e.cfg.LowStockListLimit {
				low = append(low, contractx.LowStockItem{ID: p.ID, Name: p.Name, QtyAvailable: p.QtyAvailable})
			}
		}

		qty, _ := total.Float64()
		return contractx.InventorySummary{
			TotalProducts:      len(products),
			TotalStockQuantity: qty,
			LowStockThreshold:  e.cfg.LowStockLevel,
			LowStockProducts:   low,
		}, nil
	})
}

func (e *Engine) SearchProducts(ctx context.Context, term string) contractx.QueryResult {
	term = strings.TrimSpace(term)
	return e.run(ctx, contractx.ToolSearchProducts, func(ctx context.Context) (any, error) {
		hits, err := e.productHits(ctx, productMatch(term))
		if err != nil {
			return nil, err
		}
		return contractx.ProductSearch{Term: term, Count: len(hits), Products: hits, Currency: e.cfg.Currency}, nil
	})
}

func (e *Engine) SearchByCategory(ctx context.Context, category string) contractx.QueryResult {
	category = strings.TrimSpace(category)
	return e.run(ctx, contractx.ToolSearchByCategory, func(ctx context.Context) (any, error) {
		hits, err := e.productHits(ctx, storex.Where(storex.FieldCategory, storex.OpILike, category))
		if err != nil {
			return nil, err
		}
		return contractx.ProductSearch{Category: category, Count: len(hits), Products: hits, Currency: e.cfg.Currency}, nil
	})
}

func (e *Engine) productHits(ctx context.Context, match storex.Term) ([]contractx.ProductHit, error) {
	products, err := e.store.SearchProducts(ctx,
		storex.And(storex.Where(storex.FieldActive, storex.OpEq, true), match),
		storex.Page{Limit: e.cfg.SearchLimit},
	)
	if err != nil {
		return nil, err
	}

	hits := make([]contractx.ProductHit, 0, len(products))
	for _, p := range products {
		hits = append(hits, contractx.ProductHit{
			ID:           p.ID,
			Name:         p.Name,
			Category:     p.Category,
			QtyAvailable: p.QtyAvailable,
			ListPrice:    p.ListPrice,
			StockValue:   money(dec(p.QtyAvailable).Mul(dec(p.ListPrice))),
			StockStatus:  e.stockStatus(p.QtyAvailable),
		})
	}
	return hits, nil
}

func (e *Engine) stockStatus(qty float64) contractx.StockStatus {
	switch {
	case qty <= 0:
		return contractx.StockOut
	case qty <= e.cfg.LowStockLevel:
		return contractx.StockLow
	default:
		return contractx.StockIn
	}
}

// SuggestedRestock tops a product up to the reorder floor, never ordering
// less than the minimum batch.
func (e *Engine) SuggestedRestock(qty float64) float64 {
	return math.Max(e.cfg.ReorderFloor-qty, e.cfg.MinimumRestock)
}

func (e *Engine) LowStock(ctx context.Context, threshold float64) contractx.QueryResult {
	return e.run(ctx, contractx.ToolLowStock, func(ctx context.Context) (any, error) {
		if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
			return nil, fmt.Errorf("%w: threshold must be a non-negative number, got %v", contractx.ErrValidation, threshold)
		}

		products, err := e.store.SearchProducts(ctx,
			storex.And(
				activeStockable(),
				storex.Where(storex.FieldQtyAvailable, storex.OpGt, 0),
				storex.Where(storex.FieldQtyAvailable, storex.OpLt, threshold),
			),
			storex.Page{Order: []storex.Order{
				storex.OrderBy(storex.FieldQtyAvailable, false),
				storex.OrderBy(storex.FieldID, false),
			}},
		)
		if err != nil {
			return nil, err
		}

		total := decimal.Zero
		items := make([]contractx.RestockItem, 0, len(products))
		for _, p := range products {
			suggested := e.SuggestedRestock(p.QtyAvailable)
			value := dec(suggested).Mul(dec(p.ListPrice)).Round(2)
			total = total.Add(value)
			items = append(items, contractx.RestockItem{
				ID:               p.ID,
				Name:             p.Name,
				QtyAvailable:     p.QtyAvailable,
				ListPrice:        p.ListPrice,
				SuggestedRestock: suggested,
				RestockValue:     money(value),
			})
		}

		return contractx.LowStock{
			Threshold:         threshold,
			Count:             len(items),
			Products:          items,
			TotalRestockValue: money(total),
			Currency:          e.cfg.Currency,
		}, nil
	})
}
