package engine

import (
	"context"
	"strings"
	"time"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
)

// SearchQuotations finds open quotations (draft or sent) that include a
// product matching term and reports stock coverage for those lines.
func (e *Engine) SearchQuotations(ctx context.Context, term string) contractx.QueryResult {
	term = strings.TrimSpace(term)
	return e.run(ctx, contractx.ToolSearchQuotations, func(ctx context.Context) (any, error) {
		out := contractx.QuotationSearch{
			Term:            term,
			MatchedProducts: make([]string, 0),
			Quotations:      make([]contractx.QuotationRow, 0),
			Currency:        e.cfg.Currency,
		}

		products, err := e.store.SearchProducts(ctx,
			storex.And(storex.Where(storex.FieldActive, storex.OpEq, true), productMatch(term)),
			storex.Page{},
		)
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return out, nil
		}

		matched := make(map[int64]struct{}, len(products))
		ids := make([]int64, 0, len(products))
		for _, p := range products {
			matched[p.ID] = struct{}{}
			ids = append(ids, p.ID)
			out.MatchedProducts = append(out.MatchedProducts, p.Name)
		}

		quotes, err := e.store.SearchQuotations(ctx,
			storex.And(
				storex.Where(storex.FieldProductID, storex.OpIn, ids),
				storex.Where(storex.FieldState, storex.OpIn, []string{storex.QuotationDraft, storex.QuotationSent}),
			),
			storex.Page{
				Limit: e.cfg.QuotationLimit,
				Order: []storex.Order{
					storex.OrderBy(storex.FieldDateOrder, true),
					storex.OrderBy(storex.FieldID, true),
				},
			},
		)
		if err != nil {
			return nil, err
		}

		for _, q := range quotes {
			row := contractx.QuotationRow{
				ID:          q.ID,
				Name:        q.Name,
				State:       q.State,
				DateOrder:   q.DateOrder.UTC().Format(time.DateOnly),
				AmountTotal: q.AmountTotal,
				Lines:       make([]contractx.QuotationLine, 0, len(q.Lines)),
			}
			if q.Partner != nil {
				row.Customer = q.Partner.Name
			}
			for _, l := range q.Lines {
				if _, ok := matched[l.ProductID]; !ok {
					continue
				}
				row.Lines = append(row.Lines, contractx.QuotationLine{
					Product:      l.ProductName,
					Quantity:     l.Quantity,
					PriceUnit:    l.PriceUnit,
					Subtotal:     l.Subtotal,
					QtyAvailable: l.QtyAvailable,
					StockStatus:  lineStockStatus(l.QtyAvailable, l.Quantity),
				})
			}
			out.Quotations = append(out.Quotations, row)
		}
		out.Count = len(out.Quotations)
		return out, nil
	})
}

func lineStockStatus(available, wanted float64) contractx.LineStockStatus {
	switch {
	case available >= wanted:
		return contractx.LineStockSufficient
	case available > 0:
		return contractx.LineStockPartial
	default:
		return contractx.LineStockUnavailable
	}
}
