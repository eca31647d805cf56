package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

// Seed inserts the fixture in one transaction, resolving name references to
// the generated ids.
func (s *BunStore) Seed(ctx context.Context, fx *Fixture) error {
	return s.runInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if err := seedRows(ctx, tx, fx); err != nil {
			return fmt.Errorf("%w: seed: %v", contractx.ErrDataAccess, err)
		}
		return nil
	})
}

func seedRows(ctx context.Context, tx bun.IDB, fx *Fixture) error {
	categories := map[string]int64{}
	for _, name := range fx.Categories {
		row := &categoryRow{Name: name}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		categories[name] = row.ID
	}

	products := map[string]int64{}
	for _, p := range fx.Products {
		if _, ok := categories[p.Category]; p.Category != "" && !ok {
			row := &categoryRow{Name: p.Category}
			if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("category %q: %w", p.Category, err)
			}
			categories[p.Category] = row.ID
		}
		row := &productRow{
			Name:         p.Name,
			Description:  p.Description,
			Type:         p.Type,
			CategoryID:   categories[p.Category],
			UoM:          p.UoM,
			QtyAvailable: p.Qty,
			ListPrice:    p.Price,
			Active:       isActive(p.Active),
		}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("product %q: %w", p.Name, err)
		}
		products[p.Name] = row.ID
	}

	stages := map[string]int64{}
	for _, st := range fx.Stages {
		row := &stageRow{Name: st.Name, Sequence: st.Sequence, IsWon: st.IsWon, IsLost: st.IsLost}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("stage %q: %w", st.Name, err)
		}
		stages[st.Name] = row.ID
	}

	partners := map[string]int64{}
	for _, p := range fx.Partners {
		row := &partnerRow{Name: p.Name, Email: p.Email, Phone: p.Phone}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("partner %q: %w", p.Name, err)
		}
		partners[p.Name] = row.ID
	}

	for _, o := range fx.Opportunities {
		row := &opportunityRow{
			Name:            o.Name,
			Type:            o.Type,
			Active:          isActive(o.Active),
			Probability:     o.Probability,
			ExpectedRevenue: o.ExpectedRevenue,
			StageID:         stages[o.Stage],
			PartnerID:       partners[o.Customer],
			Salesperson:     o.Salesperson,
			Email:           o.Email,
			Phone:           o.Phone,
		}
		if row.Active {
			row.DedupeKey = dedupeKey(o.Type, o.Name, o.Customer)
		}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("opportunity %q: %w", o.Name, err)
		}
	}

	for _, q := range fx.Quotations {
		date, err := q.orderDate()
		if err != nil {
			return fmt.Errorf("quotation %q: %w", q.Name, err)
		}
		row := &quotationRow{
			Name:        q.Name,
			State:       q.State,
			PartnerID:   partners[q.Customer],
			DateOrder:   date,
			AmountTotal: q.total(),
		}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("quotation %q: %w", q.Name, err)
		}
		for _, l := range q.Lines {
			productID, ok := products[l.Product]
			if !ok {
				return fmt.Errorf("quotation %q references unknown product %q", q.Name, l.Product)
			}
			line := &quotationLineRow{
				OrderID:       row.ID,
				ProductID:     productID,
				ProductUomQty: l.Quantity,
				PriceUnit:     l.Price,
				PriceSubtotal: l.Quantity * l.Price,
			}
			if _, err := tx.NewInsert().Model(line).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("quotation %q line: %w", q.Name, err)
			}
		}
	}
	return nil
}
