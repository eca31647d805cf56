package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

// column maps a filter field onto SQL. viaLines fields are matched through
// the quotation lines table.
type column struct {
	expr     string
	viaLines bool
}

var (
	productColumns = map[string]column{
		FieldID:           {expr: "p.id"},
		FieldName:         {expr: "p.name"},
		FieldDescription:  {expr: "p.description"},
		FieldType:         {expr: "p.type"},
		FieldCategory:     {expr: "category.name"},
		FieldQtyAvailable: {expr: "p.qty_available"},
		FieldListPrice:    {expr: "p.list_price"},
		FieldActive:       {expr: "p.active"},
	}

	opportunityColumns = map[string]column{
		FieldID:              {expr: "o.id"},
		FieldName:            {expr: "o.name"},
		FieldType:            {expr: "o.type"},
		FieldActive:          {expr: "o.active"},
		FieldProbability:     {expr: "o.probability"},
		FieldExpectedRevenue: {expr: "o.expected_revenue"},
		FieldStageID:         {expr: "o.stage_id"},
		FieldStage:           {expr: "stage.name"},
		FieldPartner:         {expr: "partner.name"},
		FieldSalesperson:     {expr: "o.salesperson"},
		FieldEmail:           {expr: "o.email"},
		FieldPhone:           {expr: "o.phone"},
	}

	stageColumns = map[string]column{
		FieldID:       {expr: "s.id"},
		FieldName:     {expr: "s.name"},
		FieldSequence: {expr: "s.sequence"},
		FieldIsWon:    {expr: "s.is_won"},
		FieldIsLost:   {expr: "s.is_lost"},
	}

	quotationColumns = map[string]column{
		FieldID:        {expr: "so.id"},
		FieldName:      {expr: "so.name"},
		FieldState:     {expr: "so.state"},
		FieldDateOrder: {expr: "so.date_order"},
		FieldPartner:   {expr: "partner.name"},
		FieldProductID: {expr: "sol.product_id", viaLines: true},
	}
)

// BunStore reads and writes the ERP tables through bun. It works on the
// postgres and sqlite dialects.
type BunStore struct {
	db bun.IDB
}

var (
	_ Store  = (*BunStore)(nil)
	_ Seeder = (*BunStore)(nil)
)

func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) SearchProducts(ctx context.Context, where Term, page Page) ([]Product, error) {
	var rows []productRow
	q := s.db.NewSelect().Model(&rows).Relation("Category")
	q, err := applyQuery(q, productColumns, where, page)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: search products: %v", contractx.ErrDataAccess, err)
	}

	out := make([]Product, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toProduct())
	}
	return out, nil
}

func (s *BunStore) CountProducts(ctx context.Context, where Term) (int, error) {
	q := s.db.NewSelect().Model((*productRow)(nil)).Relation("Category")
	q, err := applyWhere(q, productColumns, where)
	if err != nil {
		return 0, err
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count products: %v", contractx.ErrDataAccess, err)
	}
	return n, nil
}

func (s *BunStore) SearchOpportunities(ctx context.Context, where Term, page Page) ([]Opportunity, error) {
	return s.searchOpportunities(ctx, s.db, where, page)
}

func (s *BunStore) searchOpportunities(ctx context.Context, db bun.IDB, where Term, page Page) ([]Opportunity, error) {
	var rows []opportunityRow
	q := db.NewSelect().Model(&rows).Relation("Stage").Relation("Partner")
	q, err := applyQuery(q, opportunityColumns, where, page)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: search opportunities: %v", contractx.ErrDataAccess, err)
	}

	out := make([]Opportunity, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toOpportunity())
	}
	return out, nil
}

func (s *BunStore) CountOpportunities(ctx context.Context, where Term) (int, error) {
	q := s.db.NewSelect().Model((*opportunityRow)(nil)).Relation("Stage").Relation("Partner")
	q, err := applyWhere(q, opportunityColumns, where)
	if err != nil {
		return 0, err
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count opportunities: %v", contractx.ErrDataAccess, err)
	}
	return n, nil
}

func (s *BunStore) GroupOpportunitiesByStage(ctx context.Context, where Term) ([]StageGroup, error) {
	var rows []stageGroupRow
	q := s.db.NewSelect().
		TableExpr("crm_leads AS o").
		Join("LEFT JOIN crm_stages AS stage ON stage.id = o.stage_id").
		Join("LEFT JOIN partners AS partner ON partner.id = o.partner_id").
		ColumnExpr("o.stage_id AS stage_id").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(o.expected_revenue), 0) AS revenue").
		GroupExpr("o.stage_id")
	q, err := applyWhere(q, opportunityColumns, where)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx, &rows); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group opportunities by stage: %v", contractx.ErrDataAccess, err)
	}

	out := make([]StageGroup, 0, len(rows))
	for _, r := range rows {
		g := StageGroup{Count: r.Count, Revenue: r.Revenue}
		if r.StageID != nil {
			g.StageID = *r.StageID
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *BunStore) SearchStages(ctx context.Context, where Term, page Page) ([]Stage, error) {
	return s.searchStages(ctx, s.db, where, page)
}

func (s *BunStore) searchStages(ctx context.Context, db bun.IDB, where Term, page Page) ([]Stage, error) {
	var rows []stageRow
	q := db.NewSelect().Model(&rows)
	q, err := applyQuery(q, stageColumns, where, page)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: search stages: %v", contractx.ErrDataAccess, err)
	}

	out := make([]Stage, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toStage())
	}
	return out, nil
}

func (s *BunStore) SearchQuotations(ctx context.Context, where Term, page Page) ([]Quotation, error) {
	var rows []quotationRow
	q := s.db.NewSelect().Model(&rows).Relation("Partner").Relation("Lines")
	q, err := applyQuery(q, quotationColumns, where, page)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: search quotations: %v", contractx.ErrDataAccess, err)
	}

	productIDs := []int64{}
	for _, r := range rows {
		for _, l := range r.Lines {
			productIDs = append(productIDs, l.ProductID)
		}
	}
	products := map[int64]Product{}
	if len(productIDs) > 0 {
		found, err := s.SearchProducts(ctx, Where(FieldID, OpIn, productIDs), Page{})
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			products[p.ID] = p
		}
	}

	out := make([]Quotation, 0, len(rows))
	for _, r := range rows {
		quote := Quotation{
			ID:          r.ID,
			Name:        r.Name,
			State:       r.State,
			Partner:     r.Partner.toPartner(),
			DateOrder:   r.DateOrder,
			AmountTotal: r.AmountTotal,
		}
		for _, l := range r.Lines {
			p := products[l.ProductID]
			quote.Lines = append(quote.Lines, QuotationLine{
				ID:           l.ID,
				ProductID:    l.ProductID,
				ProductName:  p.Name,
				QtyAvailable: p.QtyAvailable,
				Quantity:     l.ProductUomQty,
				PriceUnit:    l.PriceUnit,
				Subtotal:     l.PriceSubtotal,
			})
		}
		out = append(out, quote)
	}
	return out, nil
}

// CreateOpportunity resolves the customer and stage and inserts the record
// in one transaction. Existing active rows with the same type, name and
// customer are a conflict; the partial unique index on dedupe_key settles
// concurrent writers.
func (s *BunStore) CreateOpportunity(ctx context.Context, in NewOpportunity) (Opportunity, error) {
	var created Opportunity
	err := s.runInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		partnerID, err := s.resolvePartner(ctx, tx, in)
		if err != nil {
			return err
		}
		if id, err := s.findDuplicate(ctx, tx, in, partnerID); err != nil {
			return err
		} else if id != 0 {
			return fmt.Errorf("%w: %s %q already exists with id=%d", contractx.ErrConflict, in.Type, in.Name, id)
		}
		stageID, err := s.resolveStage(ctx, tx, in.StageName)
		if err != nil {
			return err
		}

		row := &opportunityRow{
			Name:            in.Name,
			Type:            in.Type,
			Active:          true,
			Probability:     in.Probability,
			ExpectedRevenue: in.ExpectedRevenue,
			StageID:         stageID,
			PartnerID:       partnerID,
			Salesperson:     in.Salesperson,
			Email:           in.Email,
			Phone:           in.Phone,
			DedupeKey:       in.DedupeKey(),
		}
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s %q already exists", contractx.ErrConflict, in.Type, in.Name)
			}
			return fmt.Errorf("%w: insert opportunity: %v", contractx.ErrDataAccess, err)
		}

		found, err := s.searchOpportunities(ctx, tx, Where(FieldID, OpEq, row.ID), Page{Limit: 1})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: opportunity id=%d vanished after insert", contractx.ErrDataAccess, row.ID)
		}
		created = found[0]
		return nil
	})
	if err != nil {
		return Opportunity{}, err
	}
	return created, nil
}

// findDuplicate returns the id of an active row matching in, or zero.
// Names are compared after case and whitespace folding.
func (s *BunStore) findDuplicate(ctx context.Context, tx bun.IDB, in NewOpportunity, partnerID int64) (int64, error) {
	var rows []opportunityRow
	q := tx.NewSelect().Model(&rows).
		Column("id", "name").
		Where("o.active = ?", true).
		Where("LOWER(o.type) = LOWER(?)", in.Type)
	if partnerID == 0 {
		q = q.Where("o.partner_id IS NULL")
	} else {
		q = q.Where("o.partner_id = ?", partnerID)
	}
	if err := q.OrderExpr("o.id").Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: lookup duplicate opportunity: %v", contractx.ErrDataAccess, err)
	}
	for _, row := range rows {
		if keyPart(row.Name) == keyPart(in.Name) {
			return row.ID, nil
		}
	}
	return 0, nil
}

func (s *BunStore) resolvePartner(ctx context.Context, tx bun.IDB, in NewOpportunity) (int64, error) {
	lookups := []struct {
		expr  string
		value string
	}{
		{"LOWER(rp.email) = LOWER(?)", in.Email},
		{"rp.phone = ?", in.Phone},
		{"LOWER(rp.name) = LOWER(?)", in.CustomerName},
	}
	for _, l := range lookups {
		if strings.TrimSpace(l.value) == "" {
			continue
		}
		var row partnerRow
		err := tx.NewSelect().Model(&row).Where(l.expr, l.value).OrderExpr("rp.id").Limit(1).Scan(ctx)
		if err == nil {
			return row.ID, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: lookup partner: %v", contractx.ErrDataAccess, err)
		}
	}

	if strings.TrimSpace(in.CustomerName) == "" {
		return 0, nil
	}
	row := &partnerRow{Name: in.CustomerName, Email: in.Email, Phone: in.Phone}
	if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: insert partner: %v", contractx.ErrDataAccess, err)
	}
	return row.ID, nil
}

func (s *BunStore) resolveStage(ctx context.Context, tx bun.IDB, name string) (int64, error) {
	byOrder := Page{Limit: 1, Order: []Order{OrderBy(FieldSequence, false), OrderBy(FieldID, false)}}
	if strings.TrimSpace(name) != "" {
		stages, err := s.searchStages(ctx, tx, Where(FieldName, OpILike, name), byOrder)
		if err != nil {
			return 0, err
		}
		if len(stages) > 0 {
			return stages[0].ID, nil
		}
	}
	stages, err := s.searchStages(ctx, tx, nil, byOrder)
	if err != nil {
		return 0, err
	}
	if len(stages) == 0 {
		return 0, nil
	}
	return stages[0].ID, nil
}

func (s *BunStore) runInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error {
	db, ok := s.db.(*bun.DB)
	if !ok {
		return fn(ctx, s.db)
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func applyQuery(q *bun.SelectQuery, cols map[string]column, where Term, page Page) (*bun.SelectQuery, error) {
	q, err := applyWhere(q, cols, where)
	if err != nil {
		return nil, err
	}

	order := page.Order
	if len(order) == 0 {
		order = []Order{OrderBy(FieldID, false)}
	}
	for _, o := range order {
		col, ok := cols[o.Field]
		if !ok || col.viaLines {
			return nil, fmt.Errorf("%w: %w: order by %q", contractx.ErrDataAccess, ErrUnknownField, o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		q = q.OrderExpr(col.expr + " " + dir)
	}
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	return q, nil
}

func applyWhere(q *bun.SelectQuery, cols map[string]column, where Term) (*bun.SelectQuery, error) {
	if where == nil {
		return q, nil
	}
	expr, args, err := compileTerm(where, cols)
	if err != nil {
		return nil, err
	}
	return q.Where(expr, args...), nil
}

// compileTerm renders a filter domain into a SQL boolean expression with
// bun placeholders. Column names come only from the adapter's field maps.
func compileTerm(term Term, cols map[string]column) (string, []any, error) {
	switch t := term.(type) {
	case nil:
		return "1 = 1", nil, nil
	case Condition:
		return compileCondition(t, cols)
	case Group:
		if len(t.Terms) == 0 {
			return "1 = 1", nil, nil
		}
		sep := " AND "
		if t.Or {
			sep = " OR "
		}
		parts := make([]string, 0, len(t.Terms))
		var args []any
		for _, sub := range t.Terms {
			expr, subArgs, err := compileTerm(sub, cols)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "("+expr+")")
			args = append(args, subArgs...)
		}
		return strings.Join(parts, sep), args, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported term %T", contractx.ErrDataAccess, term)
	}
}

func compileCondition(c Condition, cols map[string]column) (string, []any, error) {
	col, ok := cols[c.Field]
	if !ok {
		return "", nil, fmt.Errorf("%w: %w: %q", contractx.ErrDataAccess, ErrUnknownField, c.Field)
	}

	var (
		expr string
		args []any
	)
	switch c.Op {
	case OpEq, OpNe:
		switch {
		case c.Value == nil && c.Op == OpEq:
			expr = col.expr + " IS NULL"
		case c.Value == nil:
			expr = col.expr + " IS NOT NULL"
		case c.Op == OpEq:
			expr, args = col.expr+" = ?", []any{c.Value}
		default:
			expr, args = col.expr+" <> ?", []any{c.Value}
		}
	case OpLt, OpLe, OpGt, OpGe:
		expr, args = col.expr+" "+string(c.Op)+" ?", []any{c.Value}
	case OpILike:
		pattern := "%" + escapeLike(FoldText(fmt.Sprint(c.Value))) + "%"
		expr, args = foldSQL(col.expr)+" LIKE ? ESCAPE '\\'", []any{pattern}
	case OpIn:
		if isEmptySlice(c.Value) {
			expr = "1 = 0"
		} else {
			expr, args = col.expr+" IN (?)", []any{bun.In(c.Value)}
		}
	default:
		return "", nil, fmt.Errorf("%w: unsupported operator %q", contractx.ErrDataAccess, c.Op)
	}

	if col.viaLines {
		expr = "so.id IN (SELECT sol.order_id FROM sale_order_lines AS sol WHERE " + expr + ")"
	}
	return expr, args, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isEmptySlice(v any) bool {
	switch s := v.(type) {
	case []int64:
		return len(s) == 0
	case []string:
		return len(s) == 0
	case []any:
		return len(s) == 0
	default:
		return false
	}
}
