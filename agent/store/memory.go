package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

type accessor[T any] map[string]func(T) any

var productFields = accessor[Product]{
	FieldID:           func(p Product) any { return p.ID },
	FieldName:         func(p Product) any { return p.Name },
	FieldDescription:  func(p Product) any { return p.Description },
	FieldType:         func(p Product) any { return p.Type },
	FieldCategory:     func(p Product) any { return p.Category },
	FieldQtyAvailable: func(p Product) any { return p.QtyAvailable },
	FieldListPrice:    func(p Product) any { return p.ListPrice },
	FieldActive:       func(p Product) any { return p.Active },
}

var opportunityFields = accessor[Opportunity]{
	FieldID:              func(o Opportunity) any { return o.ID },
	FieldName:            func(o Opportunity) any { return o.Name },
	FieldType:            func(o Opportunity) any { return o.Type },
	FieldActive:          func(o Opportunity) any { return o.Active },
	FieldProbability:     func(o Opportunity) any { return o.Probability },
	FieldExpectedRevenue: func(o Opportunity) any { return o.ExpectedRevenue },
	FieldStageID: func(o Opportunity) any {
		if o.Stage == nil {
			return nil
		}
		return o.Stage.ID
	},
	FieldStage:       func(o Opportunity) any { return o.StageName() },
	FieldPartner:     func(o Opportunity) any { return o.CustomerName() },
	FieldSalesperson: func(o Opportunity) any { return o.Salesperson },
	FieldEmail:       func(o Opportunity) any { return o.Email },
	FieldPhone:       func(o Opportunity) any { return o.Phone },
}

var stageFields = accessor[Stage]{
	FieldID:       func(s Stage) any { return s.ID },
	FieldName:     func(s Stage) any { return s.Name },
	FieldSequence: func(s Stage) any { return s.Sequence },
	FieldIsWon:    func(s Stage) any { return s.IsWon },
	FieldIsLost:   func(s Stage) any { return s.IsLost },
}

var quotationFields = accessor[Quotation]{
	FieldID:        func(q Quotation) any { return q.ID },
	FieldName:      func(q Quotation) any { return q.Name },
	FieldState:     func(q Quotation) any { return q.State },
	FieldDateOrder: func(q Quotation) any { return q.DateOrder },
	FieldPartner: func(q Quotation) any {
		if q.Partner == nil {
			return ""
		}
		return q.Partner.Name
	},
	FieldProductID: func(q Quotation) any {
		ids := make([]int64, 0, len(q.Lines))
		for _, l := range q.Lines {
			ids = append(ids, l.ProductID)
		}
		return ids
	},
}

// MemoryStore keeps every record in process. It backs the CLI demo mode and
// the engine tests.
type MemoryStore struct {
	mu            sync.RWMutex
	products      []Product
	stages        []Stage
	partners      []Partner
	opportunities []Opportunity
	quotations    []Quotation
	now           func() time.Time
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Seeder = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// NewMemoryStoreWith builds a store from already materialised records.
func NewMemoryStoreWith(products []Product, stages []Stage, opportunities []Opportunity) *MemoryStore {
	s := NewMemoryStore()
	s.products = append(s.products, products...)
	s.stages = append(s.stages, stages...)
	s.opportunities = append(s.opportunities, opportunities...)
	return s
}

// AddQuotations appends quotations as given; line product data is not
// re-derived.
func (s *MemoryStore) AddQuotations(qs ...Quotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotations = append(s.quotations, qs...)
}

func (s *MemoryStore) Seed(ctx context.Context, fx *Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range fx.Products {
		s.products = append(s.products, Product{
			ID:           int64(len(s.products) + 1),
			Name:         p.Name,
			Description:  p.Description,
			Type:         p.Type,
			Category:     p.Category,
			UoM:          p.UoM,
			QtyAvailable: p.Qty,
			ListPrice:    p.Price,
			Active:       isActive(p.Active),
		})
	}
	for _, st := range fx.Stages {
		s.stages = append(s.stages, Stage{
			ID:       int64(len(s.stages) + 1),
			Name:     st.Name,
			Sequence: st.Sequence,
			IsWon:    st.IsWon,
			IsLost:   st.IsLost,
		})
	}
	for _, p := range fx.Partners {
		s.partners = append(s.partners, Partner{
			ID:    int64(len(s.partners) + 1),
			Name:  p.Name,
			Email: p.Email,
			Phone: p.Phone,
		})
	}
	for _, o := range fx.Opportunities {
		s.opportunities = append(s.opportunities, Opportunity{
			ID:              int64(len(s.opportunities) + 1),
			Name:            o.Name,
			Type:            o.Type,
			Active:          isActive(o.Active),
			Probability:     o.Probability,
			ExpectedRevenue: o.ExpectedRevenue,
			Stage:           s.stageByName(o.Stage),
			Partner:         s.partnerByName(o.Customer),
			Salesperson:     o.Salesperson,
			Email:           o.Email,
			Phone:           o.Phone,
			CreatedAt:       s.now(),
		})
	}
	for _, q := range fx.Quotations {
		date, err := q.orderDate()
		if err != nil {
			return fmt.Errorf("%w: quotation %s: %v", contractx.ErrDataAccess, q.Name, err)
		}
		quote := Quotation{
			ID:          int64(len(s.quotations) + 1),
			Name:        q.Name,
			State:       q.State,
			Partner:     s.partnerByName(q.Customer),
			DateOrder:   date,
			AmountTotal: q.total(),
		}
		for _, l := range q.Lines {
			p, ok := s.productByName(l.Product)
			if !ok {
				return fmt.Errorf("%w: quotation %s references unknown product %q", contractx.ErrDataAccess, q.Name, l.Product)
			}
			quote.Lines = append(quote.Lines, QuotationLine{
				ID:          int64(len(quote.Lines) + 1),
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				PriceUnit:   l.Price,
				Subtotal:    l.Quantity * l.Price,
			})
		}
		s.quotations = append(s.quotations, quote)
	}
	return nil
}

func (s *MemoryStore) SearchProducts(ctx context.Context, where Term, page Page) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return search(s.products, productFields, where, page)
}

func (s *MemoryStore) CountProducts(ctx context.Context, where Term) (int, error) {
	rows, err := s.SearchProducts(ctx, where, Page{})
	return len(rows), err
}

func (s *MemoryStore) SearchOpportunities(ctx context.Context, where Term, page Page) ([]Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return search(s.opportunities, opportunityFields, where, page)
}

func (s *MemoryStore) CountOpportunities(ctx context.Context, where Term) (int, error) {
	rows, err := s.SearchOpportunities(ctx, where, Page{})
	return len(rows), err
}

func (s *MemoryStore) GroupOpportunitiesByStage(ctx context.Context, where Term) ([]StageGroup, error) {
	rows, err := s.SearchOpportunities(ctx, where, Page{})
	if err != nil {
		return nil, err
	}

	index := map[int64]int{}
	groups := []StageGroup{}
	for _, o := range rows {
		var id int64
		if o.Stage != nil {
			id = o.Stage.ID
		}
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, StageGroup{StageID: id})
		}
		groups[i].Count++
		groups[i].Revenue += o.ExpectedRevenue
	}
	return groups, nil
}

func (s *MemoryStore) SearchStages(ctx context.Context, where Term, page Page) ([]Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return search(s.stages, stageFields, where, page)
}

func (s *MemoryStore) SearchQuotations(ctx context.Context, where Term, page Page) ([]Quotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := search(s.quotations, quotationFields, where, page)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		lines := make([]QuotationLine, len(rows[i].Lines))
		copy(lines, rows[i].Lines)
		for j := range lines {
			if p, ok := s.productByID(lines[j].ProductID); ok {
				lines[j].QtyAvailable = p.QtyAvailable
			}
		}
		rows[i].Lines = lines
	}
	return rows, nil
}

func (s *MemoryStore) CreateOpportunity(ctx context.Context, in NewOpportunity) (Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer := in.CustomerName
	if p, ok := s.findPartner(in); ok {
		customer = p.Name
	}
	for _, existing := range s.opportunities {
		if in.Duplicates(existing, customer) {
			return Opportunity{}, fmt.Errorf("%w: %s %q already exists with id=%d", contractx.ErrConflict, in.Type, in.Name, existing.ID)
		}
	}

	partner := s.resolvePartner(in)
	opp := Opportunity{
		ID:              int64(len(s.opportunities) + 1),
		Name:            in.Name,
		Type:            in.Type,
		Active:          true,
		Probability:     in.Probability,
		ExpectedRevenue: in.ExpectedRevenue,
		Stage:           s.resolveStage(in.StageName),
		Partner:         partner,
		Salesperson:     in.Salesperson,
		Email:           in.Email,
		Phone:           in.Phone,
		CreatedAt:       s.now(),
	}
	s.opportunities = append(s.opportunities, opp)
	return opp, nil
}

// findPartner matches by email, then phone, then name, like the SQL store.
func (s *MemoryStore) findPartner(in NewOpportunity) (Partner, bool) {
	matchers := []func(Partner) bool{
		func(p Partner) bool { return in.Email != "" && strings.EqualFold(p.Email, in.Email) },
		func(p Partner) bool { return in.Phone != "" && p.Phone == in.Phone },
		func(p Partner) bool { return in.CustomerName != "" && strings.EqualFold(p.Name, in.CustomerName) },
	}
	for _, match := range matchers {
		for _, p := range s.partners {
			if match(p) {
				return p, true
			}
		}
	}
	return Partner{}, false
}

func (s *MemoryStore) resolvePartner(in NewOpportunity) *Partner {
	if p, ok := s.findPartner(in); ok {
		return &p
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil
	}
	p := Partner{
		ID:    int64(len(s.partners) + 1),
		Name:  in.CustomerName,
		Email: in.Email,
		Phone: in.Phone,
	}
	s.partners = append(s.partners, p)
	return &p
}

func (s *MemoryStore) resolveStage(name string) *Stage {
	stages, _ := search(s.stages, stageFields, nil, Page{Order: []Order{OrderBy(FieldSequence, false), OrderBy(FieldID, false)}})
	if len(stages) == 0 {
		return nil
	}
	if name != "" {
		for _, st := range stages {
			if strings.Contains(FoldText(st.Name), FoldText(name)) {
				cp := st
				return &cp
			}
		}
	}
	first := stages[0]
	return &first
}

func (s *MemoryStore) stageByName(name string) *Stage {
	for _, st := range s.stages {
		if name != "" && st.Name == name {
			cp := st
			return &cp
		}
	}
	return nil
}

func (s *MemoryStore) partnerByName(name string) *Partner {
	for _, p := range s.partners {
		if name != "" && p.Name == name {
			cp := p
			return &cp
		}
	}
	return nil
}

func (s *MemoryStore) productByName(name string) (Product, bool) {
	for _, p := range s.products {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

func (s *MemoryStore) productByID(id int64) (Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func search[T any](rows []T, fields accessor[T], where Term, page Page) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		ok, err := match(row, fields, where)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}

	order := page.Order
	if len(order) == 0 {
		order = []Order{OrderBy(FieldID, false)}
	}
	for _, o := range order {
		if _, ok := fields[o.Field]; !ok {
			return nil, fmt.Errorf("%w: %w: order by %q", contractx.ErrDataAccess, ErrUnknownField, o.Field)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range order {
			get := fields[o.Field]
			c := compareValues(get(out[i]), get(out[j]))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if page.Limit > 0 && len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

func match[T any](row T, fields accessor[T], term Term) (bool, error) {
	switch t := term.(type) {
	case nil:
		return true, nil
	case Condition:
		get, ok := fields[t.Field]
		if !ok {
			return false, fmt.Errorf("%w: %w: %q", contractx.ErrDataAccess, ErrUnknownField, t.Field)
		}
		return evaluate(get(row), t.Op, t.Value)
	case Group:
		if len(t.Terms) == 0 {
			return true, nil
		}
		for _, sub := range t.Terms {
			ok, err := match(row, fields, sub)
			if err != nil {
				return false, err
			}
			if t.Or && ok {
				return true, nil
			}
			if !t.Or && !ok {
				return false, nil
			}
		}
		return !t.Or, nil
	default:
		return false, fmt.Errorf("%w: unsupported term %T", contractx.ErrDataAccess, term)
	}
}

func evaluate(got any, op Operator, want any) (bool, error) {
	if ids, ok := got.([]int64); ok {
		for _, id := range ids {
			hit, err := evaluate(id, op, want)
			if err != nil || hit {
				return hit, err
			}
		}
		return false, nil
	}

	switch op {
	case OpEq:
		return compareValues(got, want) == 0 && (got == nil) == (want == nil), nil
	case OpNe:
		return compareValues(got, want) != 0 || (got == nil) != (want == nil), nil
	case OpLt:
		return got != nil && compareValues(got, want) < 0, nil
	case OpLe:
		return got != nil && compareValues(got, want) <= 0, nil
	case OpGt:
		return got != nil && compareValues(got, want) > 0, nil
	case OpGe:
		return got != nil && compareValues(got, want) >= 0, nil
	case OpILike:
		return strings.Contains(FoldText(fmt.Sprint(got)), FoldText(fmt.Sprint(want))), nil
	case OpIn:
		v := reflect.ValueOf(want)
		if v.Kind() != reflect.Slice {
			return false, fmt.Errorf("%w: operator in expects a slice, got %T", contractx.ErrDataAccess, want)
		}
		for i := 0; i < v.Len(); i++ {
			if compareValues(got, v.Index(i).Interface()) == 0 {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: unsupported operator %q", contractx.ErrDataAccess, op)
	}
}

// compareValues orders numbers numerically and everything else by its
// string form. nil sorts first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
