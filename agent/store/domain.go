package store

// Operator is a comparison usable in a filter condition.
type Operator string

const (
	OpEq    Operator = "="
	OpNe    Operator = "!="
	OpLt    Operator = "<"
	OpLe    Operator = "<="
	OpGt    Operator = ">"
	OpGe    Operator = ">="
	OpILike Operator = "ilike" // case-insensitive substring
	OpIn    Operator = "in"
)

// Term is a node of a filter domain. A nil Term matches every record.
type Term interface {
	isTerm()
}

// Condition is a (field, operator, value) triple. A nil value with OpEq or
// OpNe tests for absence.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Group combines terms with AND, or with OR when Or is set. An empty group
// matches every record.
type Group struct {
	Or    bool
	Terms []Term
}

func (Condition) isTerm() {}
func (Group) isTerm()     {}

func Where(field string, op Operator, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

func And(terms ...Term) Group {
	return Group{Terms: compact(terms)}
}

func Or(terms ...Term) Group {
	return Group{Or: true, Terms: compact(terms)}
}

func compact(terms []Term) []Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

type Order struct {
	Field string
	Desc  bool
}

// Page bounds a search. Zero Limit means unbounded; records are ordered by
// id when Order is empty.
type Page struct {
	Limit int
	Order []Order
}

func OrderBy(field string, desc bool) Order {
	return Order{Field: field, Desc: desc}
}
