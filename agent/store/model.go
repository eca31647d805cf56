package store

import (
	"strings"
	"time"
)

const (
	ProductTypeStorable   = "product"
	ProductTypeConsumable = "consu"
	ProductTypeService    = "service"

	RecordTypeLead        = "lead"
	RecordTypeOpportunity = "opportunity"

	QuotationDraft  = "draft"
	QuotationSent   = "sent"
	QuotationSale   = "sale"
	QuotationCancel = "cancel"
)

// Field names understood by the adapters.
const (
	FieldID              = "id"
	FieldName            = "name"
	FieldDescription     = "description"
	FieldType            = "type"
	FieldCategory        = "category"
	FieldQtyAvailable    = "qty_available"
	FieldListPrice       = "list_price"
	FieldActive          = "active"
	FieldProbability     = "probability"
	FieldExpectedRevenue = "expected_revenue"
	FieldStageID         = "stage_id"
	FieldStage           = "stage"
	FieldPartner         = "partner"
	FieldSalesperson     = "salesperson"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldSequence        = "sequence"
	FieldIsWon           = "is_won"
	FieldIsLost          = "is_lost"
	FieldState           = "state"
	FieldDateOrder       = "date_order"
	FieldProductID       = "product_id"
)

type Product struct {
	ID           int64
	Name         string
	Description  string
	Type         string
	Category     string
	UoM          string
	QtyAvailable float64
	ListPrice    float64
	Active       bool
}

func (p Product) Stockable() bool {
	return p.Type == ProductTypeStorable
}

type Stage struct {
	ID       int64
	Name     string
	Sequence int
	IsWon    bool
	IsLost   bool
}

type Partner struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// Opportunity is a CRM record, either a lead or an opportunity.
type Opportunity struct {
	ID              int64
	Name            string
	Type            string
	Active          bool
	Probability     float64
	ExpectedRevenue float64
	Stage           *Stage
	Partner         *Partner
	Salesperson     string
	Email           string
	Phone           string
	CreatedAt       time.Time
}

func (o Opportunity) StageName() string {
	if o.Stage == nil {
		return ""
	}
	return o.Stage.Name
}

func (o Opportunity) CustomerName() string {
	if o.Partner == nil {
		return ""
	}
	return o.Partner.Name
}

type QuotationLine struct {
	ID           int64
	ProductID    int64
	ProductName  string
	QtyAvailable float64
	Quantity     float64
	PriceUnit    float64
	Subtotal     float64
}

type Quotation struct {
	ID          int64
	Name        string
	State       string
	Partner     *Partner
	DateOrder   time.Time
	AmountTotal float64
	Lines       []QuotationLine
}

// StageGroup is one bucket of a grouped opportunity aggregation. StageID is
// zero for records without a stage.
type StageGroup struct {
	StageID int64
	Count   int
	Revenue float64
}

// NewOpportunity is the input of the only write path.
type NewOpportunity struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Type            string  `json:"type" validate:"oneof=lead opportunity"`
	CustomerName    string  `json:"customer" validate:"max=255"`
	Email           string  `json:"email" validate:"omitempty,email"`
	Phone           string  `json:"phone" validate:"max=64"`
	StageName       string  `json:"stage" validate:"max=255"`
	Salesperson     string  `json:"salesperson" validate:"max=255"`
	ExpectedRevenue float64 `json:"expected_revenue" validate:"gte=0"`
	Probability     float64 `json:"probability" validate:"gte=0,lte=100"`
}

// DedupeKey identifies an active record for first-writer-wins creation.
func (n NewOpportunity) DedupeKey() string {
	return dedupeKey(n.Type, n.Name, n.CustomerName)
}

// Duplicates reports whether o is an active record with the same type,
// name and customer. customer is the partner name n resolves to.
func (n NewOpportunity) Duplicates(o Opportunity, customer string) bool {
	if !o.Active {
		return false
	}
	existing := ""
	if o.Partner != nil {
		existing = o.Partner.Name
	}
	return dedupeKey(o.Type, o.Name, existing) == dedupeKey(n.Type, n.Name, customer)
}

func dedupeKey(typ, name, customer string) string {
	return keyPart(typ) + "|" + keyPart(name) + "|" + keyPart(customer)
}

func keyPart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
