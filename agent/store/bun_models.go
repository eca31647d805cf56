package store

import (
	"time"

	"github.com/uptrace/bun"
)

type categoryRow struct {
	bun.BaseModel `bun:"table:product_categories,alias:pc"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type productRow struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID           int64        `bun:"id,pk,autoincrement"`
	Name         string       `bun:"name,notnull"`
	Description  string       `bun:"description,nullzero"`
	Type         string       `bun:"type,notnull"`
	CategoryID   int64        `bun:"category_id,nullzero"`
	Category     *categoryRow `bun:"rel:belongs-to,join:category_id=id"`
	UoM          string       `bun:"uom,nullzero"`
	QtyAvailable float64      `bun:"qty_available,notnull"`
	ListPrice    float64      `bun:"list_price,notnull"`
	Active       bool         `bun:"active,notnull"`
}

func (r *productRow) toProduct() Product {
	p := Product{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Type:         r.Type,
		UoM:          r.UoM,
		QtyAvailable: r.QtyAvailable,
		ListPrice:    r.ListPrice,
		Active:       r.Active,
	}
	if r.Category != nil {
		p.Category = r.Category.Name
	}
	return p
}

type stageRow struct {
	bun.BaseModel `bun:"table:crm_stages,alias:s"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Name     string `bun:"name,notnull"`
	Sequence int    `bun:"sequence,notnull"`
	IsWon    bool   `bun:"is_won,notnull"`
	IsLost   bool   `bun:"is_lost,notnull"`
}

func (r *stageRow) toStage() *Stage {
	if r == nil {
		return nil
	}
	return &Stage{ID: r.ID, Name: r.Name, Sequence: r.Sequence, IsWon: r.IsWon, IsLost: r.IsLost}
}

type partnerRow struct {
	bun.BaseModel `bun:"table:partners,alias:rp"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name,notnull"`
	Email string `bun:"email,nullzero"`
	Phone string `bun:"phone,nullzero"`
}

func (r *partnerRow) toPartner() *Partner {
	if r == nil {
		return nil
	}
	return &Partner{ID: r.ID, Name: r.Name, Email: r.Email, Phone: r.Phone}
}

type opportunityRow struct {
	bun.BaseModel `bun:"table:crm_leads,alias:o"`

	ID              int64       `bun:"id,pk,autoincrement"`
	Name            string      `bun:"name,notnull"`
	Type            string      `bun:"type,notnull"`
	Active          bool        `bun:"active,notnull"`
	Probability     float64     `bun:"probability,notnull"`
	ExpectedRevenue float64     `bun:"expected_revenue,notnull"`
	StageID         int64       `bun:"stage_id,nullzero"`
	Stage           *stageRow   `bun:"rel:belongs-to,join:stage_id=id"`
	PartnerID       int64       `bun:"partner_id,nullzero"`
	Partner         *partnerRow `bun:"rel:belongs-to,join:partner_id=id"`
	Salesperson     string      `bun:"salesperson,nullzero"`
	Email           string      `bun:"email,nullzero"`
	Phone           string      `bun:"phone,nullzero"`
	DedupeKey       string      `bun:"dedupe_key,nullzero"`
	CreatedAt       time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *opportunityRow) toOpportunity() Opportunity {
	return Opportunity{
		ID:              r.ID,
		Name:            r.Name,
		Type:            r.Type,
		Active:          r.Active,
		Probability:     r.Probability,
		ExpectedRevenue: r.ExpectedRevenue,
		Stage:           r.Stage.toStage(),
		Partner:         r.Partner.toPartner(),
		Salesperson:     r.Salesperson,
		Email:           r.Email,
		Phone:           r.Phone,
		CreatedAt:       r.CreatedAt,
	}
}

type quotationRow struct {
	bun.BaseModel `bun:"table:sale_orders,alias:so"`

	ID          int64               `bun:"id,pk,autoincrement"`
	Name        string              `bun:"name,notnull"`
	State       string              `bun:"state,notnull"`
	PartnerID   int64               `bun:"partner_id,nullzero"`
	Partner     *partnerRow         `bun:"rel:belongs-to,join:partner_id=id"`
	DateOrder   time.Time           `bun:"date_order,notnull"`
	AmountTotal float64             `bun:"amount_total,notnull"`
	Lines       []*quotationLineRow `bun:"rel:has-many,join:id=order_id"`
}

type quotationLineRow struct {
	bun.BaseModel `bun:"table:sale_order_lines,alias:sol"`

	ID            int64   `bun:"id,pk,autoincrement"`
	OrderID       int64   `bun:"order_id,notnull"`
	ProductID     int64   `bun:"product_id,notnull"`
	ProductUomQty float64 `bun:"product_uom_qty,notnull"`
	PriceUnit     float64 `bun:"price_unit,notnull"`
	PriceSubtotal float64 `bun:"price_subtotal,notnull"`
}

type stageGroupRow struct {
	StageID *int64  `bun:"stage_id"`
	Count   int     `bun:"count"`
	Revenue float64 `bun:"revenue"`
}
