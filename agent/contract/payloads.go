package contract

type StockStatus string

const (
	StockIn  StockStatus = "in_stock"
	StockLow StockStatus = "low_stock"
	StockOut StockStatus = "out_of_stock"
)

type LineStockStatus string

const (
	LineStockSufficient  LineStockStatus = "sufficient"
	LineStockPartial     LineStockStatus = "partial"
	LineStockUnavailable LineStockStatus = "unavailable"
)

type ProductCount struct {
	TotalProducts int `json:"total_products"`
}

type LowStockItem struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	QtyAvailable float64 `json:"qty_available"`
}

type InventorySummary struct {
	TotalProducts      int            `json:"total_products"`
	TotalStockQuantity float64        `json:"total_stock_quantity"`
	LowStockThreshold  float64        `json:"low_stock_threshold"`
	LowStockProducts   []LowStockItem `json:"low_stock_products"`
}

type CRMSummary struct {
	TotalOpportunities   int     `json:"total_opportunities"`
	OpenOpportunities    int     `json:"open_opportunities"`
	WonOpportunities     int     `json:"won_opportunities"`
	LostOpportunities    int     `json:"lost_opportunities"`
	TotalExpectedRevenue float64 `json:"total_expected_revenue"`
	Currency             string  `json:"currency"`
}

type OpenOpportunityCount struct {
	OpenOpportunities int `json:"open_opportunities"`
}

type StageBucket struct {
	StageID         int64   `json:"stage_id"`
	StageName       string  `json:"stage_name"`
	Sequence        int     `json:"sequence"`
	Count           int     `json:"count"`
	ExpectedRevenue float64 `json:"expected_revenue"`
}

type OpportunitiesByStage struct {
	Stages      []StageBucket `json:"stages"`
	TotalStages int           `json:"total_stages"`
	Currency    string        `json:"currency"`
}

type ProductHit struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	QtyAvailable float64     `json:"qty_available"`
	ListPrice    float64     `json:"list_price"`
	StockValue   float64     `json:"stock_value"`
	StockStatus  StockStatus `json:"stock_status"`
}

type ProductSearch struct {
	Term     string       `json:"term,omitempty"`
	Category string       `json:"category,omitempty"`
	Count    int          `json:"count"`
	Products []ProductHit `json:"products"`
	Currency string       `json:"currency"`
}

type RestockItem struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	QtyAvailable     float64 `json:"qty_available"`
	ListPrice        float64 `json:"list_price"`
	SuggestedRestock float64 `json:"suggested_restock"`
	RestockValue     float64 `json:"restock_value"`
}

type LowStock struct {
	Threshold         float64       `json:"threshold"`
	Count             int           `json:"count"`
	Products          []RestockItem `json:"products"`
	TotalRestockValue float64       `json:"total_restock_value"`
	Currency          string        `json:"currency"`
}

type PipelineStage struct {
	Stage       string  `json:"stage"`
	Sequence    int     `json:"sequence"`
	Count       int     `json:"count"`
	Revenue     float64 `json:"revenue"`
	AverageDeal float64 `json:"average_deal"`
}

type PipelineSummary struct {
	Stages             []PipelineStage `json:"stages"`
	TotalStages        int             `json:"total_stages"`
	TotalOpportunities int             `json:"total_opportunities"`
	TotalRevenue       float64         `json:"total_revenue"`
	AverageDeal        float64         `json:"average_deal"`
	Currency           string          `json:"currency"`
}

type OpportunityRow struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Customer        string  `json:"customer"`
	Stage           string  `json:"stage"`
	Probability     float64 `json:"probability"`
	ExpectedRevenue float64 `json:"expected_revenue"`
	WeightedRevenue float64 `json:"weighted_revenue"`
}

type OpenOpportunities struct {
	Count         int              `json:"count"`
	TotalRevenue  float64          `json:"total_revenue"`
	Currency      string           `json:"currency"`
	Opportunities []OpportunityRow `json:"opportunities"`
}

type CRMRecordRow struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Stage string `json:"stage"`
}

type StageSearch struct {
	Stage         string         `json:"stage"`
	MatchedStages []string       `json:"matched_stages"`
	Count         int            `json:"count"`
	Records       []CRMRecordRow `json:"records"`
}

type LeadDetail struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Stage           string  `json:"stage"`
	Customer        string  `json:"customer"`
	Salesperson     string  `json:"salesperson"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Probability     float64 `json:"probability"`
	ExpectedRevenue float64 `json:"expected_revenue"`
}

type LeadInfo struct {
	Term     string       `json:"term"`
	Count    int          `json:"count"`
	Records  []LeadDetail `json:"records"`
	Currency string       `json:"currency"`
}

type QuotationLine struct {
	Product      string          `json:"product"`
	Quantity     float64         `json:"quantity"`
	PriceUnit    float64         `json:"price_unit"`
	Subtotal     float64         `json:"subtotal"`
	QtyAvailable float64         `json:"qty_available"`
	StockStatus  LineStockStatus `json:"stock_status"`
}

type QuotationRow struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Customer    string          `json:"customer"`
	State       string          `json:"state"`
	DateOrder   string          `json:"date_order"`
	AmountTotal float64         `json:"amount_total"`
	Lines       []QuotationLine `json:"lines"`
}

type QuotationSearch struct {
	Term            string         `json:"term"`
	MatchedProducts []string       `json:"matched_products"`
	Count           int            `json:"count"`
	Quotations      []QuotationRow `json:"quotations"`
	Currency        string         `json:"currency"`
}

type OpportunityCreated struct {
	Created     bool       `json:"created"`
	Opportunity LeadDetail `json:"opportunity"`
	Currency    string     `json:"currency"`
}

type HelpCategory struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Examples []string `json:"examples"`
	Tools    []ToolID `json:"tools"`
}

type Help struct {
	Message    string         `json:"message"`
	Categories []HelpCategory `json:"categories"`
}

type ToolSummary struct {
	ID          ToolID   `json:"id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Mutating    bool     `json:"mutating"`
}

type ToolList struct {
	Count int           `json:"count"`
	Tools []ToolSummary `json:"tools"`
}
