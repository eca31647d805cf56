package format

import (
	"strings"
	"testing"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

func lowStockResult() contractx.QueryResult {
	return contractx.Success(contractx.ToolLowStock, contractx.LowStock{
		Threshold: 10,
		Count:     1,
		Products: []contractx.RestockItem{
			{ID: 1, Name: "Chair", QtyAvailable: 3, ListPrice: 50, SuggestedRestock: 7, RestockValue: 350},
		},
		TotalRestockValue: 350,
		Currency:          "USD",
	})
}

func TestMoney(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v        float64
		currency string
		want     string
	}{
		{350, "USD", "$350.00"},
		{1234.5, "USD", "$1,234.50"},
		{18300, "", "$18,300.00"},
		{75.5, "EUR", "75.50 €"},
		{10, "MXN", "10.00 MXN"},
	}
	for _, tc := range cases {
		if got := Money(tc.v, tc.currency); got != tc.want {
			t.Fatalf("Money(%v, %q) = %q, want %q", tc.v, tc.currency, got, tc.want)
		}
	}
}

func TestNarrativeLowStockMatchesPayload(t *testing.T) {
	t.Parallel()

	f := New(Config{Style: "markdown"})
	out := f.Narrative(lowStockResult())
	for _, want := range []string{"Chair", "$350.00", "| Producto |", "por debajo de 10 unidades", "Costo total de reposición: $350.00."} {
		if !strings.Contains(out, want) {
			t.Fatalf("narrative missing %q:\n%s", want, out)
		}
	}
}

func TestNarrativeIsDeterministic(t *testing.T) {
	t.Parallel()

	f := New(Config{Style: "text"})
	first := f.Narrative(lowStockResult())
	second := f.Narrative(lowStockResult())
	if first != second {
		t.Fatalf("narrative differs between runs:\n%s\n---\n%s", first, second)
	}
}

func TestNarrativeStyles(t *testing.T) {
	t.Parallel()

	if out := New(Config{Style: "html"}).Narrative(lowStockResult()); !strings.Contains(out, "<table") || !strings.Contains(out, "<p>") {
		t.Fatalf("html narrative missing markup:\n%s", out)
	}
	if out := New(Config{Style: "text"}).Narrative(lowStockResult()); strings.Contains(out, "<table") || strings.Contains(out, "| Producto |") {
		t.Fatalf("text narrative has markup:\n%s", out)
	}
	if got := New(Config{Style: "bogus"}).Style(); got != StyleMarkdown {
		t.Fatalf("unexpected fallback style: %s", got)
	}
}

func TestNarrativeErrorHidesMessage(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	r := contractx.Failure(contractx.ToolCRMSummary, contractx.KindDataAccess, "pq: relation crm_leads does not exist")
	out := f.Narrative(r)
	if strings.Contains(out, "crm_leads") {
		t.Fatalf("narrative leaks store error: %s", out)
	}
	if out != ErrorSentence(contractx.KindDataAccess) {
		t.Fatalf("unexpected error narrative: %s", out)
	}

	raw, err := Structured(r)
	if err != nil {
		t.Fatalf("Structured() error = %v", err)
	}
	want := `{"error_kind":"DataAccessError","message":"pq: relation crm_leads does not exist","status":"error","tool":"crmSummary"}`
	if string(raw) != want {
		t.Fatalf("Structured() = %s", raw)
	}
}

func TestErrorSentencesDiffer(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, k := range []contractx.ErrorKind{contractx.KindToolNotFound, contractx.KindValidation, contractx.KindConflict, contractx.KindDataAccess} {
		s := ErrorSentence(k)
		if s == "" || seen[s] {
			t.Fatalf("sentence for %s is empty or duplicated: %q", k, s)
		}
		seen[s] = true
	}
}

func TestNarrativeEmptyPipeline(t *testing.T) {
	t.Parallel()

	r := contractx.Success(contractx.ToolPipelineSummary, contractx.PipelineSummary{Stages: []contractx.PipelineStage{}, Currency: "USD"})
	out := New(Config{Style: "text"}).Narrative(r)
	if out != "No hay oportunidades activas en el pipeline." {
		t.Fatalf("unexpected narrative: %q", out)
	}
}

func TestNarrativeCRMSummary(t *testing.T) {
	t.Parallel()

	r := contractx.Success(contractx.ToolCRMSummary, contractx.CRMSummary{
		TotalOpportunities: 5, OpenOpportunities: 3, WonOpportunities: 1, LostOpportunities: 1,
		TotalExpectedRevenue: 18300, Currency: "USD",
	})
	out := New(Config{Style: "text"}).Narrative(r)
	for _, want := range []string{"3 oportunidades abiertas", "1 ganadas", "1 perdidas", "(5 en total)", "$18,300.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("narrative missing %q: %s", want, out)
		}
	}
}

func TestNarrativeHelp(t *testing.T) {
	t.Parallel()

	r := contractx.Success(contractx.ToolHelp, contractx.Help{
		Message: "No entendí la consulta.",
		Categories: []contractx.HelpCategory{
			{Category: contractx.CategoryInventory, Title: "Productos y stock", Examples: []string{"Busco sillas"}},
		},
	})
	out := New(Config{Style: "markdown"}).Narrative(r)
	if !strings.HasPrefix(out, "No entendí la consulta.") || !strings.Contains(out, "- Busco sillas") {
		t.Fatalf("unexpected help narrative:\n%s", out)
	}
}

func TestNarrativeOpportunityCreated(t *testing.T) {
	t.Parallel()

	r := contractx.Success(contractx.ToolCreateOpportunity, contractx.OpportunityCreated{
		Created: true,
		Opportunity: contractx.LeadDetail{
			ID: 7, Name: "Mesas", Type: "opportunity", Customer: "Globex", Stage: "Nuevo", ExpectedRevenue: 5000,
		},
		Currency: "USD",
	})
	out := New(Config{Style: "text"}).Narrative(r)
	if !strings.Contains(out, "He creado la oportunidad «Mesas» (id 7) para Globex en la etapa Nuevo.") {
		t.Fatalf("unexpected narrative: %s", out)
	}
	if !strings.Contains(out, "$5,000.00") {
		t.Fatalf("missing revenue: %s", out)
	}
}
