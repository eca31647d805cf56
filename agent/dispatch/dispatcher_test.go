package dispatch

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	enginex "github.com/tanpawarit/erp-insight-agent/agent/engine"
	intentx "github.com/tanpawarit/erp-insight-agent/agent/intent"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

func newDemoDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	st := storex.NewMemoryStore()
	if err := st.Seed(context.Background(), storex.DemoFixture()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	eng, err := enginex.New(st, enginex.DefaultConfig())
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	cat, err := enginex.BuildCatalog(eng)
	if err != nil {
		t.Fatalf("BuildCatalog() error = %v", err)
	}
	d, err := New(cat, intentx.NewClassifier(), intentx.NewExtractor(intentx.DefaultConfig(), eng), Config{MaxMessageLength: 2000})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

type recordingClassifier struct {
	seen []string
}

func (r *recordingClassifier) Classify(text string) (contractx.ToolID, bool) {
	r.seen = append(r.seen, text)
	return contractx.ToolCRMSummary, true
}

type noParams struct{}

func (noParams) Extract(context.Context, contractx.ToolID, string) map[string]any {
	return nil
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, intentx.NewClassifier(), noParams{}, Config{}); err == nil {
		t.Fatal("expected error for nil catalog")
	}
	if _, err := New(toolx.NewCatalog(), nil, noParams{}, Config{}); err == nil {
		t.Fatal("expected error for nil classifier")
	}
}

func TestHandleProductCount(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.Handle(context.Background(), "¿cuántos productos tenemos?")
	if res.Tool != contractx.ToolProductCount || !res.OK() {
		t.Fatalf("unexpected result: %#v", res)
	}
	if got := res.Payload.(contractx.ProductCount).TotalProducts; got != 5 {
		t.Fatalf("unexpected total: %d", got)
	}
}

func TestHandleQuotationTerm(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.Handle(context.Background(), "cotización para sillas")
	if res.Tool != contractx.ToolSearchQuotations || !res.OK() {
		t.Fatalf("unexpected result: %#v", res)
	}
	out := res.Payload.(contractx.QuotationSearch)
	if out.Term != "sillas" {
		t.Fatalf("unexpected term: %q", out.Term)
	}
	if out.Count != 1 || out.Quotations[0].Name != "S00012" {
		t.Fatalf("unexpected quotations: %#v", out.Quotations)
	}
}

func TestHandleNoMatchReturnsHelp(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	for _, text := range []string{"hola", "", "   "} {
		res := d.Handle(context.Background(), text)
		if res.Tool != contractx.ToolHelp || !res.OK() {
			t.Fatalf("Handle(%q) unexpected result: %#v", text, res)
		}
		help := res.Payload.(contractx.Help)
		if len(help.Categories) != 2 {
			t.Fatalf("unexpected categories: %#v", help.Categories)
		}
	}
}

func TestHandleQuestionAboutNewLeadsDoesNotCreate(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.Handle(context.Background(), "¿hay algún nuevo lead esta semana?")
	if res.Tool == contractx.ToolCreateOpportunity {
		t.Fatalf("read question routed to create: %#v", res)
	}

	lookup := d.CallByID(context.Background(), contractx.ToolLeadInfo, map[string]any{"name": intentx.DefaultOpportunityName})
	if !lookup.OK() {
		t.Fatalf("unexpected lookup: %#v", lookup)
	}
	if got := lookup.Payload.(contractx.LeadInfo).Count; got != 0 {
		t.Fatalf("unexpected records created: %d", got)
	}
}

func TestHandleLowStockThreshold(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.Handle(context.Background(), "productos con stock bajo de 4")
	if res.Tool != contractx.ToolLowStock || !res.OK() {
		t.Fatalf("unexpected result: %#v", res)
	}
	out := res.Payload.(contractx.LowStock)
	if out.Threshold != 4 || out.Count != 1 || out.Products[0].Name != "Silla ergonómica" {
		t.Fatalf("unexpected low stock: %#v", out)
	}
}

func TestHandleStageSearchUsesLiveStages(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.Handle(context.Background(), "oportunidades en etapa propuesta")
	out, ok := res.Payload.(contractx.StageSearch)
	if !ok || out.Stage != "Propuesta" || out.Count != 1 {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestCallByIDUnknownTool(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.CallByID(context.Background(), "doesNotExist", nil)
	if res.Status != contractx.StatusError || res.ErrorKind != contractx.KindToolNotFound {
		t.Fatalf("unexpected result: %#v", res)
	}
	if !strings.Contains(res.Message, "productCount") {
		t.Fatalf("message should list available tools: %s", res.Message)
	}
}

func TestCallByIDValidatesParams(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.CallByID(context.Background(), contractx.ToolLowStock, map[string]any{"threshold": -3.0})
	if res.ErrorKind != contractx.KindValidation {
		t.Fatalf("unexpected result: %#v", res)
	}

	ok := d.CallByID(context.Background(), contractx.ToolLowStock, map[string]any{"threshold": 10.0})
	if !ok.OK() || ok.Payload.(contractx.LowStock).TotalRestockValue != 727.5 {
		t.Fatalf("unexpected result: %#v", ok)
	}
}

func TestCallByIDCreateConflict(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	params := map[string]any{"name": "Mesas", "customer": "Globex"}
	if res := d.CallByID(context.Background(), contractx.ToolCreateOpportunity, params); !res.OK() {
		t.Fatalf("first create failed: %#v", res)
	}
	res := d.CallByID(context.Background(), contractx.ToolCreateOpportunity, params)
	if res.ErrorKind != contractx.KindConflict {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestCallByIDCreateConflictsWithSeededRecord(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.CallByID(context.Background(), contractx.ToolCreateOpportunity, map[string]any{
		"name":     "Renovación mobiliario Acme",
		"customer": "Acme Corp",
	})
	if res.ErrorKind != contractx.KindConflict {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestHandleSearchIgnoresAccents(t *testing.T) {
	t.Parallel()

	d := newDemoDispatcher(t)
	res := d.Handle(context.Background(), "busco silla ergonomica")
	if res.Tool != contractx.ToolSearchProducts || !res.OK() {
		t.Fatalf("unexpected result: %#v", res)
	}
	if got := res.Payload.(contractx.ProductSearch).Count; got != 1 {
		t.Fatalf("unexpected count: %d", got)
	}
}

func TestCallByIDRecoversHandlerPanic(t *testing.T) {
	t.Parallel()

	cat := toolx.NewCatalog()
	cat.MustRegister(toolx.Descriptor{
		ID:       "boom",
		Category: contractx.CategoryInventory,
		Handler: func(context.Context, toolx.Params) contractx.QueryResult {
			panic("boom")
		},
	})
	cat.Freeze()

	d, err := New(cat, intentx.NewClassifier(), noParams{}, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res := d.CallByID(context.Background(), "boom", nil)
	if res.ErrorKind != contractx.KindDataAccess {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestHandleCleansAndTruncatesText(t *testing.T) {
	t.Parallel()

	cat := toolx.NewCatalog()
	cat.MustRegister(toolx.Descriptor{
		ID:       contractx.ToolCRMSummary,
		Category: contractx.CategoryCRM,
		Handler: func(context.Context, toolx.Params) contractx.QueryResult {
			return contractx.Success(contractx.ToolCRMSummary, contractx.CRMSummary{})
		},
	})
	cat.Freeze()

	rec := &recordingClassifier{}
	d, err := New(cat, rec, noParams{}, Config{MaxMessageLength: 8})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res := d.Handle(context.Background(), "  resumen\t\n del crm  ")
	if !res.OK() {
		t.Fatalf("unexpected result: %#v", res)
	}
	if len(rec.seen) != 1 || rec.seen[0] != "resumen " {
		t.Fatalf("unexpected classifier input: %#v", rec.seen)
	}
}
