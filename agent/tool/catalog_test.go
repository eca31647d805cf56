package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

func echoHandler(id contractx.ToolID) Handler {
	return func(ctx context.Context, p Params) contractx.QueryResult {
		return contractx.Success(id, map[string]any{"term": p.String("term", "producto")})
	}
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	cat := NewCatalog()
	cat.MustRegister(Descriptor{
		ID:       contractx.ToolSearchProducts,
		Category: contractx.CategoryInventory,
		Params:   []Param{{Name: "term", Type: TypeString}},
		Handler:  echoHandler(contractx.ToolSearchProducts),
	})
	cat.MustRegister(Descriptor{
		ID:       contractx.ToolLowStock,
		Category: contractx.CategoryInventory,
		Params:   []Param{{Name: "threshold", Type: TypeNumber, Minimum: Min(0)}},
		Handler:  echoHandler(contractx.ToolLowStock),
	})
	cat.MustRegister(Descriptor{
		ID:       contractx.ToolCRMSummary,
		Category: contractx.CategoryCRM,
		Handler:  echoHandler(contractx.ToolCRMSummary),
	})
	if err := RegisterHelp(cat); err != nil {
		t.Fatalf("RegisterHelp() error = %v", err)
	}
	cat.Freeze()
	return cat
}

func TestCatalogLookupUnknownListsAvailable(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)
	_, err := cat.Lookup("doesNotExist")
	if !errors.Is(err, contractx.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "searchProducts, lowStock, crmSummary, help") {
		t.Fatalf("error should list available ids, got %q", err.Error())
	}
}

func TestCatalogExecuteUnknownTool(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)
	res := cat.Execute(context.Background(), "doesNotExist", nil)
	if res.Status != contractx.StatusError {
		t.Fatalf("expected error status, got %s", res.Status)
	}
	if res.ErrorKind != contractx.KindToolNotFound {
		t.Fatalf("unexpected kind: %s", res.ErrorKind)
	}
}

func TestCatalogRegisterRules(t *testing.T) {
	t.Parallel()

	cat := NewCatalog()
	if err := cat.Register(Descriptor{ID: "x"}); err == nil {
		t.Fatal("expected error for missing handler")
	}
	if err := cat.Register(Descriptor{ID: " ", Handler: echoHandler("x")}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := cat.Register(Descriptor{ID: "x", Handler: echoHandler("x")}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := cat.Register(Descriptor{ID: "x", Handler: echoHandler("x")}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	cat.Freeze()
	if err := cat.Register(Descriptor{ID: "y", Handler: echoHandler("y")}); err == nil {
		t.Fatal("expected error after freeze")
	}
}

func TestCatalogValidateParams(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)
	cases := []struct {
		name    string
		id      contractx.ToolID
		params  Params
		wantErr bool
	}{
		{name: "nil params", id: contractx.ToolCRMSummary, params: nil},
		{name: "valid threshold", id: contractx.ToolLowStock, params: Params{"threshold": 10.0}},
		{name: "negative threshold", id: contractx.ToolLowStock, params: Params{"threshold": -1.0}, wantErr: true},
		{name: "wrong type", id: contractx.ToolSearchProducts, params: Params{"term": 5}, wantErr: true},
		{name: "unknown param", id: contractx.ToolCRMSummary, params: Params{"foo": "bar"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := cat.Validate(tc.id, tc.params)
			if tc.wantErr {
				if !errors.Is(err, contractx.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestCatalogListByCategory(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)
	if got := len(cat.List()); got != 4 {
		t.Fatalf("expected 4 tools, got %d", got)
	}
	inv := cat.List(contractx.CategoryInventory)
	if len(inv) != 2 || inv[0].ID != contractx.ToolSearchProducts || inv[1].ID != contractx.ToolLowStock {
		t.Fatalf("unexpected inventory tools: %#v", inv)
	}
	if got := len(cat.ToolInfos()); got != 3 {
		t.Fatalf("expected help to be excluded from tool infos, got %d", got)
	}
}

func TestHelpResultListsCategories(t *testing.T) {
	t.Parallel()

	cat := newTestCatalog(t)
	res := cat.Execute(context.Background(), contractx.ToolHelp, nil)
	if !res.OK() {
		t.Fatalf("unexpected error result: %#v", res)
	}
	help, ok := res.Payload.(contractx.Help)
	if !ok {
		t.Fatalf("unexpected payload type: %T", res.Payload)
	}
	if len(help.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(help.Categories))
	}
	if len(help.Categories[1].Tools) != 1 || help.Categories[1].Tools[0] != contractx.ToolCRMSummary {
		t.Fatalf("unexpected crm tools: %#v", help.Categories[1].Tools)
	}
}

func TestParamsAccessors(t *testing.T) {
	t.Parallel()

	p := Params{"term": "  sillas ", "empty": "", "n": "12.5", "limit": 3.0}
	if got := p.String("term", "x"); got != "sillas" {
		t.Fatalf("String() = %q", got)
	}
	if got := p.String("empty", "x"); got != "x" {
		t.Fatalf("String() fallback = %q", got)
	}
	if got := p.Float("n", 0); got != 12.5 {
		t.Fatalf("Float() = %v", got)
	}
	if got := p.Int("limit", 10); got != 3 {
		t.Fatalf("Int() = %v", got)
	}
	if got := p.Int("missing", 10); got != 10 {
		t.Fatalf("Int() fallback = %v", got)
	}
}

func TestDescriptorJSONSchema(t *testing.T) {
	t.Parallel()

	d := Descriptor{
		ID: "x",
		Params: []Param{
			{Name: "name", Type: TypeString, Required: true},
			{Name: "probability", Type: TypeNumber, Minimum: Min(0), Maximum: Max(100)},
		},
	}
	s := d.JSONSchema()
	if s["type"] != "object" {
		t.Fatalf("unexpected type: %v", s["type"])
	}
	req, ok := s["required"].([]string)
	if !ok || len(req) != 1 || req[0] != "name" {
		t.Fatalf("unexpected required: %#v", s["required"])
	}
	info := d.ToolInfo()
	if info.Name != "x" {
		t.Fatalf("unexpected tool info name: %s", info.Name)
	}
}
