package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	formatx "github.com/tanpawarit/erp-insight-agent/agent/format"
)

type fakeDispatcher struct {
	handle    map[string]contractx.QueryResult
	handled   []string
	calledIDs []contractx.ToolID
}

func (f *fakeDispatcher) Handle(ctx context.Context, text string) contractx.QueryResult {
	f.handled = append(f.handled, text)
	if res, ok := f.handle[text]; ok {
		return res
	}
	return contractx.Success(contractx.ToolHelp, contractx.Help{Message: "Puedo ayudarte con inventario y CRM."})
}

func (f *fakeDispatcher) CallByID(ctx context.Context, id contractx.ToolID, params map[string]any) contractx.QueryResult {
	f.calledIDs = append(f.calledIDs, id)
	if id == contractx.ToolOpenOpportunityCount {
		return contractx.Success(id, contractx.OpenOpportunityCount{OpenOpportunities: 3})
	}
	return contractx.Failure(id, contractx.KindToolNotFound, "unknown")
}

type fakeRouter struct {
	decision contractx.RouteDecision
	err      error
	calls    int
}

func (f *fakeRouter) Route(ctx context.Context, text string) (contractx.RouteDecision, error) {
	f.calls++
	return f.decision, f.err
}

type fakeInsighter struct {
	text  string
	err   error
	calls int
}

func (f *fakeInsighter) Insight(ctx context.Context, question string, result contractx.QueryResult) (string, error) {
	f.calls++
	return f.text, f.err
}

func newService(t *testing.T, d contractx.Dispatcher, opts ...Option) *Service {
	t.Helper()
	s, err := New(d, formatx.New(formatx.Config{Style: string(formatx.StyleText)}), Config{Insight: true}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"cuantos productos":                           "cuantos productos",
		"<p>cuantos <b>productos</b></p>":             "cuantos productos",
		"stock&nbsp;bajo &lt; 5":                      "stock bajo < 5",
		"hola<br>mundo":                               "hola mundo",
		"<script>alert(1)</script>resumen crm":        "resumen crm",
		"  <div>  pipeline  </div><style>p{}</style>": "pipeline",
	}
	for in, want := range cases {
		if got := StripHTML(in); got != want {
			t.Fatalf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReplyRendersNarrative(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{handle: map[string]contractx.QueryResult{
		"cuantos productos": contractx.Success(contractx.ToolProductCount, contractx.ProductCount{TotalProducts: 5}),
	}}
	s := newService(t, d)

	resp := s.Reply(context.Background(), "<p>cuantos productos</p>")
	if !resp.Success {
		t.Fatalf("expected success, got %#v", resp)
	}
	if !strings.Contains(resp.Response, "Hay 5 productos activos") {
		t.Fatalf("unexpected response: %q", resp.Response)
	}
	if len(d.handled) != 1 || d.handled[0] != "cuantos productos" {
		t.Fatalf("expected stripped text to be dispatched, got %#v", d.handled)
	}
	if resp.Result.Tool != contractx.ToolProductCount {
		t.Fatalf("unexpected result tool: %s", resp.Result.Tool)
	}
}

func TestReplyErrorKinds(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{handle: map[string]contractx.QueryResult{
		"caido":    contractx.Failure(contractx.ToolCRMSummary, contractx.KindDataAccess, "pq: connection refused"),
		"negativo": contractx.Failure(contractx.ToolLowStock, contractx.KindValidation, "threshold must be >= 0"),
	}}
	s := newService(t, d)

	down := s.Reply(context.Background(), "caido")
	if down.Success {
		t.Fatal("expected data access failure to be unsuccessful")
	}
	if strings.Contains(down.Response, "connection refused") {
		t.Fatalf("raw store error leaked: %q", down.Response)
	}
	if !strings.Contains(down.Response, formatx.ErrorSentence(contractx.KindDataAccess)) {
		t.Fatalf("unexpected response: %q", down.Response)
	}

	invalid := s.Reply(context.Background(), "negativo")
	if !invalid.Success {
		t.Fatal("validation failures still get a successful reply")
	}
	if !strings.Contains(invalid.Response, formatx.ErrorSentence(contractx.KindValidation)) {
		t.Fatalf("unexpected response: %q", invalid.Response)
	}
}

func TestReplyRoutesUnmatchedText(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	r := &fakeRouter{decision: contractx.RouteDecision{Tool: contractx.ToolOpenOpportunityCount}}
	s := newService(t, d, WithRouter(r))

	resp := s.Reply(context.Background(), "negocios vivos")
	if r.calls != 1 {
		t.Fatalf("expected router call, got %d", r.calls)
	}
	if len(d.calledIDs) != 1 || d.calledIDs[0] != contractx.ToolOpenOpportunityCount {
		t.Fatalf("unexpected direct calls: %#v", d.calledIDs)
	}
	if !strings.Contains(resp.Response, "Hay 3 oportunidades abiertas.") {
		t.Fatalf("unexpected response: %q", resp.Response)
	}
}

func TestReplyRouterReplyAndFailure(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{}
	reply := newService(t, d, WithRouter(&fakeRouter{decision: contractx.RouteDecision{Reply: "¡Hola! Pregúntame por el stock."}}))
	resp := reply.Reply(context.Background(), "hola")
	if resp.Response != "¡Hola! Pregúntame por el stock." || !resp.Success {
		t.Fatalf("unexpected response: %#v", resp)
	}

	failing := newService(t, d, WithRouter(&fakeRouter{err: errors.New("timeout")}))
	resp = failing.Reply(context.Background(), "hola")
	if !strings.Contains(resp.Response, "Puedo ayudarte con inventario y CRM.") {
		t.Fatalf("expected help fallback, got %q", resp.Response)
	}
}

func TestReplyRouterSkippedForEmptyText(t *testing.T) {
	t.Parallel()

	r := &fakeRouter{decision: contractx.RouteDecision{Reply: "x"}}
	s := newService(t, &fakeDispatcher{}, WithRouter(r))
	s.Reply(context.Background(), "<p> </p>")
	if r.calls != 0 {
		t.Fatalf("router should not be called for empty text, got %d calls", r.calls)
	}
}

func TestReplyInsight(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{handle: map[string]contractx.QueryResult{
		"cuantos productos": contractx.Success(contractx.ToolProductCount, contractx.ProductCount{TotalProducts: 5}),
		"caido":             contractx.Failure(contractx.ToolCRMSummary, contractx.KindDataAccess, "down"),
	}}
	ins := &fakeInsighter{text: "El catálogo es pequeño."}
	s := newService(t, d, WithInsighter(ins))

	resp := s.Reply(context.Background(), "cuantos productos")
	if !strings.HasSuffix(resp.Response, "\n\nEl catálogo es pequeño.") {
		t.Fatalf("expected insight line, got %q", resp.Response)
	}

	s.Reply(context.Background(), "caido")
	s.Reply(context.Background(), "hola")
	if ins.calls != 1 {
		t.Fatalf("insight must only run for successful tool results, got %d calls", ins.calls)
	}
}

func TestReplyInsightFailureIsIgnored(t *testing.T) {
	t.Parallel()

	d := &fakeDispatcher{handle: map[string]contractx.QueryResult{
		"cuantos productos": contractx.Success(contractx.ToolProductCount, contractx.ProductCount{TotalProducts: 5}),
	}}
	s := newService(t, d, WithInsighter(&fakeInsighter{err: errors.New("quota")}))

	resp := s.Reply(context.Background(), "cuantos productos")
	if strings.TrimSpace(resp.Response) != "Hay 5 productos activos en el inventario." {
		t.Fatalf("unexpected response: %q", resp.Response)
	}
}

func TestChannelFrom(t *testing.T) {
	t.Parallel()

	if got := channelFrom(context.Background()); got != ChannelAPI {
		t.Fatalf("default channel = %q", got)
	}
	if got := channelFrom(WithChannel(context.Background(), ChannelLivechat)); got != ChannelLivechat {
		t.Fatalf("channel = %q", got)
	}
}

func TestNewRequiresDispatcher(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil, Config{}); err == nil {
		t.Fatal("expected error for nil dispatcher")
	}
}
