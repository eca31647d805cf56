package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	promptx "github.com/tanpawarit/erp-insight-agent/agent/prompt"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func testTools() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: "lowStock",
			Desc: "Productos con poco stock.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"threshold": {Type: schema.Number, Desc: "Umbral"},
			}),
		},
		{Name: "crmSummary", Desc: "Resumen del CRM."},
	}
}

func toolCallMessage(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{
				ID:       "call_1",
				Type:     "function",
				Function: schema.FunctionCall{Name: name, Arguments: args},
			},
		},
	}
}

func TestRouterToolCallMapping(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{toolCallMessage("lowStock", `{"threshold":5}`)}}
	router, err := NewRouter(context.Background(), fake, testTools(), "router prompt")
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	decision, err := router.Route(context.Background(), "que se esta acabando")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Tool != contractx.ToolLowStock {
		t.Fatalf("unexpected tool: %s", decision.Tool)
	}
	if decision.Params["threshold"] != float64(5) {
		t.Fatalf("unexpected params: %#v", decision.Params)
	}
	if decision.Reply != "" {
		t.Fatalf("expected no reply, got %q", decision.Reply)
	}

	if len(fake.inputs) != 1 || len(fake.inputs[0]) != 2 {
		t.Fatalf("expected system and user messages, got %#v", fake.inputs)
	}
	if fake.inputs[0][1].Content != "que se esta acabando" {
		t.Fatalf("unexpected user message: %q", fake.inputs[0][1].Content)
	}
}

func TestRouterPlainReply(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{{Role: schema.Assistant, Content: "  Hola, puedo ayudarte.  "}}}
	router, err := NewRouter(context.Background(), fake, testTools(), "router prompt")
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}

	decision, err := router.Route(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if decision.Tool != "" || decision.Reply != "Hola, puedo ayudarte." {
		t.Fatalf("unexpected decision: %#v", decision)
	}
}

func TestRouterSchemaViolations(t *testing.T) {
	t.Parallel()

	cases := map[string]*schema.Message{
		"unknown tool": toolCallMessage("dropDatabase", `{}`),
		"invalid args": toolCallMessage("lowStock", `{threshold`),
		"empty reply":  {Role: schema.Assistant, Content: "   "},
	}

	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeToolCallingModel{responses: []*schema.Message{msg}}
			router, err := NewRouter(context.Background(), fake, testTools(), "router prompt")
			if err != nil {
				t.Fatalf("NewRouter() error = %v", err)
			}
			_, err = router.Route(context.Background(), "algo")
			if !errors.Is(err, contractx.ErrSchemaViolation) {
				t.Fatalf("expected ErrSchemaViolation, got %v", err)
			}
		})
	}
}

func TestRouterModelFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("upstream down")}
	router, err := NewRouter(context.Background(), fake, testTools(), "router prompt")
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	_, err = router.Route(context.Background(), "algo")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestNewRouterRequiresPromptAndModel(t *testing.T) {
	t.Parallel()

	if _, err := NewRouter(context.Background(), &fakeToolCallingModel{}, testTools(), " "); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
	if _, err := NewRouter(context.Background(), nil, testTools(), "p"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

type fakeCompleter struct {
	out        string
	err        error
	gotSystem  string
	gotUser    string
	callsCount int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.callsCount++
	f.gotSystem = system
	f.gotUser = user
	return f.out, f.err
}

func TestInsighterSuccess(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{out: "  El stock\n esta sano.  "}
	insighter, err := NewInsighter(fake, "insight prompt")
	if err != nil {
		t.Fatalf("NewInsighter() error = %v", err)
	}

	result := contractx.Success(contractx.ToolProductCount, contractx.ProductCount{TotalProducts: 5})
	text, err := insighter.Insight(context.Background(), "cuantos productos", result)
	if err != nil {
		t.Fatalf("Insight() error = %v", err)
	}
	if text != "El stock esta sano." {
		t.Fatalf("unexpected insight: %q", text)
	}
	if fake.gotSystem != "insight prompt" {
		t.Fatalf("unexpected system prompt: %q", fake.gotSystem)
	}
	if !strings.Contains(fake.gotUser, "cuantos productos") || !strings.Contains(fake.gotUser, `"total_products":5`) {
		t.Fatalf("unexpected user message: %q", fake.gotUser)
	}
}

func TestInsighterSkipsFailures(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{out: "nunca"}
	insighter, err := NewInsighter(fake, "insight prompt")
	if err != nil {
		t.Fatalf("NewInsighter() error = %v", err)
	}

	_, err = insighter.Insight(context.Background(), "x", contractx.Failure(contractx.ToolLowStock, contractx.KindValidation, "bad"))
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if fake.callsCount != 0 {
		t.Fatalf("completer should not be called, got %d calls", fake.callsCount)
	}
}

func TestInsighterEmptyAndLong(t *testing.T) {
	t.Parallel()

	result := contractx.Success(contractx.ToolProductCount, contractx.ProductCount{TotalProducts: 1})

	empty, _ := NewInsighter(&fakeCompleter{out: " \n "}, "p")
	if _, err := empty.Insight(context.Background(), "x", result); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}

	long, _ := NewInsighter(&fakeCompleter{out: strings.Repeat("a", maxInsightRunes+50)}, "p")
	text, err := long.Insight(context.Background(), "x", result)
	if err != nil {
		t.Fatalf("Insight() error = %v", err)
	}
	if got := len([]rune(text)); got != maxInsightRunes+1 {
		t.Fatalf("expected truncated insight, got %d runes", got)
	}

	failing, _ := NewInsighter(&fakeCompleter{err: contractx.ErrModelInvoke}, "p")
	if _, err := failing.Insight(context.Background(), "x", result); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestConfigEndpointFor(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:             " key ",
		Model:              "openai/gpt-4o-mini",
		MaxCompletionToken: 300,
		Temperature:        0.2,
		RouterModel:        "x-ai/grok-4.1-fast",
		RouterTemperature:  0,
		InsightTemperature: -1,
	}

	router := cfg.EndpointFor(RoleRouter)
	if router.Model != "x-ai/grok-4.1-fast" || router.Temperature != 0 {
		t.Fatalf("unexpected router endpoint: %#v", router)
	}
	if router.APIKey != "key" || router.MaxCompletionToken == nil || *router.MaxCompletionToken != 300 {
		t.Fatalf("unexpected router endpoint: %#v", router)
	}

	insight := cfg.EndpointFor(RoleInsight)
	if insight.Model != "openai/gpt-4o-mini" || insight.Temperature != float32(0.2) {
		t.Fatalf("unexpected insight endpoint: %#v", insight)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("disabled config should validate, got %v", err)
	}

	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "missing key", cfg: Config{Enabled: true, Router: true, Model: "m"}},
		{name: "missing model", cfg: Config{Enabled: true, Router: true, APIKey: "k"}},
		{name: "gemini without key", cfg: Config{Enabled: true, Insight: true, InsightProvider: ProviderGemini}},
		{name: "gemini only", cfg: Config{Enabled: true, Insight: true, InsightProvider: ProviderGemini, GeminiAPIKey: "g"}, ok: true},
		{name: "router", cfg: Config{Enabled: true, Router: true, APIKey: "k", Model: "m"}, ok: true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, contractx.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestNewAssistantDisabled(t *testing.T) {
	t.Parallel()

	a, err := NewAssistant(context.Background(), Config{}, testTools(), promptx.LoadPromptSet())
	if err != nil {
		t.Fatalf("NewAssistant() error = %v", err)
	}
	if a.Router != nil || a.Insighter != nil {
		t.Fatalf("expected empty assistant, got %#v", a)
	}
}
