package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/cloudwego/eino/schema"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	promptx "github.com/tanpawarit/erp-insight-agent/agent/prompt"
	metricsx "github.com/tanpawarit/erp-insight-agent/pkg/metrics"
	openrouterx "github.com/tanpawarit/erp-insight-agent/pkg/openrouter"
)

const OpenAIBaseURL = "https://api.openai.com/v1"

// maxInsightRunes bounds the commentary appended to a chat reply.
const maxInsightRunes = 400

// Completer turns a system prompt and a user message into plain text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type openAICompleter struct {
	client      *openaisdk.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAICompleter talks to any OpenAI-compatible endpoint, OpenRouter
// included.
func NewOpenAICompleter(c openrouterx.Config) (Completer, error) {
	client := openrouterx.NewClient(c)
	if client == nil {
		return nil, fmt.Errorf("%w: openai completer needs an api key", contractx.ErrValidation)
	}
	maxTokens := 0
	if c.MaxCompletionToken != nil {
		maxTokens = *c.MaxCompletionToken
	}
	return &openAICompleter{
		client:      client,
		model:       c.Model,
		temperature: c.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (o *openAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(o.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		Temperature: openaisdk.Float(float64(o.temperature)),
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(o.maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completion has no choices", contractx.ErrSchemaViolation)
	}
	return resp.Choices[0].Message.Content, nil
}

type geminiCompleter struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, temperature float32, maxTokens int) (Completer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", contractx.ErrValidation)
	}
	llm, err := googleai.New(
		ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %v", contractx.ErrModelInvoke, err)
	}
	return &geminiCompleter{llm: llm, temperature: float64(temperature), maxTokens: maxTokens}, nil
}

func (g *geminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, system+"\n\n"+user, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: gemini generate: %v", contractx.ErrModelInvoke, err)
	}
	return out, nil
}

// Insighter comments on successful results with one short sentence.
type Insighter struct {
	completer Completer
	prompt    string
}

var _ contractx.Insighter = (*Insighter)(nil)

func NewInsighter(completer Completer, systemPrompt string) (*Insighter, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: insight completer is nil", contractx.ErrModelInvoke)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: insight", contractx.ErrPromptMissing)
	}
	return &Insighter{completer: completer, prompt: systemPrompt}, nil
}

func (i *Insighter) Insight(ctx context.Context, question string, result contractx.QueryResult) (string, error) {
	text, err := i.insight(ctx, question, result)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metricsx.LLMRequests.WithLabelValues(string(RoleInsight), outcome).Inc()
	return text, err
}

func (i *Insighter) insight(ctx context.Context, question string, result contractx.QueryResult) (string, error) {
	if !result.OK() {
		return "", fmt.Errorf("%w: insight requires a successful result", contractx.ErrValidation)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: marshal result: %v", contractx.ErrValidation, err)
	}

	user := "Pregunta: " + question + "\nResultado: " + string(data)
	out, err := i.completer.Complete(ctx, i.prompt, user)
	if err != nil {
		return "", err
	}
	text := strings.Join(strings.Fields(out), " ")
	if text == "" {
		return "", fmt.Errorf("%w: empty insight", contractx.ErrSchemaViolation)
	}
	if r := []rune(text); len(r) > maxInsightRunes {
		text = strings.TrimSpace(string(r[:maxInsightRunes])) + "…"
	}
	return text, nil
}

// Assistant bundles the optional LLM helpers. Either field may be nil.
type Assistant struct {
	Router    *Router
	Insighter *Insighter
}

// NewAssistant builds the helpers enabled in cfg. A disabled config yields
// an empty Assistant.
func NewAssistant(ctx context.Context, cfg Config, tools []*schema.ToolInfo, prompts promptx.PromptSet) (*Assistant, error) {
	a := &Assistant{}
	if !cfg.Enabled {
		return a, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Router {
		chatModel, err := openrouterx.NewChatModel(ctx, cfg.EndpointFor(RoleRouter))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		router, err := NewRouter(ctx, chatModel, tools, prompts.Router)
		if err != nil {
			return nil, err
		}
		a.Router = router
	}

	if cfg.Insight {
		completer, err := newInsightCompleter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		insighter, err := NewInsighter(completer, prompts.Insight)
		if err != nil {
			return nil, err
		}
		a.Insighter = insighter
	}
	return a, nil
}

func newInsightCompleter(ctx context.Context, cfg Config) (Completer, error) {
	switch cfg.InsightProvider {
	case ProviderGemini:
		endpoint := cfg.EndpointFor(RoleInsight)
		return NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, endpoint.Temperature, cfg.MaxCompletionToken)
	case ProviderOpenAI:
		endpoint := cfg.EndpointFor(RoleInsight)
		if endpoint.BaseURL == "" || endpoint.BaseURL == openrouterx.DefaultBaseURL {
			endpoint.BaseURL = OpenAIBaseURL
		}
		return NewOpenAICompleter(endpoint)
	case ProviderOpenRouter, "":
		return NewOpenAICompleter(cfg.EndpointFor(RoleInsight))
	default:
		return nil, fmt.Errorf("%w: unknown insight provider %q", contractx.ErrValidation, cfg.InsightProvider)
	}
}
