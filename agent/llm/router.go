package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	metricsx "github.com/tanpawarit/erp-insight-agent/pkg/metrics"
)

// Router asks a tool-calling model to pick a catalog tool for text the
// rule table did not understand.
type Router struct {
	runner  compose.Runnable[map[string]any, *schema.Message]
	allowed map[string]struct{}
}

var _ contractx.Router = (*Router)(nil)

func NewRouter(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	tools []*schema.ToolInfo,
	systemPrompt string,
) (*Router, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: router chat model is nil", contractx.ErrModelInvoke)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: router", contractx.ErrPromptMissing)
	}

	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for router: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileRouterGraph(ctx, toolModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}

	allowed := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowed[t.Name] = struct{}{}
	}
	return &Router{runner: runner, allowed: allowed}, nil
}

func compileRouterGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add router prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add router model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add router edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add router edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add router edge model->end: %w", err)
	}

	return graph.Compile(ctx, compose.WithGraphName("llm.router_graph"))
}

// Route returns either a tool with params or a plain reply. Only the first
// tool call is honored.
func (r *Router) Route(ctx context.Context, text string) (contractx.RouteDecision, error) {
	decision, err := r.route(ctx, text)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metricsx.LLMRequests.WithLabelValues(string(RoleRouter), outcome).Inc()
	return decision, err
}

func (r *Router) route(ctx context.Context, text string) (contractx.RouteDecision, error) {
	msg, err := r.runner.Invoke(ctx, map[string]any{"input": text})
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: empty router response", contractx.ErrSchemaViolation)
	}

	if len(msg.ToolCalls) == 0 {
		reply := strings.TrimSpace(msg.Content)
		if reply == "" {
			return contractx.RouteDecision{}, fmt.Errorf("%w: router returned neither tool call nor reply", contractx.ErrSchemaViolation)
		}
		return contractx.RouteDecision{Reply: reply}, nil
	}

	call := msg.ToolCalls[0]
	tool := strings.TrimSpace(call.Function.Name)
	if _, ok := r.allowed[tool]; !ok {
		return contractx.RouteDecision{}, fmt.Errorf("%w: tool=%q is not in the catalog", contractx.ErrSchemaViolation, tool)
	}

	params := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return contractx.RouteDecision{}, fmt.Errorf("%w: invalid args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
		}
	}
	return contractx.RouteDecision{Tool: contractx.ToolID(tool), Params: params}, nil
}
