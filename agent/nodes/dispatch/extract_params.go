package dispatchnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

type ParamExtractor interface {
	Extract(ctx context.Context, tool contractx.ToolID, text string) map[string]any
}

func ExtractParams(ctx context.Context, in *GraphState, extractor ParamExtractor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Params = toolx.Params{}
	if !in.Matched {
		return in, nil
	}
	for k, v := range extractor.Extract(ctx, in.Tool, in.Text) {
		in.Params[k] = v
	}
	return in, nil
}
