package dispatchnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

type Executor interface {
	Execute(ctx context.Context, id contractx.ToolID, params toolx.Params) contractx.QueryResult
}

func ExecuteTool(ctx context.Context, in *GraphState, executor Executor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Result = executor.Execute(ctx, in.Tool, in.Params)
	return in, nil
}
