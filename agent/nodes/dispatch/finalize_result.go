package dispatchnode

import (
	"fmt"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

func FinalizeResult(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Result.Status == "" {
		return GraphOutput{}, fmt.Errorf("%w: tool=%s returned no result", contractx.ErrDataAccess, in.Tool)
	}
	if in.Result.Tool == "" {
		in.Result.Tool = in.Tool
	}
	return GraphOutput{Result: in.Result}, nil
}
