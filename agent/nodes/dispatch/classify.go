package dispatchnode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

type Classifier interface {
	Classify(text string) (contractx.ToolID, bool)
}

// Classify picks the tool for the text; unmatched text goes to help.
func Classify(in *GraphState, classifier Classifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	tool, ok := classifier.Classify(in.Text)
	if !ok {
		tool = contractx.ToolHelp
	}
	in.Tool = tool
	in.Matched = ok

	log.Debug().Str("tool", string(tool)).Bool("matched", ok).Str("text", in.Text).Msg("classified message")
	return in, nil
}
