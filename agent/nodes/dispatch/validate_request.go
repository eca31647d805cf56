package dispatchnode

import (
	"strings"
	"time"
	"unicode"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

type GraphInput struct {
	Text string
}

type GraphOutput struct {
	Result contractx.QueryResult
}

type GraphState struct {
	Text    string
	Started time.Time

	Tool    contractx.ToolID
	Matched bool
	Params  toolx.Params

	Result contractx.QueryResult
}

// ValidateRequest cleans the incoming text. Empty text is not an error; it
// simply classifies to help.
func ValidateRequest(in GraphInput, maxRunes int, nowFn func() time.Time) (*GraphState, error) {
	text := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, in.Text)
	text = strings.Join(strings.Fields(text), " ")

	if maxRunes > 0 {
		if runes := []rune(text); len(runes) > maxRunes {
			text = string(runes[:maxRunes])
		}
	}

	return &GraphState{
		Text:    text,
		Started: nowFn().UTC(),
	}, nil
}
