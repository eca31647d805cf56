package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/insight.txt
	insightRaw string
)

// PromptSet holds the system prompts of the LLM helpers.
type PromptSet struct {
	Router  string
	Insight string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:  strings.TrimSpace(routerRaw),
		Insight: strings.TrimSpace(insightRaw),
	}
}

func (p PromptSet) Validate() error {
	if p.Router == "" {
		return fmt.Errorf("%w: router", contractx.ErrPromptMissing)
	}
	if p.Insight == "" {
		return fmt.Errorf("%w: insight", contractx.ErrPromptMissing)
	}
	return nil
}
