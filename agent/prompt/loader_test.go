package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	p := LoadPromptSet()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	// eino FString templates treat braces as placeholders
	for name, text := range map[string]string{"router": p.Router, "insight": p.Insight} {
		if strings.ContainsAny(text, "{}") {
			t.Fatalf("%s prompt must not contain braces", name)
		}
	}
}

func TestValidateMissingPrompt(t *testing.T) {
	t.Parallel()

	err := PromptSet{Router: "x"}.Validate()
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
