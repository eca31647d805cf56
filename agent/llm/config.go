package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	openrouterx "github.com/tanpawarit/erp-insight-agent/pkg/openrouter"
)

type Role string

const (
	RoleRouter  Role = "router"
	RoleInsight Role = "insight"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
)

type Config struct {
	Enabled            bool          `default:"false"`
	Router             bool          `default:"true"`
	Insight            bool          `default:"true"`
	InsightProvider    string        `split_words:"true" default:"openrouter" validate:"oneof=openrouter openai gemini"`
	BaseURL            string        `split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `split_words:"true"`
	Model              string        `default:"openai/gpt-4o-mini"`
	MaxCompletionToken int           `split_words:"true" default:"300" validate:"gte=1"`
	Temperature        float32       `default:"0.2" validate:"gte=0,lte=2"`
	Timeout            time.Duration `default:"20s"`
	SiteURL            string        `split_words:"true"`
	SiteName           string        `split_words:"true"`

	RouterModel        string  `split_words:"true"`
	InsightModel       string  `split_words:"true"`
	RouterTemperature  float32 `split_words:"true" default:"-1"`
	InsightTemperature float32 `split_words:"true" default:"-1"`

	GeminiAPIKey string `split_words:"true"`
	GeminiModel  string `split_words:"true" default:"gemini-2.0-flash"`
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.InsightProvider == ProviderGemini && c.Insight {
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("%w: gemini api key is required", contractx.ErrValidation)
		}
	}
	if c.Router || (c.Insight && c.InsightProvider != ProviderGemini) {
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
		}
		if strings.TrimSpace(c.Model) == "" {
			return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
		}
	}
	return nil
}

// EndpointFor resolves the model and temperature of a role, falling back
// to the shared defaults.
func (c Config) EndpointFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case RoleRouter:
		if v := strings.TrimSpace(c.RouterModel); v != "" {
			modelName = v
		}
		if c.RouterTemperature >= 0 {
			temp = c.RouterTemperature
		}
	case RoleInsight:
		if v := strings.TrimSpace(c.InsightModel); v != "" {
			modelName = v
		}
		if c.InsightTemperature >= 0 {
			temp = c.InsightTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
