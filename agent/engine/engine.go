package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
)

type Config struct {
	LowStockLevel     float64 `split_words:"true" default:"5" validate:"gte=0"`
	DefaultThreshold  float64 `split_words:"true" default:"10" validate:"gte=0"`
	ReorderFloor      float64 `split_words:"true" default:"10" validate:"gte=0"`
	MinimumRestock    float64 `split_words:"true" default:"5" validate:"gte=0"`
	SearchLimit       int     `split_words:"true" default:"10" validate:"gte=1"`
	LowStockListLimit int     `split_words:"true" default:"10" validate:"gte=1"`
	OpenListLimit     int     `split_words:"true" default:"10" validate:"gte=1"`
	StageSearchLimit  int     `split_words:"true" default:"10" validate:"gte=1"`
	LeadLimit         int     `split_words:"true" default:"5" validate:"gte=1"`
	QuotationLimit    int     `split_words:"true" default:"10" validate:"gte=1"`
	Currency          string  `default:"USD" validate:"required"`
}

func DefaultConfig() Config {
	return Config{
		LowStockLevel:     5,
		DefaultThreshold:  10,
		ReorderFloor:      10,
		MinimumRestock:    5,
		SearchLimit:       10,
		LowStockListLimit: 10,
		OpenListLimit:     10,
		StageSearchLimit:  10,
		LeadLimit:         5,
		QuotationLimit:    10,
		Currency:          "USD",
	}
}

// Engine runs the read-only aggregations over the store. Every operation
// returns a QueryResult and never an error or a panic.
type Engine struct {
	store    storex.Store
	cfg      Config
	validate *validator.Validate
}

func New(store storex.Store, cfg Config) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultConfig().Currency
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Engine{
		store:    store,
		cfg:      cfg,
		validate: validate,
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// StageNames returns the pipeline stages ordered by sequence.
func (e *Engine) StageNames(ctx context.Context) ([]string, error) {
	stages, err := e.store.SearchStages(ctx, nil, storex.Page{Order: byStageOrder})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stages))
	for _, st := range stages {
		names = append(names, st.Name)
	}
	return names, nil
}

func (e *Engine) run(ctx context.Context, tool contractx.ToolID, fn func(ctx context.Context) (any, error)) (res contractx.QueryResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", string(tool)).Interface("panic", r).Msg("engine operation panicked")
			res = contractx.Failure(tool, contractx.KindDataAccess, fmt.Sprintf("internal failure while running %s", tool))
		}
	}()

	payload, err := fn(ctx)
	if err != nil {
		log.Warn().Err(err).Str("tool", string(tool)).Msg("engine operation failed")
		return contractx.FromError(tool, err)
	}
	return contractx.Success(tool, payload)
}

var byStageOrder = []storex.Order{
	storex.OrderBy(storex.FieldSequence, false),
	storex.OrderBy(storex.FieldID, false),
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
