package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	nodex "github.com/tanpawarit/erp-insight-agent/agent/nodes/dispatch"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
	metricsx "github.com/tanpawarit/erp-insight-agent/pkg/metrics"
	tracingx "github.com/tanpawarit/erp-insight-agent/pkg/tracing"
)

type Config struct {
	MaxMessageLength int `split_words:"true" default:"2000" validate:"gte=1"`
}

// Dispatcher routes free text and direct calls to catalog tools. It keeps
// no per-request state and never returns a Go error to its callers.
type Dispatcher struct {
	catalog    *toolx.Catalog
	classifier nodex.Classifier
	extractor  nodex.ParamExtractor
	cfg        Config
	tracer     trace.Tracer

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

var _ contractx.Dispatcher = (*Dispatcher)(nil)

func New(
	catalog *toolx.Catalog,
	classifier nodex.Classifier,
	extractor nodex.ParamExtractor,
	cfg Config,
) (*Dispatcher, error) {
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	if extractor == nil {
		return nil, errors.New("param extractor is required")
	}

	d := &Dispatcher{
		catalog:    catalog,
		classifier: classifier,
		extractor:  extractor,
		cfg:        cfg,
		tracer:     tracingx.Tracer(),
		now:        time.Now,
	}

	graphRunner, err := d.compileHandleGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

func (d *Dispatcher) Catalog() *toolx.Catalog {
	return d.catalog
}

// Handle classifies text, extracts params and runs the matching tool.
// Text that matches no rule gets the help result.
func (d *Dispatcher) Handle(ctx context.Context, text string) contractx.QueryResult {
	ctx, span := d.tracer.Start(ctx, "dispatch.handle")
	defer span.End()
	started := d.now()

	out, err := d.graphRunner.Invoke(ctx, nodex.GraphInput{Text: text})
	if err != nil {
		log.Error().Err(err).Msg("dispatch graph failed")
		span.RecordError(err)
		out.Result = contractx.Failure(contractx.ToolHelp, contractx.KindOf(err), err.Error())
	}

	matched := out.Result.Tool != contractx.ToolHelp
	metricsx.IntentClassifications.WithLabelValues(string(out.Result.Tool), strconv.FormatBool(matched)).Inc()
	d.observe(span, out.Result, started)
	return out.Result
}

// CallByID runs a tool directly, skipping classification.
func (d *Dispatcher) CallByID(ctx context.Context, id contractx.ToolID, params map[string]any) contractx.QueryResult {
	ctx, span := d.tracer.Start(ctx, "dispatch.call_by_id", trace.WithAttributes(attribute.String("tool.requested", string(id))))
	defer span.End()
	started := d.now()

	res := d.safeExecute(ctx, id, toolx.Params(params))
	d.observe(span, res, started)
	return res
}

func (d *Dispatcher) safeExecute(ctx context.Context, id contractx.ToolID, params toolx.Params) (res contractx.QueryResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", string(id)).Interface("panic", r).Msg("tool handler panicked")
			res = contractx.Failure(id, contractx.KindDataAccess, fmt.Sprintf("internal failure while running %s", id))
		}
	}()
	return d.catalog.Execute(ctx, id, params)
}

func (d *Dispatcher) observe(span trace.Span, res contractx.QueryResult, started time.Time) {
	span.SetAttributes(
		attribute.String("tool", string(res.Tool)),
		attribute.String("status", string(res.Status)),
	)
	if !res.OK() {
		span.SetAttributes(attribute.String("error_kind", string(res.ErrorKind)))
		span.SetStatus(codes.Error, res.Message)
	}

	metricsx.ToolCalls.WithLabelValues(string(res.Tool), string(res.Status), string(res.ErrorKind)).Inc()
	metricsx.ToolCallDuration.WithLabelValues(string(res.Tool)).Observe(d.now().Sub(started).Seconds())

	log.Debug().
		Str("tool", string(res.Tool)).
		Str("status", string(res.Status)).
		Str("error_kind", string(res.ErrorKind)).
		Dur("elapsed", d.now().Sub(started)).
		Msg("tool call finished")
}
