package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	chatx "github.com/tanpawarit/erp-insight-agent/agent/chat"
	dispatchx "github.com/tanpawarit/erp-insight-agent/agent/dispatch"
	enginex "github.com/tanpawarit/erp-insight-agent/agent/engine"
	formatx "github.com/tanpawarit/erp-insight-agent/agent/format"
	intentx "github.com/tanpawarit/erp-insight-agent/agent/intent"
	llmx "github.com/tanpawarit/erp-insight-agent/agent/llm"
	promptx "github.com/tanpawarit/erp-insight-agent/agent/prompt"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
	configx "github.com/tanpawarit/erp-insight-agent/pkg/config"
	"github.com/tanpawarit/erp-insight-agent/pkg/database"
	tracingx "github.com/tanpawarit/erp-insight-agent/pkg/tracing"
)

// settings groups every config section, one env prefix each.
type settings struct {
	DB       database.Config
	Engine   enginex.Config
	Intent   intentx.Config
	Dispatch dispatchx.Config
	Format   formatx.Config
	Chat     chatx.Config
	LLM      llmx.Config
	Trace    tracingx.Config
}

func section[T any](prefix string, dst *T, err *error) {
	if *err != nil {
		return
	}
	conf, e := configx.New[T](prefix)
	if e != nil {
		*err = e
		return
	}
	*dst = *conf
}

func loadSettings() (*settings, error) {
	var s settings
	var err error
	section("DB", &s.DB, &err)
	section("ENGINE", &s.Engine, &err)
	section("INTENT", &s.Intent, &err)
	section("DISPATCH", &s.Dispatch, &err)
	section("FORMAT", &s.Format, &err)
	section("CHAT", &s.Chat, &err)
	section("LLM", &s.LLM, &err)
	section("TRACE", &s.Trace, &err)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// app is the wired object graph shared by the commands.
type app struct {
	settings   *settings
	store      storex.Store
	engine     *enginex.Engine
	catalog    *toolx.Catalog
	dispatcher *dispatchx.Dispatcher
	formatter  *formatx.Formatter
	chat       *chatx.Service

	closers []func(context.Context) error
}

type buildOptions struct {
	withLLM   bool
	traceOut  io.Writer
	styleHint string
}

func buildApp(ctx context.Context, s *settings, opts buildOptions) (*app, error) {
	a := &app{settings: s}

	if opts.traceOut != nil {
		shutdown, err := tracingx.Init(ctx, s.Trace, opts.traceOut)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, shutdown)
	}

	st, closeStore, err := database.NewStore(ctx, s.DB)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, func(context.Context) error { return closeStore() })

	if a.engine, err = enginex.New(st, s.Engine); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if a.catalog, err = enginex.BuildCatalog(a.engine); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	classifier := intentx.NewClassifier()
	extractor := intentx.NewExtractor(s.Intent, a.engine)
	if a.dispatcher, err = dispatchx.New(a.catalog, classifier, extractor, s.Dispatch); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	formatCfg := s.Format
	if opts.styleHint != "" {
		formatCfg.Style = opts.styleHint
	}
	a.formatter = formatx.New(formatCfg)

	var chatOpts []chatx.Option
	if opts.withLLM {
		chatOpts = a.assistantOptions(ctx)
	}
	if a.chat, err = chatx.New(a.dispatcher, a.formatter, s.Chat, chatOpts...); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	log.Debug().
		Str("driver", s.DB.Driver).
		Int("tools", len(a.catalog.IDs())).
		Bool("llm", s.LLM.Enabled && opts.withLLM).
		Msg("application wired")
	return a, nil
}

// assistantOptions wires the optional LLM helpers. They are best effort:
// a broken setup is logged and the chat runs without them.
func (a *app) assistantOptions(ctx context.Context) []chatx.Option {
	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		log.Warn().Err(err).Msg("llm assistant disabled")
		return nil
	}
	assistant, err := llmx.NewAssistant(ctx, a.settings.LLM, a.catalog.ToolInfos(), prompts)
	if err != nil {
		log.Warn().Err(err).Msg("llm assistant disabled")
		return nil
	}

	var opts []chatx.Option
	if assistant.Router != nil {
		opts = append(opts, chatx.WithRouter(assistant.Router))
	}
	if assistant.Insighter != nil {
		opts = append(opts, chatx.WithInsighter(assistant.Insighter))
	}
	return opts
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
