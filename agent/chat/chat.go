package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	formatx "github.com/tanpawarit/erp-insight-agent/agent/format"
	metricsx "github.com/tanpawarit/erp-insight-agent/pkg/metrics"
)

const (
	ChannelAPI      = "api"
	ChannelWeb      = "web"
	ChannelLivechat = "livechat"
	ChannelCLI      = "cli"
)

type Config struct {
	Insight bool `default:"true"`
}

// Response is what chat consumers see. Result keeps the structured outcome
// for callers that need it and is never serialized.
type Response struct {
	Success  bool                  `json:"success"`
	Response string                `json:"response"`
	Result   contractx.QueryResult `json:"-"`
}

type Service struct {
	dispatcher contractx.Dispatcher
	formatter  *formatx.Formatter
	router     contractx.Router
	insighter  contractx.Insighter
	cfg        Config
}

type Option func(*Service)

// WithRouter lets unmatched messages be routed by a language model.
func WithRouter(r contractx.Router) Option {
	return func(s *Service) {
		s.router = r
	}
}

func WithInsighter(i contractx.Insighter) Option {
	return func(s *Service) {
		s.insighter = i
	}
}

func New(dispatcher contractx.Dispatcher, formatter *formatx.Formatter, cfg Config, opts ...Option) (*Service, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if formatter == nil {
		formatter = formatx.New(formatx.Config{})
	}
	s := &Service{dispatcher: dispatcher, formatter: formatter, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type channelKey struct{}

// WithChannel tags ctx with the transport a message came from.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey{}, channel)
}

func channelFrom(ctx context.Context) string {
	if v, ok := ctx.Value(channelKey{}).(string); ok && v != "" {
		return v
	}
	return ChannelAPI
}

// Reply answers one chat message. Store failures are reported as
// unsuccessful with a polite sentence; every other outcome is a success.
func (s *Service) Reply(ctx context.Context, message string) Response {
	text := StripHTML(message)
	resp := s.reply(ctx, text)
	metricsx.ChatMessages.WithLabelValues(channelFrom(ctx), strconv.FormatBool(resp.Success)).Inc()
	return resp
}

func (s *Service) reply(ctx context.Context, text string) Response {
	res := s.dispatcher.Handle(ctx, text)

	if res.OK() && res.Tool == contractx.ToolHelp && s.router != nil && text != "" {
		routed, reply, ok := s.route(ctx, text)
		if reply != "" {
			return Response{Success: true, Response: reply, Result: res}
		}
		if ok {
			res = routed
		}
	}

	out := s.formatter.Narrative(res)
	if res.OK() && res.Tool != contractx.ToolHelp && s.insighter != nil && s.cfg.Insight {
		if insight, err := s.insighter.Insight(ctx, text, res); err != nil {
			log.Warn().Err(err).Str("tool", string(res.Tool)).Msg("insight skipped")
		} else {
			out = strings.TrimRight(out, "\n") + "\n\n" + insight
		}
	}

	return Response{
		Success:  res.OK() || res.ErrorKind != contractx.KindDataAccess,
		Response: out,
		Result:   res,
	}
}

// route asks the model for a tool. A failed or unusable decision leaves
// the help result in place.
func (s *Service) route(ctx context.Context, text string) (contractx.QueryResult, string, bool) {
	decision, err := s.router.Route(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("llm routing failed, keeping help reply")
		return contractx.QueryResult{}, "", false
	}
	if decision.Tool == "" {
		return contractx.QueryResult{}, strings.TrimSpace(decision.Reply), false
	}

	log.Debug().Str("tool", string(decision.Tool)).Msg("llm routed message")
	return s.dispatcher.CallByID(ctx, decision.Tool, decision.Params), "", true
}
