package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_agent_tool_calls_total",
			Help: "Total number of tool calls by outcome",
		},
		[]string{"tool", "status", "error_kind"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erp_agent_tool_call_duration_seconds",
			Help:    "Duration of tool calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	IntentClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_agent_intent_classifications_total",
			Help: "Free-text messages by classified tool",
		},
		[]string{"tool", "matched"},
	)

	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_agent_chat_messages_total",
			Help: "Chat messages handled per channel",
		},
		[]string{"channel", "success"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_agent_llm_requests_total",
			Help: "Calls to the language model by component and outcome",
		},
		[]string{"component", "outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erp_agent_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	LivechatConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "erp_agent_livechat_connections",
			Help: "Open livechat websocket connections",
		},
	)
)
