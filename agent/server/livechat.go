package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	chatx "github.com/tanpawarit/erp-insight-agent/agent/chat"
	metricsx "github.com/tanpawarit/erp-insight-agent/pkg/metrics"
)

const slowDownReply = "Vas muy rápido. Espera un momento antes de enviar otro mensaje."

func (s *Server) newUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts clients that send no Origin, same-origin pages and
// origins listed in AllowedOrigins. "*" allows any origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		allowed = strings.TrimRight(strings.TrimSpace(allowed), "/")
		if allowed == "*" || strings.EqualFold(allowed, u.Scheme+"://"+u.Host) {
			return true
		}
	}
	return false
}

type livechatFrame struct {
	Message *string `json:"message"`
}

// livechat answers each {message} frame with a {success, response} frame.
// Frames beyond the per-connection rate are answered without dispatching.
func (s *Server) livechat(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("origin", c.GetHeader("Origin")).Msg("livechat upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.cfg.MaxBodyBytes)

	metricsx.LivechatConnections.Inc()
	defer metricsx.LivechatConnections.Dec()

	ctx := chatx.WithChannel(c.Request.Context(), chatx.ChannelLivechat)
	limiter := rate.NewLimiter(rate.Limit(s.cfg.LivechatRate), s.cfg.LivechatBurst)
	requestID := c.GetString(ctxRequestID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("request_id", requestID).Msg("livechat connection dropped")
			}
			return
		}

		var resp chatx.Response
		var frame livechatFrame
		switch {
		case json.Unmarshal(data, &frame) != nil || frame.Message == nil:
			resp = chatx.Response{Success: false, Response: invalidChatReply}
		case !limiter.Allow():
			resp = chatx.Response{Success: false, Response: slowDownReply}
		default:
			resp = s.deps.Chat.Reply(ctx, *frame.Message)
		}

		if err := conn.WriteJSON(resp); err != nil {
			log.Warn().Err(err).Str("request_id", requestID).Msg("livechat write failed")
			return
		}
	}
}
