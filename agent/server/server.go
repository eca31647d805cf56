package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	chatx "github.com/tanpawarit/erp-insight-agent/agent/chat"
	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

type Config struct {
	Addr            string        `default:":8080"`
	Debug           bool          `default:"false"`
	ServiceName     string        `split_words:"true" default:"erp-insight-agent"`
	ReadTimeout     time.Duration `split_words:"true" default:"10s"`
	WriteTimeout    time.Duration `split_words:"true" default:"30s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	MaxBodyBytes    int64         `split_words:"true" default:"1048576" validate:"gte=1"`
	LivechatRate    float64       `split_words:"true" default:"2" validate:"gt=0"`
	LivechatBurst   int           `split_words:"true" default:"5" validate:"gte=1"`
	// AllowedOrigins lists extra origins, as scheme://host[:port], that may
	// open the livechat socket. Same-origin pages are always accepted.
	AllowedOrigins []string `split_words:"true"`
}

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Dispatcher contractx.Dispatcher
	Catalog    *toolx.Catalog
	Chat       *chatx.Service
}

type Server struct {
	cfg      Config
	deps     Deps
	engine   *gin.Engine
	upgrader *websocket.Upgrader
}

func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	if deps.Chat == nil {
		return nil, errors.New("chat service is required")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "erp-insight-agent"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.LivechatRate <= 0 {
		cfg.LivechatRate = 2
	}
	if cfg.LivechatBurst <= 0 {
		cfg.LivechatBurst = 5
	}

	s := &Server{cfg: cfg, deps: deps}
	s.upgrader = s.newUpgrader()
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if s.cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(s.cfg.ServiceName))
	router.Use(requestID())
	router.Use(accessLog())
	router.Use(limitBody(s.cfg.MaxBodyBytes))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/jsonrpc", s.jsonRPC)

	api := router.Group("/api")
	api.GET("/tools", s.listTools)
	api.GET("/tools/:id", s.describeTool)
	api.POST("/tools/:id", s.callTool)

	router.POST("/web/chat/send_message", s.sendMessage)
	router.GET("/ws/livechat", s.livechat)

	return router
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tools":  len(s.deps.Catalog.IDs()),
	})
}
