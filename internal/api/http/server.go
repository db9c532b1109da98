package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gestureflow/client/internal/api/middleware"
	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
)

// ServerConfig holds the bridge server configuration.
type ServerConfig struct {
	Host      string
	Port      string
	CORS      middleware.CORSConfig
	RateLimit middleware.RateLimitConfig
}

// Server is the bridge HTTP server.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *logging.Logger
}

// NewServer assembles the gin engine: middleware, REST routes, metrics,
// and optionally the WebSocket route. The ws handler is injected so the
// hub can live in its own package while sharing this server.
func NewServer(cfg ServerConfig, handlers *Handlers, wsHandler gin.HandlerFunc, logger *logging.Logger, metrics *monitoring.Metrics) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(cfg.CORS))
	if cfg.RateLimit.RequestsPerSecond > 0 {
		engine.Use(middleware.RateLimit(cfg.RateLimit))
	}
	if metrics != nil {
		engine.Use(monitoring.Middleware(metrics))
	}

	engine.GET("/health", handlers.Health)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			metrics.Registry(), promhttp.HandlerOpts{})))
	}

	engine.GET("/state", handlers.State)
	engine.POST("/navigate", handlers.Navigate)
	engine.POST("/camera/start", handlers.StartCamera)
	engine.POST("/camera/stop", handlers.StopCamera)
	engine.POST("/camera/restart", handlers.RestartCamera)
	engine.POST("/whiteboard/stroke_size", handlers.SetStrokeSize)
	engine.POST("/games/:game/select", handlers.SelectGame)
	engine.POST("/games/:game/reset", handlers.ResetGame)
	engine.POST("/presentation/upload", handlers.UploadPresentation)
	engine.POST("/presentation/action", handlers.PresentationAction)
	engine.GET("/community/games", handlers.CommunityGames)
	engine.POST("/community/games", handlers.PublishScore)
	engine.GET("/auth/check", handlers.CheckAuth)
	engine.POST("/auth/login", handlers.Login)
	engine.POST("/auth/register", handlers.Register)
	engine.POST("/auth/logout", handlers.Logout)

	if wsHandler != nil {
		engine.GET("/ws", wsHandler)
	}

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.Named("bridge"),
	}
}

// Engine exposes the underlying router, mainly for httptest.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("bridge listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
