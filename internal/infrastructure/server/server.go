package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	api "github.com/GriffinCanCode/AgentOS/ipcd/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/ipcd/internal/ws"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	manager *process.Manager
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	logger.Info("Initializing ipcd",
		zap.String("addr", cfg.Addr()),
		zap.Int("pipe_capacity", cfg.Kernel.PipeCapacity),
		zap.Int("max_fds", cfg.Kernel.MaxFDs),
		zap.Int("max_events", cfg.Kernel.MaxEvents),
	)

	corsMW, err := middleware.CORS(cfg.Server.CORSOrigins)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics()

	manager := process.NewManager(process.Limits{
		PipeCapacity: cfg.Kernel.PipeCapacity,
		MaxFDs:       cfg.Kernel.MaxFDs,
		MaxEvents:    cfg.Kernel.MaxEvents,
	}, logger.Subsystem("sys")).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Subsystem("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(corsMW)
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))

		if g := cfg.RateLimit.GlobalRPS; g > 0 {
			router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{RequestsPerSecond: g, Burst: g}))
		}
	}

	handlers := api.NewHandlers(manager, metrics, logger.Subsystem("api"), cfg.Kernel.MaxEvents)
	wsHandler := ws.NewHandler(manager, metrics, logger.Subsystem("ws"))
	registerRoutes(router, handlers, wsHandler, metrics, logger)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		manager: manager,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           compress(router),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func registerRoutes(router *gin.Engine, h *api.Handlers, wsHandler *ws.Handler, metrics *monitoring.Metrics, logger *logging.Logger) {
	router.GET("/health", h.Health)
	router.GET("/stats", h.Stats)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/log/level", gin.WrapH(logger.LevelHandler()))
	router.PUT("/log/level", gin.WrapH(logger.LevelHandler()))

	// Named FIFOs
	router.GET("/fifos", h.ListFifos)
	router.POST("/fifos", h.Mkfifo)
	router.DELETE("/fifos", h.Unlink)

	// Processes
	router.POST("/processes", h.CreateProcess)
	router.GET("/processes", h.ListProcesses)
	router.GET("/processes/:pid", h.GetProcess)
	router.DELETE("/processes/:pid", h.KillProcess)

	// Pipes and descriptors
	router.POST("/processes/:pid/pipe", h.Pipe)
	router.POST("/processes/:pid/open", h.Open)
	router.POST("/processes/:pid/fds/:fd/read", h.Read)
	router.POST("/processes/:pid/fds/:fd/write", h.Write)
	router.POST("/processes/:pid/fds/:fd/fcntl", h.Fcntl)
	router.DELETE("/processes/:pid/fds/:fd", h.Close)
	router.GET("/processes/:pid/fds/:fd/stream", wsHandler.HandleStream)

	// Epoll
	router.POST("/processes/:pid/epoll", h.EpollCreate)
	router.GET("/processes/:pid/epoll/:epfd", h.EpollList)
	router.POST("/processes/:pid/epoll/:epfd/ctl", h.EpollCtl)
	router.POST("/processes/:pid/epoll/:epfd/wait", h.EpollWait)
}

// compress gzips responses for clients that accept it. WebSocket upgrades
// need the raw writer for hijacking and bypass the wrapper.
func compress(h http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the full HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Manager returns the process manager.
func (s *Server) Manager() *process.Manager {
	return s.manager
}

// Run listens on the configured address and serves until Shutdown is called
// or the listener fails.
func (s *Server) Run() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(l)
}

// Serve serves on an existing listener, capped at the configured number of
// concurrent connections.
func (s *Server) Serve(l net.Listener) error {
	if n := s.config.Server.MaxConns; n > 0 {
		l = netutil.LimitListener(l, n)
	}

	s.logger.Info("Starting HTTP server",
		zap.String("addr", l.Addr().String()),
		zap.Int("max_conns", s.config.Server.MaxConns),
	)
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, then kills every process so requests
// blocked in a pipe are released.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.http.Shutdown(ctx) }()

	s.manager.Shutdown()

	err := <-done
	if err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
		err = fmt.Errorf("failed to shut down http server: %w", err)
	}

	_ = s.logger.Sync()
	return err
}
