package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/config"
	"github.com/vitos/stratofi/internal/domain"
	"github.com/vitos/stratofi/internal/infrastructure/metrics"
)

// StatsService is the aggregation layer as seen by the HTTP boundary.
type StatsService interface {
	FetchVaultEntries(ctx context.Context) []domain.VaultEntry
	FetchPlatformSnapshot(ctx context.Context) domain.PlatformSnapshot
	FetchDashboard(ctx context.Context) domain.Dashboard
	FetchSingleQuote(ctx context.Context, assetID string) (domain.AssetQuote, error)
}

type Server struct {
	router         *http.ServeMux
	server         *http.Server
	service        StatsService
	limiter        *RateLimiter
	cors           *CORSMiddleware
	upgrader       websocket.Upgrader
	streamInterval time.Duration
	logger         *zap.Logger
	timeNow        func() time.Time
}

func NewServer(cfg config.ServerConfig, service StatsService, logger *zap.Logger) *Server {
	rps := cfg.RateLimit.RequestsPerSecond
	if cfg.RateLimit.Disabled {
		rps = 0
	}
	s := &Server{
		router:         http.NewServeMux(),
		service:        service,
		limiter:        NewRateLimiter(rps, cfg.RateLimit.Burst),
		cors:           NewCORSMiddleware(cfg.AllowedOrigins),
		streamInterval: cfg.StreamInterval,
		logger:         logger,
		timeNow:        time.Now,
	}
	if s.streamInterval <= 0 {
		s.streamInterval = 15 * time.Second
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.cors.CheckOrigin,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Aggregated data
	s.router.HandleFunc("GET /api/vaults", s.handleVaults)
	s.router.HandleFunc("GET /api/stats", s.handleStats)

	// Price proxy
	s.router.HandleFunc("GET /api/crypto-price/{tokenId}", s.handleCryptoPrice)

	// Liveness
	s.router.HandleFunc("GET /api/health", s.handleHealth)

	// Live dashboard
	s.router.HandleFunc("GET /api/stream", s.handleStream)

	s.router.Handle("GET /metrics", metrics.Handler())
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = s.limiter.Handler(h)
	h = s.cors.Handler(h)
	h = MetricsMiddleware(h)
	h = LoggingMiddleware(s.logger)(h)
	return h
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	s.limiter.StartCleanup(10 * time.Minute)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.StopCleanup()
	return s.server.Shutdown(ctx)
}
