package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/internal/location"
	"github.com/vzahanych/weather-advisor/internal/recommend"
	"github.com/vzahanych/weather-advisor/internal/server/handlers"
	"github.com/vzahanych/weather-advisor/internal/server/middlewares"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Server struct {
	cfg     config.ServerConfig
	engine  *gin.Engine
	server  *http.Server
	agg     *aggregator.Aggregator
	geo     *location.Service
	advisor *recommend.Engine
	metrics *middlewares.Metrics
	version string
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Aggregator *aggregator.Aggregator
	Location   *location.Service
	Engine     *recommend.Engine
	Metrics    *middlewares.Metrics
}

func NewServer(cfg *config.Config, deps Deps, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	metrics := deps.Metrics
	if metrics == nil {
		metrics = middlewares.NewMetrics()
	}

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, true))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(metrics.Handler())

	s := &Server{
		cfg:     cfg.Server,
		engine:  engine,
		agg:     deps.Aggregator,
		geo:     deps.Location,
		advisor: deps.Engine,
		metrics: metrics,
		version: cfg.Version,
		logger:  logger,
		tele:    tele,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	var limiter *rate.Limiter
	if rl := s.cfg.RateLimit; rl.Enabled {
		limiter = rate.NewLimiter(rate.Limit(rl.RPS), rl.Burst)
	}

	weatherHandler := handlers.NewWeatherHandler(s.agg, s.geo, s.logger)
	locationHandler := handlers.NewLocationHandler(s.geo, s.logger)
	recommendationHandler := handlers.NewRecommendationHandler(s.advisor, s.agg, s.metrics, s.logger)
	healthHandler := handlers.NewHealthHandler(s.agg, s.version, s.logger)

	// Business endpoints
	api := s.engine.Group("/api", middlewares.RateLimitMiddleware(limiter, s.metrics))
	{
		api.GET("/location/auto", locationHandler.AutoDetect)
		api.GET("/location/search", locationHandler.Search)

		api.GET("/weather/current", weatherHandler.GetCurrent)
		api.GET("/weather/forecast", weatherHandler.GetForecast)
		api.GET("/weather/air-quality", weatherHandler.GetAirQuality)

		api.GET("/recommendations/agriculture", recommendationHandler.Agriculture)
		api.GET("/recommendations/travel", recommendationHandler.Travel)
		api.POST("/recommendations/:persona/evaluate", recommendationHandler.Evaluate)
	}

	// Health endpoints (Kubernetes friendly)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/health/live", healthHandler.Liveness)
	s.engine.GET("/health/ready", healthHandler.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", handlers.NewMetricsHandler(s.metrics.Exposition()).ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		return s.Shutdown()
	}
}

func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
