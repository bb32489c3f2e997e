package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nisc/LLM-output-scrub/config"
	"github.com/nisc/LLM-output-scrub/database"
	"github.com/nisc/LLM-output-scrub/nlp"
	"github.com/nisc/LLM-output-scrub/scrub"
	"github.com/nisc/LLM-output-scrub/web/handlers"
	"github.com/nisc/LLM-output-scrub/web/middleware"
)

type Server struct {
	router   *gin.Engine
	scrubber *scrub.Scrubber
	limiter  *middleware.ClientRateLimiter
	logger   *zap.Logger
	config   *config.Config
}

// NewServer wires the router, middleware and API handlers. store may be
// nil when no database is configured.
func NewServer(scrubber *scrub.Scrubber, stats *nlp.Stats, store *database.DecisionStore, cfg *config.Config, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		c.Set("logger", logger)
		c.Next()
	})

	limiter := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		RequestsPerMinute: 60,
		BurstSize:         10,
		CleanupInterval:   10 * time.Minute,
	}, logger)

	server := &Server{
		router:   router,
		scrubber: scrubber,
		limiter:  limiter,
		logger:   logger,
		config:   cfg,
	}

	server.setupRoutes(stats, store)
	return server
}

func (s *Server) setupRoutes(stats *nlp.Stats, store *database.DecisionStore) {
	h := handlers.NewScrubHandler(s.scrubber, stats, store, s.config, s.logger)

	s.router.GET("/healthz", h.Health)

	api := s.router.Group("/api")
	api.POST("/scrub", middleware.RateLimitMiddleware(s.limiter), h.Scrub)
	api.GET("/stats", h.Stats)
	api.GET("/categories", h.Categories)
	api.PUT("/categories/:name", h.SetCategory)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	s.limiter.Stop()
	return srv.Shutdown(context.Background())
}
