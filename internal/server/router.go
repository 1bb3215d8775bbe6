// Package server exposes leaderboard and game sessions over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tatianab/campus-life/internal/config"
	"github.com/tatianab/campus-life/internal/content"
	"github.com/tatianab/campus-life/internal/leaderboard"
	"github.com/tatianab/campus-life/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	engine   *gin.Engine
	db       *gorm.DB
	sessions *SessionManager
	log      *zap.Logger
}

// NewRouter builds the HTTP routes on top of db. Saves of server sessions
// live in the same database as the leaderboard.
func NewRouter(db *gorm.DB, catalog *content.Catalog, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	r := &Router{
		engine:   engine,
		db:       db,
		sessions: NewSessionManager(catalog, store.NewBlobRepository(db), log.Named("sessions")),
		log:      log,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		leaderboard.NewHandler(store.NewLeaderboardRepository(r.db), r.log.Named("leaderboard")).Register(v1)
		NewSessionHandler(r.sessions, r.log).Register(v1)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "route not found",
		})
	})
}

func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "sessions": r.sessions.Len()})
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// Server is the HTTP server with graceful shutdown.
type Server struct {
	http   *http.Server
	cfg    config.ServerConfig
	logger *zap.Logger
}

func NewServer(cfg config.ServerConfig, router *Router, logger *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      router.Handler(),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Start serves in the background. Listen errors arrive on the returned
// channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s.logger.Info("shutting down http server")
	return s.http.Shutdown(ctx)
}
