// File: internal/server/server.go

// Package server exposes the agent over HTTP for callers that want runs as
// a service rather than a CLI invocation.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/provider"
)

// AgentRunner executes one task end to end. The CLI and the server share
// the same implementation; the server never reaches into the loop.
type AgentRunner interface {
	RunTask(ctx context.Context, req schemas.RunRequest) (*schemas.AgentResult, error)
}

// Server is the gin front end over an AgentRunner.
type Server struct {
	cfg    config.ServerConfig
	runner AgentRunner
	engine *gin.Engine
	logger *zap.Logger
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, runner AgentRunner, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{
		cfg:    cfg,
		runner: runner,
		engine: engine,
		logger: logger.Named("server"),
	}

	api := engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/run", s.handleRun)
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, schemas.HealthResponse{Status: "ok"})
}

func (s *Server) handleRun(c *gin.Context) {
	var req schemas.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	s.logger.Info("Run requested",
		zap.String("task", req.Task), zap.String("provider", req.Provider))

	// A budget cutoff returns a usable result with no error; only a run
	// that failed outright (provider error) maps to a 5xx.
	res, err := s.runner.RunTask(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("Run failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, schemas.RunResponse{
		Result:  res.Result,
		Steps:   res.Steps,
		Success: res.Success,
		Error:   res.Error,
	})
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ReadTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
