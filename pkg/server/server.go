// Package server exposes batch runs and stored packs over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/autoapply/autoapply/pkg/batch"
	"github.com/autoapply/autoapply/pkg/pack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// OwnerHeader carries the already-authenticated caller identity.
const OwnerHeader = "X-Owner-ID"

const shutdownTimeout = 10 * time.Second

// PacksService is what the handlers need from the batch layer.
type PacksService interface {
	CreatePack(ctx context.Context, ownerID string, identifiers []string) (p pack.ApplicationPack, err error)
	GetPack(ctx context.Context, id string) (p pack.ApplicationPack, err error)
}

// CreatePackRequest is the POST /packs body.
type CreatePackRequest struct {
	Identifiers []string `json:"identifiers"`
}

// Server routes HTTP requests to the batch service.
type Server struct {
	service PacksService
	logger  *zap.Logger
	router  *gin.Engine
}

// New builds the router.
func New(service PacksService, logger *zap.Logger) (s *Server) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s = &Server{service: service, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", OwnerHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/packs", s.createPack)
	r.GET("/packs/:id", s.getPack)

	s.router = r
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() (h http.Handler) {
	h = s.router
	return h
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) (err error) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
			return err
		}
		err = errors.Wrap(err, "server failed")
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		err = errors.Wrap(err, "failed to shut down server")
		return err
	}

	return err
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createPack is POST /packs.
func (s *Server) createPack(c *gin.Context) {
	ownerID := c.GetHeader(OwnerHeader)
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": OwnerHeader + " header is required"})
		return
	}

	var req CreatePackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}

	p, err := s.service.CreatePack(c.Request.Context(), ownerID, req.Identifiers)
	if err != nil {
		switch {
		case batch.IsPrecondition(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
		default:
			s.logger.Error("failed to create application pack", zap.String("owner_id", ownerID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create application pack: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, p)
}

// getPack is GET /packs/:id. Packs owned by someone other than the caller
// are reported as missing.
func (s *Server) getPack(c *gin.Context) {
	ownerID := c.GetHeader(OwnerHeader)
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": OwnerHeader + " header is required"})
		return
	}

	id := c.Param("id")

	p, err := s.service.GetPack(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pack.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "application pack not found"})
			return
		}
		s.logger.Error("failed to load application pack", zap.String("pack_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load application pack: " + err.Error()})
		return
	}

	if ownerID != p.OwnerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "application pack not found"})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (s *Server) requestLogger() (h gin.HandlerFunc) {
	h = func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return h
}
