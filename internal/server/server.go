// Package server exposes the dialogue engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourchat/internal/common/config"
	"tourchat/internal/common/logger"
	"tourchat/internal/orchestrator"
	"tourchat/internal/tourvisor"
)

// DetailsAPI serves the per-offer detail endpoints; satisfied by the
// inventory client.
type DetailsAPI interface {
	Actualize(ctx context.Context, tourID string) (*tourvisor.Actualization, error)
	FlightDetails(ctx context.Context, tourID string) (*tourvisor.FlightInfo, error)
	GetHotelDetails(ctx context.Context, hotelID int) (*tourvisor.HotelDetails, error)
}

type Server struct {
	engine  *orchestrator.Engine
	details DetailsAPI
	cfg     config.ServerConfig
	logger  logger.Logger
	http    *http.Server
}

func New(engine *orchestrator.Engine, details DetailsAPI, cfg config.ServerConfig, log logger.Logger) *Server {
	return &Server{
		engine:  engine,
		details: details,
		cfg:     cfg,
		logger:  log,
	}
}

// Router builds the gin handler tree.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(s.requestLogger())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat", s.handleChat)
		v1.GET("/tours/:tourId/actualize", s.handleActualize)
		v1.GET("/tours/:tourId/flight", s.handleFlight)
		v1.GET("/hotels/:hotelId", s.handleHotel)
	}

	return router
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server listening", map[string]interface{}{
		"addr": s.http.Addr,
	})

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestID tags every request for log correlation, honoring an inbound
// X-Request-ID from the channel gateway.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("Request handled", map[string]interface{}{
			"request_id":  c.GetString("request_id"),
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}
