// Package http provides the HTTP adapter for the application layer.
// It is a thin layer that translates requests into service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-voucher/internal/application/service"
	"github.com/garyjia/travel-voucher/internal/application/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Services are the application services exposed over HTTP
type Services struct {
	Profiles  service.ProfileService
	Trips     service.TripService
	Mileage   service.MileageService
	Vouchers  service.VoucherService
	Lifecycle workflow.VoucherLifecycle
}

// HealthFunc reports overall health plus component details
type HealthFunc func() (healthy bool, details interface{})

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, health HealthFunc, logger Logger) *Server {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(services, health, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware logs one line per request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"user_id", c.GetString(userIDKey),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api", requireUser())
	{
		api.PUT("/profiles/:user_id", h.SaveProfile)
		api.GET("/profiles/:user_id", h.GetProfile)

		api.POST("/trips", h.RecordTrip)
		api.GET("/trips", h.ListTrips)
		api.POST("/mileage/resolve", h.ResolveMileage)

		api.GET("/mileage-rates", h.ListMileageRates)
		api.POST("/mileage-rates", h.AddMileageRate)

		api.POST("/vouchers", h.CreateVoucher)
		api.GET("/vouchers/:id", h.GetVoucher)
		api.GET("/vouchers/:id/trips", h.GetVoucherTrips)
		api.GET("/vouchers/:id/history", h.GetVoucherHistory)
		api.GET("/vouchers/:id/actions", h.GetVoucherActions)
		api.GET("/vouchers/:id/export", h.ExportVoucher)
		api.POST("/vouchers/:id/submit", h.SubmitVoucher)
		api.POST("/vouchers/:id/approve/first", h.ApproveFirst)
		api.POST("/vouchers/:id/approve/final", h.ApproveFinal)
		api.POST("/vouchers/:id/reject", h.RejectVoucher)
		api.POST("/vouchers/:id/reopen", h.ReopenVoucher)
		api.DELETE("/vouchers/:id", h.DeleteVoucher)
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", s.httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
