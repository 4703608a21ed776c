package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server is the HTTP front of the assistant: health checks, Prometheus
// metrics and whatever API routes are mounted on it.
type Server struct {
	httpServer *http.Server
	port       int
	health     *HealthChecker
	routes     []func(*mux.Router)
	origins    []string
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithRoutes mounts API routes on the server's router
func WithRoutes(register func(r *mux.Router)) ServerOption {
	return func(s *Server) {
		s.routes = append(s.routes, register)
	}
}

// WithAllowedOrigins sets the CORS origins. Default is "*".
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates a server on port using health for its health endpoints
func NewServer(port int, health *HealthChecker, opts ...ServerOption) *Server {
	s := &Server{
		port:    port,
		health:  health,
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler builds the router wrapped in CORS
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health.HealthHandler()).Methods("GET")
	r.HandleFunc("/health/live", LivenessHandler()).Methods("GET")
	r.HandleFunc("/health/ready", s.health.ReadinessHandler()).Methods("GET")
	r.Handle("/metrics", MetricsHandler()).Methods("GET")

	for _, register := range s.routes {
		register(r)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(r)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
