// Package http exposes the admission and lifecycle operations over a JSON
// API. The transport carries no decision logic; every verdict comes from the
// gate evaluator, the signal generator, or the lifecycle engine.
package http

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sawpanic/tradegate/internal/diag"
	"github.com/sawpanic/tradegate/internal/engine"
	"github.com/sawpanic/tradegate/internal/metrics"
	"github.com/sawpanic/tradegate/internal/persistence"
	"github.com/sawpanic/tradegate/internal/signal"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	RateLimit    float64       `yaml:"rate_limit"`
	RateBurst    int           `yaml:"rate_burst"`
}

// DefaultServerConfig returns default server configuration. HTTP_PORT
// overrides the port.
func DefaultServerConfig() ServerConfig {
	port := 8080
	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		RateLimit:    50,
		RateBurst:    100,
	}
}

// Server wires the router, middleware, and handlers over the core engine.
type Server struct {
	router   *mux.Router
	server   *nethttp.Server
	handlers *Handlers
	config   ServerConfig
	limiter  *rate.Limiter
	metrics  *metrics.Registry
}

// Pinger reports storage connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer assembles the HTTP surface over the given core components.
func NewServer(config ServerConfig, gen *signal.Generator, eng *engine.Engine, store persistence.Store, recorder *diag.Recorder, reg *metrics.Registry, pinger Pinger) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(gen, eng, store, recorder, pinger),
		config:   config,
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		metrics:  reg,
	}
	s.setupRoutes()

	s.server = &nethttp.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/signals/evaluate", s.handlers.EvaluateSignal).Methods("POST")
	api.HandleFunc("/trades", s.handlers.OpenTrade).Methods("POST")
	api.HandleFunc("/trades/{id}/close", s.handlers.CloseTrade).Methods("POST")
	api.HandleFunc("/trades/{id}", s.handlers.GetTrade).Methods("GET")
	api.HandleFunc("/portfolios/{id}/trades", s.handlers.ListTrades).Methods("GET")
	api.HandleFunc("/evaluations/{symbol}/last", s.handlers.LastEvaluation).Methods("GET")

	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	s.router.NotFoundHandler = nethttp.HandlerFunc(s.handlers.NotFound)
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().
		Str("addr", s.server.Addr).
		Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
