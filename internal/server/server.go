// Package server assembles the HTTP stack: Connect services, health and metrics endpoints,
// CORS and h2c.
package server

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	handler http.Handler
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps service.Deps, jwt *auth.JWTManager) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	ledger := service.NewLedger(deps)

	interceptors := connect.WithInterceptors(
		middleware.Observe(deps.Metrics),
		middleware.RequireAuth(jwt),
	)

	mux := http.NewServeMux()
	service.RegisterGroupService(mux, service.NewGroupService(ledger), interceptors)
	service.RegisterExpenseService(mux, service.NewExpenseService(ledger), interceptors)
	service.RegisterSettlementService(mux, service.NewSettlementService(ledger), interceptors)
	NewHealthHandler(time.Now()).Register(mux)
	mux.Handle("/metrics", deps.Metrics.Handler())

	// Connect needs HTTP/2 without TLS for streaming clients.
	handler := h2c.NewHandler(middleware.CORS(cfg.CORSOrigins, mux), &http2.Server{})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, handler: handler}
}

// Handler returns the root handler, for mounting in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
