package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/solsplash/service/faucet"
	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the version endpoint. Overridden at build time.
var Version = "dev"

// Flows groups the page flows the server exposes.
type Flows struct {
	Airdrop  *faucet.Airdrop
	Transfer *faucet.Transfer
	History  *faucet.History
	Signer   *faucet.Signer
}

// Server represents the HTTP server for the faucet.
type Server struct {
	addr     string
	session  *session.Session
	flows    Flows
	notifier notify.Notifier
	renderer *TemplateRenderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The renderer is optional - call WithTemplates to enable HTML pages.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, sess *session.Session, flows Flows, notifier notify.Notifier, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:     addr,
		session:  sess,
		flows:    flows,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// WithTemplates adds template rendering support to the server using embedded files
func (s *Server) WithTemplates() error {
	renderer, err := NewTemplateRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}
	s.renderer = renderer
	s.logger.Info("HTML templates loaded from embedded files")
	return nil
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Session routes
	s.handle(mux, "GET /api/v1/session", handleGetSession(s.session))
	s.handle(mux, "POST /api/v1/session/connect", handleConnect(s.session, s.logger))
	s.handle(mux, "POST /api/v1/session/disconnect", handleDisconnect(s.session, s.logger))
	s.handle(mux, "GET /api/v1/balance", handleGetBalance(s.session, s.logger))

	// Faucet action routes
	s.handle(mux, "POST /api/v1/airdrop", handleAirdrop(s.flows.Airdrop, s.logger))
	s.handle(mux, "POST /api/v1/transfer", handleTransfer(s.flows.Transfer, s.logger))
	s.handle(mux, "GET /api/v1/transactions", handleListTransactions(s.flows.History))
	s.handle(mux, "POST /api/v1/transactions/refresh", handleRefreshTransactions(s.flows.History, s.logger))
	s.handle(mux, "POST /api/v1/signature", handleSignMessage(s.flows.Signer, s.logger))
	s.handle(mux, "POST /api/v1/signature/verify", handleVerifySignature(s.flows.Signer, s.logger))

	// SSE streaming endpoint
	s.handle(mux, "GET /api/v1/stream/notifications", handleStreamNotifications(s.notifier, s.metrics, s.logger))

	// HTML pages (if template renderer is configured)
	if s.renderer != nil {
		pages := &pageHandlers{
			renderer: s.renderer,
			session:  s.session,
			flows:    s.flows,
			logger:   s.logger,
		}
		s.handle(mux, "GET /{$}", pages.home())
		s.handle(mux, "GET /airdrop", pages.airdrop())
		s.handle(mux, "POST /airdrop", pages.submitAirdrop())
		s.handle(mux, "GET /txns", pages.transactions())
		s.handle(mux, "POST /txns/transfer", pages.submitTransfer())
		s.handle(mux, "POST /txns/refresh", pages.refreshTransactions())
		s.handle(mux, "GET /signature", pages.signature())
		s.handle(mux, "POST /signature", pages.signMessage())
		s.handle(mux, "POST /signature/clear", pages.clearSignature())
		s.handle(mux, "POST /wallet/connect", pages.connect())
		s.handle(mux, "POST /wallet/disconnect", pages.disconnect())
		s.logger.Info("HTML page endpoints enabled")
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": Version}, http.StatusOK)
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS middleware
	return corsMiddleware(mux)
}

// handle registers h under pattern with request metrics labeled by the pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, pattern)(h))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// History refreshes pace their lookups and can take several seconds;
		// SSE streams clear this deadline for themselves.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	// Close the notifier first (ends all SSE streams)
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			s.logger.Warn("failed to close notifier", "error", err)
		}
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers for all requests
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
