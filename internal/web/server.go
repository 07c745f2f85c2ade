// Package web exposes the terminal's JSON API: the sale flow, the active
// rental list, the expiry alert board, and the cash-session passthrough.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/funhour/posd/internal/domain"
	"github.com/funhour/posd/internal/sale"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// saleFinalizer is the subset of sale.Composer the server requires.
type saleFinalizer interface {
	Finalize(ctx context.Context, order sale.Order) (*sale.Result, error)
}

// rentalLister is the subset of rental.Tracker the server requires.
type rentalLister interface {
	Active() []domain.Rental
}

// alertBoard is the subset of alert.Presenter the server requires.
type alertBoard interface {
	Pending() []domain.Rental
	Acknowledge(index int) error
}

// venueBackend is the subset of backend.Client the server calls directly.
type venueBackend interface {
	Products(ctx context.Context) ([]domain.Product, error)
	CashSession(ctx context.Context, cashierEmail string) (*domain.CashSession, error)
	OpenCash(ctx context.Context, session domain.CashSession) (string, error)
	CloseCash(ctx context.Context, sessionID string, amount float64, closedAt int64) error
	PrintCashReport(ctx context.Context, cashierName, cashierEmail, cashID string) error
}

type Server struct {
	composer     saleFinalizer
	tracker      rentalLister
	alerts       alertBoard
	backend      venueBackend
	cashierEmail string
	cashierName  string
	mux          *http.ServeMux
	logger       *slog.Logger
}

func NewServer(
	composer saleFinalizer,
	tracker rentalLister,
	alerts alertBoard,
	backend venueBackend,
	cashierEmail, cashierName string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		composer:     composer,
		tracker:      tracker,
		alerts:       alerts,
		backend:      backend,
		cashierEmail: cashierEmail,
		cashierName:  cashierName,
		mux:          http.NewServeMux(),
		logger:       logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/sales", s.handleCreateSale)
	s.mux.HandleFunc("GET /api/products", s.handleListProducts)
	s.mux.HandleFunc("GET /api/services", s.handleListServices)
	s.mux.HandleFunc("GET /api/rentals", s.handleListRentals)
	s.mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	s.mux.HandleFunc("POST /api/alerts/{index}/ack", s.handleAcknowledgeAlert)
	s.mux.HandleFunc("GET /api/cash", s.handleGetCash)
	s.mux.HandleFunc("POST /api/cash/open", s.handleOpenCash)
	s.mux.HandleFunc("POST /api/cash/close", s.handleCloseCash)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("starting server", "addr", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
