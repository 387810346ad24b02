// Package viewer serves the single-page company similarity viewer and its
// JSON API.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/companysim/cosim/internal/catalog"
	"github.com/companysim/cosim/internal/missing"
	"github.com/companysim/cosim/internal/similarity"
	"github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 5 * time.Second

// ErrNoRawData is returned by the missing-value report when no raw
// spreadsheet is configured.
var ErrNoRawData = errors.New("raw data not configured")

// ReportFunc produces the missing-value report of the raw spreadsheet.
type ReportFunc func() (missing.Report, error)

// Options configures a Server.
type Options struct {
	Addr        string
	DefaultTopN int
	MaxTopN     int
	RateLimit   float64 // requests per second per client, 0 disables
	RateBurst   int
	// Report is called at most once, on the first request for /missing.
	Report ReportFunc
}

// Server is the HTTP viewer over one similarity service.
type Server struct {
	svc     *similarity.Service
	catalog *catalog.DB
	opts    Options
	log     logrus.FieldLogger
	metrics *Metrics
	limiter *clientLimiter
	report  func() (missing.Report, error)
	handler http.Handler
}

// New creates a server. The catalog must already hold the service's records.
func New(svc *similarity.Service, cat *catalog.DB, opts Options, log logrus.FieldLogger) (*Server, error) {
	if opts.MaxTopN < 1 {
		return nil, fmt.Errorf("max top n must be positive, got %d", opts.MaxTopN)
	}
	if opts.DefaultTopN < 1 || opts.DefaultTopN > opts.MaxTopN {
		return nil, fmt.Errorf("default top n %d outside 1..%d", opts.DefaultTopN, opts.MaxTopN)
	}

	s := &Server{
		svc:     svc,
		catalog: cat,
		opts:    opts,
		log:     log,
		metrics: NewMetrics(),
	}
	if opts.RateLimit > 0 {
		s.limiter = newClientLimiter(opts.RateLimit, opts.RateBurst)
	}

	report := opts.Report
	if report == nil {
		report = func() (missing.Report, error) { return missing.Report{}, ErrNoRawData }
	}
	s.report = sync.OnceValues(report)

	s.metrics.companies.Set(float64(svc.Len()))
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// UI
	mux.Handle("GET /{$}", s.instrument("index", s.handleIndex))
	mux.Handle("GET /missing", s.instrument("missing", s.handleMissing))

	// API
	mux.Handle("GET /api/similar", s.instrument("api_similar", s.handleAPISimilar))
	mux.Handle("GET /api/query", s.instrument("api_query", s.handleAPIQuery))
	mux.Handle("GET /api/companies", s.instrument("api_companies", s.handleAPICompanies))
	mux.Handle("GET /api/missing", s.instrument("api_missing", s.handleAPIMissing))
	mux.Handle("GET /api/health", s.instrument("health", s.handleHealth))
	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.recoverMiddleware(s.loggingMiddleware(s.rateLimitMiddleware(mux)))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// ListenAndServe serves on opts.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.WithFields(logrus.Fields{
		"addr":      ln.Addr().String(),
		"companies": s.svc.Len(),
		"metric":    s.svc.Metric(),
	}).Info("viewer listening")

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(&countingListener{Listener: ln, count: s.metrics.openConns})
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.log.Info("viewer stopped")

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
