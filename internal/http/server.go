package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"loadash/internal/cache"
	"loadash/internal/core"
	applog "loadash/internal/log"
	"loadash/internal/middleware/ratelimit"
	"loadash/internal/middleware/security"
	"loadash/internal/middleware/trace"
	appweb "loadash/web"
)

// PageTitle is the dashboard header.
const PageTitle = "Comparativo de Orçamento & Investimento — LOA 2025 x 2026"

// Options configures a Server.
type Options struct {
	Addr    string
	Dataset *core.Dataset
	Labels  *core.LabelMap
	// Source describes where the dataset was loaded from.
	Source string
	Footer string
	Logger *applog.Logger

	ChartCacheSize     int
	ChartCacheTTL      time.Duration
	RateLimitPerMinute int
}

// Server serves the dashboard over one immutable Dataset.
type Server struct {
	http.Server

	ds        *core.Dataset
	labels    *core.LabelMap
	source    string
	footer    string
	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger

	svgCache   *cache.LRUCache[[]byte]
	cacheMgr   *cache.Manager
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	draining   atomic.Bool
	shutdownTO time.Duration
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Dataset == nil {
		return nil, errors.New("dataset is required")
	}
	if opts.Labels == nil {
		opts.Labels = core.DefaultLabels()
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.ChartCacheSize <= 0 {
		opts.ChartCacheSize = 256
	}
	if opts.ChartCacheTTL <= 0 {
		opts.ChartCacheTTL = 10 * time.Minute
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		ds:         opts.Dataset,
		labels:     opts.Labels,
		source:     opts.Source,
		footer:     opts.Footer,
		templates:  t,
		logger:     logger,
		events:     applog.NewStructuredLogger(opts.Logger),
		svgCache:   cache.NewLRUCache[[]byte](opts.ChartCacheSize, opts.ChartCacheTTL),
		cacheMgr:   cache.NewManager(logger.Logger),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:   security.NewDetector(logger.Logger),
		shutdownTO: 10 * time.Second,
	}
	s.cacheMgr.Register(s.svgCache)
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		s.tracer.Middleware,
		applog.Middleware(s.logger),
		applog.RequestIDMiddleware(trace.GetRequestIDFromRequest),
		middleware.Recoverer,
		s.detector.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		MethodNotAllowedError(http.MethodGet).Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/", s.handleIndex)
		r.Get("/ui/filters", s.handleFilters)
		r.Get("/api/chart", s.handleChartSpec)
		r.Get("/api/choices/subgroups", s.handleSubGroupChoices)
		r.Get("/api/choices/agencies", s.handleAgencyChoices)
		r.Get("/api/records", s.handleRecords)
	})

	// Rendering is the expensive path.
	r.With(s.limiter.Middleware(s.detector.ExtractClientIP, nil)).Get("/chart.svg", s.handleChartSVG)

	return r
}

// Run serves until ctx is cancelled, then drains connections. Cache and rate
// limiter housekeeping run alongside the listener.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)
	s.Server.BaseContext = func(net.Listener) context.Context { return egctx }

	eg.Go(func() error { return s.cacheMgr.Run(egctx, time.Minute) })
	eg.Go(func() error { return s.limiter.Run(egctx, 5*time.Minute) })

	eg.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String(), applog.FieldRows, s.ds.Len())
		if err := s.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		s.draining.Store(true)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTO)
		defer cancel()
		s.logger.Info("Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		return s.Server.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		ServiceUnavailableError("draining").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics writes counters in the Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	cs := s.svgCache.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	write := func(name, kind, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", name, help, name, kind, name, v)
	}
	write("loadash_dataset_records", "gauge", "Budget lines loaded at startup.", int64(s.ds.Len()))
	write("loadash_http_requests_total", "counter", "HTTP requests served.", tm.TotalRequests)
	write("loadash_http_server_errors_total", "counter", "HTTP responses with status 5xx.", tm.ServerErrors)
	write("loadash_http_response_time_avg_us", "gauge", "Mean response time in microseconds.", tm.AverageResponseTime)
	write("loadash_chart_cache_hits_total", "counter", "Rendered chart cache hits.", cs.Hits)
	write("loadash_chart_cache_misses_total", "counter", "Rendered chart cache misses.", cs.Misses)
	write("loadash_chart_cache_entries", "gauge", "Rendered charts currently cached.", int64(cs.Size))
	write("loadash_ratelimit_rejected_total", "counter", "Requests rejected by the rate limiter.", rl.Rejected)
	write("loadash_ratelimit_clients", "gauge", "Clients tracked by the rate limiter.", rl.ClientCount)
	write("loadash_security_suspicious_total", "counter", "Requests flagged as probes.", s.detector.GetMetrics().SuspiciousRequests)
}
