// Package server exposes the render pipeline over a small JSON API so
// hosts and tooling can preview, detect and export content over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/logging"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/render"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Addr is the listen address.
	Addr string

	// RateLimit caps requests per second; 0 disables limiting.
	RateLimit float64

	// RateBurst is the token bucket depth when limiting is enabled.
	RateBurst int

	// Theme is the palette used when a request carries none.
	Theme types.Theme
}

// Server serves the preview API over a render pipeline.
type Server struct {
	pipeline *render.Pipeline
	store    types.StateStore
	theme    types.Theme
	limiter  *rate.Limiter
	addr     string
	logger   zerolog.Logger
}

// New creates a Server. store may be nil; render requests then run
// stateless.
func New(pipeline *render.Pipeline, store types.StateStore, opts Options) *Server {
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	theme := opts.Theme
	if theme.Background == "" {
		theme = types.DefaultTheme()
	}

	return &Server{
		pipeline: pipeline,
		store:    store,
		theme:    theme,
		limiter:  limiter,
		addr:     opts.Addr,
		logger:   logging.GetLogger("server"),
	}
}

// Handler returns the complete handler chain: CORS, request logging,
// rate limiting, then the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/views", s.handleViews)
	mux.HandleFunc("POST /api/detect", s.handleDetect)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("POST /api/export", s.handleExport)

	handler := s.withRateLimit(mux)
	handler = s.withLogging(handler)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Length", "Content-Type"},
	})
	return c.Handler(handler)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, errors.ErrInternal, "server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "server shutdown")
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
