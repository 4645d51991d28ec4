// Package server exposes chart storage, layout and export over HTTP.
//
// The collection endpoints serve the web editor: GET returns every chart
// and POST replaces the whole collection. Per-chart endpoints add reads,
// upserts, deletes, automatic layout, export and a minimap thumbnail.
//
//	GET    /health
//	GET    /api/organigrams
//	POST   /api/organigrams
//	GET    /api/organigrams/{id}
//	PUT    /api/organigrams/{id}
//	DELETE /api/organigrams/{id}
//	POST   /api/organigrams/{id}/layout
//	GET    /api/organigrams/{id}/export/{format}
//	GET    /api/organigrams/{id}/minimap.png
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/organigram/pkg/render"
	"github.com/matzehuels/organigram/pkg/session"
	"github.com/matzehuels/organigram/pkg/store"
)

// DefaultMaxBodyBytes bounds request bodies. Charts embed images as data
// URLs, so the limit is generous.
const DefaultMaxBodyBytes = 50 << 20

const shutdownTimeout = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAllowedOrigins sets the CORS origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithExporter sets the exporter used by the export endpoint.
func WithExporter(e *render.Exporter) Option {
	return func(s *Server) {
		if e != nil {
			s.exporter = e
		}
	}
}

// WithSessionOptions sets the editing options used for server-side layout.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) { s.sessionOpts = opts }
}

// Server serves the chart API backed by a store.
type Server struct {
	store       store.Store
	exporter    *render.Exporter
	sessionOpts []session.Option
	origins     []string
	maxBody     int64
	log         *log.Logger
}

// New creates a server over st.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:    st,
		exporter: render.NewExporter(nil, nil, 0),
		origins:  []string{"*"},
		maxBody:  DefaultMaxBodyBytes,
		log:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api/organigrams", func(r chi.Router) {
		r.Get("/", s.listCharts)
		r.Post("/", s.replaceCharts)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getChart)
			r.Put("/", s.putChart)
			r.Delete("/", s.deleteChart)
			r.Post("/layout", s.layoutChart)
			r.Get("/export/{format}", s.exportChart)
			r.Get("/minimap.png", s.minimapPNG)
		})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
