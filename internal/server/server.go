// Package server provides the HTTP server and handlers.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bryan-buckman/recallfinder/internal/letters"
	"github.com/bryan-buckman/recallfinder/internal/logger"
	"github.com/bryan-buckman/recallfinder/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Service is the subset of letters.Service the handlers use.
type Service interface {
	Manufacturers(ctx context.Context, year int, order letters.SortOrder) (*letters.ManufacturerListing, error)
	Versions(ctx context.Context, year int, manufacturers []string) ([]model.Version, error)
	Download(ctx context.Context, year int, manufacturer, version string) (*letters.Document, error)
	CachedYears() int
}

// Options configures the server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MetricsPath mounts the prometheus handler when non-empty.
	MetricsPath string
	// Warmer is started and stopped with the server when set.
	Warmer *letters.Warmer
	// Now overrides the clock used for the year picker.
	Now func() time.Time
}

// Server is the main HTTP server.
type Server struct {
	svc       Service
	opts      Options
	router    chi.Router
	templates *template.Template
	http      *http.Server
	log       *zap.Logger
}

// New creates a new server.
func New(svc Service, opts Options) (*Server, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		svc:       svc,
		opts:      opts,
		templates: tmpl,
		log:       logger.WithModule("server"),
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(requestMetrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Serve static files.
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Pages.
	r.Get("/", s.handleIndex)

	// API.
	r.Get("/get_manufacturers/{year:[0-9]+}", s.handleManufacturers)
	r.Post("/get_versions/{year:[0-9]+}", s.handleVersions)
	r.Get("/get_pdf/{year:[0-9]+}", s.handleDocument)
	r.Post("/get_pdf/{year:[0-9]+}", s.handleDocument)

	r.Get("/healthz", s.handleHealth)
	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, promhttp.Handler())
	}

	s.router = r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the warmer and serves until Shutdown is called.
func (s *Server) Start() error {
	if s.opts.Warmer != nil {
		s.opts.Warmer.Start()
	}
	s.log.Info("server starting", zap.String("addr", s.opts.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the warmer and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.opts.Warmer != nil {
		s.opts.Warmer.Stop()
	}
	return s.http.Shutdown(ctx)
}

// --- Helpers ---

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Render error", http.StatusInternalServerError)
	}
}
