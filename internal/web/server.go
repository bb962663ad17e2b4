// Package web provides the HTTP server for the dataset portal: the JSON API
// under /api/v1, the upload progress stream and the HTML pages.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/kcportal/internal/config"
	"github.com/JonMunkholm/kcportal/internal/core"
	"github.com/JonMunkholm/kcportal/internal/web/middleware"
)

// Server is the HTTP server for the portal.
type Server struct {
	service *core.Service
	cfg     config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with its middleware and routes installed.
func NewServer(service *core.Service, cfg config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5, "application/json", "text/html"))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(requestMeta)

	if s.cfg.Rate.Enabled {
		general := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(general.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	var writes func(http.Handler) http.Handler = passthrough
	if s.cfg.Rate.Enabled {
		writes = newRateLimiter(s.cfg.Rate.MutationLimit, time.Minute).middleware
	}

	// Progress streams are long-lived and must not inherit the request timeout.
	s.router.Get("/api/v1/drafts/{draftID}/progress", s.handleDraftProgress)

	s.router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.requestTimeout()))

		// Pages
		r.Get("/", s.handleHome)
		r.Get("/browse", s.handleBrowsePage)
		r.Get("/dataset/{id}", s.handleDatasetPage)
		r.Get("/upload", s.handleUploadPage)
		r.Get("/admin", s.handleAdminPage)
		r.Get("/docs", s.handleDocsPage)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/health", s.handleHealth)

			// Catalog
			r.Get("/datasets", s.handleListDatasets)
			r.Get("/datasets/{id}", s.handleGetDataset)
			r.Get("/datasets/{id}/related", s.handleRelatedDatasets)
			r.Get("/facets", s.handleFacets)
			r.Get("/stats", s.handleStats)

			// Submission wizard
			r.Route("/drafts", func(r chi.Router) {
				r.With(writes).Post("/", s.handleCreateDraft)
				r.Route("/{draftID}", func(r chi.Router) {
					r.Get("/", s.handleGetDraft)
					r.Group(func(r chi.Router) {
						r.Use(writes)
						r.Delete("/", s.handleDiscardDraft)
						r.Post("/files", s.handleAddFiles)
						r.Delete("/files/{index}", s.handleRemoveFile)
						r.Put("/metadata", s.handleUpdateMetadata)
						r.Post("/tags", s.handleAddTag)
						r.Delete("/tags/{tag}", s.handleRemoveTag)
						r.Put("/compliance", s.handleUpdateCompliance)
						r.Post("/next", s.handleNextStep)
						r.Post("/back", s.handlePrevStep)
						r.Post("/submit", s.handleSubmitDraft)
					})
				})
			})

			// Admin review
			r.Route("/admin", func(r chi.Router) {
				r.Get("/pending", s.handlePending)
				r.Get("/pending/{id}", s.handlePendingEntry)
				r.Get("/reviewed", s.handleReviewed)
				r.Get("/stats", s.handleReviewStats)
				r.Get("/audit", s.handleAuditLog)
				r.With(writes).Post("/datasets/{id}/review", s.handleReviewDataset)
			})
		})
	})
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.Server.RequestTimeout > 0 {
		return s.cfg.Server.RequestTimeout
	}
	return 30 * time.Second
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	slog.Info("starting server", "addr", sc.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func passthrough(next http.Handler) http.Handler { return next }

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with status. Encoding errors are logged since
// headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
