package web

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/kcportal/internal/catalog"
	"github.com/JonMunkholm/kcportal/internal/web/templates"
)

// recentCount is how many datasets the home page features.
const recentCount = 3

// render writes a full HTML page.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render page", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	recent := s.service.Browse(catalog.NewFilterState(), catalog.SortNewest).Items
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	render(w, r, templates.HomePage(templates.HomeParams{
		Stats:  s.service.Stats(),
		Recent: recent,
	}))
}

func (s *Server) handleBrowsePage(w http.ResponseWriter, r *http.Request) {
	state, key, err := parseBrowse(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, templates.BrowsePage(templates.BrowseParams{
		View:   s.service.Browse(state, key),
		Facets: s.service.Facets(),
	}))
}

func (s *Server) handleDatasetPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rec, err := s.service.Dataset(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	related, err := s.service.Related(id, relatedCount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, templates.DatasetPage(templates.DatasetParams{Dataset: rec, Related: related}))
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.UploadPage(templates.UploadParams{
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		Extensions:  s.cfg.Upload.Extensions,
	}))
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	f, err := parseReviewFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, templates.AdminPage(templates.AdminParams{
		Stats:    s.service.ReviewStats(),
		Filter:   f,
		Pending:  s.service.Pending(f),
		Reviewed: s.service.Reviewed(),
	}))
}

func (s *Server) handleDocsPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.DocsPage())
}
