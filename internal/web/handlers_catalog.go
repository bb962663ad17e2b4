package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

// relatedCount is how many related datasets the detail view shows.
const relatedCount = 3

// parseBrowse builds a filter state and ordering from query parameters:
// q, type, format, device, tag (repeatable), page and sort.
func parseBrowse(q url.Values) (catalog.FilterState, catalog.SortKey, error) {
	state := catalog.NewFilterState().WithSearch(q.Get("q"))

	t, err := catalog.ParseDataType(q.Get("type"))
	if err != nil {
		return state, "", badRequest("%v", err)
	}
	f, err := catalog.ParseFileFormat(q.Get("format"))
	if err != nil {
		return state, "", badRequest("%v", err)
	}
	key, err := catalog.ParseSortKey(q.Get("sort"))
	if err != nil {
		return state, "", badRequest("%v", err)
	}

	state = state.WithType(t).WithFormat(f).WithDevice(q.Get("device")).WithTags(q["tag"]...)

	if p := q.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			return state, "", badRequest("invalid number: page %q", p)
		}
		state = state.WithPage(page)
	}
	return state, key, nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid number: %s %q", name, raw)
	}
	return id, nil
}

// handleListDatasets answers a browse query as one page of results.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	state, key, err := parseBrowse(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Browse(state, key))
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRelatedDatasets(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	n := relatedCount
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err = strconv.Atoi(raw); err != nil || n < 0 {
			respondError(w, r, badRequest("invalid number: limit %q", raw))
			return
		}
	}
	related, err := s.service.Related(id, n)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if related == nil {
		related = []catalog.DatasetRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": related})
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Facets())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"health": s.service.Health(),
	})
}
