package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/kcportal/internal/core"
	"github.com/JonMunkholm/kcportal/internal/review"
)

// defaultAuditLimit caps audit responses when no limit is given.
const defaultAuditLimit = 100

type reviewRequest struct {
	Action  review.Action `json:"action"`
	Comment string        `json:"comment"`
}

// parseReviewFilter reads status ("all" or empty for every status) and q.
func parseReviewFilter(r *http.Request) (review.Filter, error) {
	q := r.URL.Query()
	st, err := review.ParseStatus(q.Get("status"))
	if err != nil {
		return review.Filter{}, badRequest("%v", err)
	}
	return review.Filter{Status: st, Search: q.Get("q")}, nil
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	f, err := parseReviewFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": s.service.Pending(f)})
}

func (s *Server) handlePendingEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := s.service.PendingEntry(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleReviewed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.service.Reviewed()})
}

func (s *Server) handleReviewStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ReviewStats())
}

// handleReviewDataset applies an approve, reject or revision decision.
func (s *Server) handleReviewDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	out, err := s.service.Review(r.Context(), review.Decision{
		DatasetID: id,
		Action:    req.Action,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAuditLog lists audit entries, newest first, optionally filtered by
// action.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultAuditLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, badRequest("invalid number: limit %q", raw))
			return
		}
		limit = n
	}
	entries := s.service.AuditLog(core.AuditLogFilter{
		Action: core.AuditAction(q.Get("action")),
		Limit:  limit,
	})
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}
