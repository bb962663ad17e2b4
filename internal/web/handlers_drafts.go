package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/kcportal/internal/logging"
	"github.com/JonMunkholm/kcportal/internal/workflow"
)

// maxBodySize bounds JSON request bodies. Files are handles, never content.
const maxBodySize = 1 << 20

// decodeJSON reads a JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest("%v", err)
	}
	return nil
}

type addFilesRequest struct {
	Files []workflow.File `json:"files"`
}

type tagRequest struct {
	Tag string `json:"tag"`
}

type submitResponse struct {
	Receipt workflow.Receipt `json:"receipt"`
	Draft   any              `json:"draft"`
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.NewDraft(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/drafts/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Draft(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DiscardDraft(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddFiles appends a batch of file handles and starts (or queues)
// their simulated upload.
func (s *Server) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	var req addFilesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id := chi.URLParam(r, "draftID")
	view, err := s.service.AddFiles(id, req.Files)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.WithFields(r.Context(), "draft_id", id).Info("files added",
		"count", len(req.Files),
		"total_size", view.TotalSize,
	)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, badRequest("invalid number: index %q", raw))
		return
	}
	view, err := s.service.RemoveFile(chi.URLParam(r, "draftID"), index)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var m workflow.Metadata
	if err := decodeJSON(w, r, &m); err != nil {
		respondError(w, r, err)
		return
	}
	view, err := s.service.UpdateMetadata(chi.URLParam(r, "draftID"), m)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	view, err := s.service.AddTag(chi.URLParam(r, "draftID"), req.Tag)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.RemoveTag(chi.URLParam(r, "draftID"), chi.URLParam(r, "tag"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateCompliance(w http.ResponseWriter, r *http.Request) {
	var c workflow.Compliance
	if err := decodeJSON(w, r, &c); err != nil {
		respondError(w, r, err)
		return
	}
	view, err := s.service.UpdateCompliance(chi.URLParam(r, "draftID"), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleNextStep advances the wizard. A blocked step answers 409 with the
// missing fields.
func (s *Server) handleNextStep(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Next(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePrevStep(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Back(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSubmitDraft hands the draft to the review intake. On success the
// draft restarts empty and is returned alongside the receipt.
func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "draftID")
	receipt, err := s.service.Submit(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	view, err := s.service.Draft(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{Receipt: receipt, Draft: view})
}

// handleDraftProgress streams upload progress via Server-Sent Events. The
// stream ends with a complete event once every batch has reached 100%, or
// with a closed event if the draft goes away.
func (s *Server) handleDraftProgress(w http.ResponseWriter, r *http.Request) {
	progressCh, cancel, err := s.service.SubscribeProgress(chi.URLParam(r, "draftID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	seq := 0
	send := func(event string, v any) {
		seq++
		data, _ := json.Marshal(v)
		fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, event, data)
		flusher.Flush()
	}

	for {
		select {
		case p, ok := <-progressCh:
			if !ok {
				send("closed", struct{}{})
				return
			}
			send("progress", p)
			if p.Percent == 100 && !p.Uploading && p.Queued == 0 {
				send("complete", p)
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
