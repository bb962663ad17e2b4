package web

// errors.go turns errors into HTTP responses.
//
// The status comes from the error's identity (errors.Is/As against the
// domain sentinels); the body comes from core.MapError so the client sees a
// stable code with a readable message. The technical error is logged with
// the request id and never sent to the client.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/kcportal/internal/catalog"
	"github.com/JonMunkholm/kcportal/internal/core"
	"github.com/JonMunkholm/kcportal/internal/review"
	"github.com/JonMunkholm/kcportal/internal/web/templates"
	"github.com/JonMunkholm/kcportal/internal/workflow"
)

// errInvalidRequest marks a malformed body or parameter.
var errInvalidRequest = errors.New("invalid request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string                `json:"error"`
	Message string                `json:"message"`
	Action  string                `json:"action,omitempty"`
	Code    string                `json:"code"`
	Fields  []workflow.FieldError `json:"fields,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var ve *workflow.ValidationError
	var ie *workflow.IntakeError
	switch {
	case errors.As(err, &ve):
		return http.StatusConflict
	case errors.As(err, &ie):
		if ie.Code == workflow.IntakeUnavailable {
			return http.StatusServiceUnavailable
		}
		return http.StatusUnprocessableEntity
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrTooManyDrafts):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrDraftNotFound),
		errors.Is(err, workflow.ErrSessionClosed),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, review.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrAtReview),
		errors.Is(err, workflow.ErrNotAtReview):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrUnsupportedFile),
		errors.Is(err, workflow.ErrFileTooLarge),
		errors.Is(err, workflow.ErrEmptyFile),
		errors.Is(err, workflow.ErrFileIndex),
		errors.Is(err, review.ErrCommentRequired),
		errors.Is(err, review.ErrInvalidAction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped response in the format the
// client asked for.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ue := core.NewUserError(err)
	userMsg := ue.User

	// Unmapped errors reach the client as ERR000 only; the log is the one
	// place their technical text survives.
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", ue.Technical.Error(),
		"code", userMsg.Code,
		"request_id", chimw.GetReqID(r.Context()),
	)

	if !wantsJSON(r) {
		respondErrorHTML(w, r, userMsg, status)
		return
	}

	body := ErrorResponse{
		Error:   ue.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}
	writeJSON(w, status, body)
}

// respondErrorHTML renders the error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := templates.Layout("Error", "", templates.ErrorAlert(msg.Message, msg.Action, msg.Code))
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
