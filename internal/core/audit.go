package core

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionDraftCreate  AuditAction = "draft_create"
	ActionDraftDiscard AuditAction = "draft_discard"
	ActionSubmit       AuditAction = "submit"
	ActionSubmitFailed AuditAction = "submit_failed"
	ActionReview       AuditAction = "review"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// DefaultAuditSize is how many entries the in-memory trail keeps.
const DefaultAuditSize = 1000

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	DraftID      string        `json:"draft_id,omitempty"`
	SubmissionID string        `json:"submission_id,omitempty"`
	DatasetID    int           `json:"dataset_id,omitempty"`
	Outcome      string        `json:"outcome,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Actor        string        `json:"actor,omitempty"`
	IPAddress    string        `json:"ip_address,omitempty"`
	UserAgent    string        `json:"user_agent,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AuditLogParams contains parameters for creating an audit log entry.
type AuditLogParams struct {
	Action       AuditAction
	DraftID      string
	SubmissionID string
	DatasetID    int
	Outcome      string
	Reason       string
	Actor        string
}

// AuditLogFilter narrows AuditLog results. Zero values mean no constraint.
type AuditLogFilter struct {
	Action AuditAction
	Limit  int
}

func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionSubmit, ActionReview:
		return SeverityHigh
	case ActionDraftDiscard, ActionSubmitFailed:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// auditTrail is a bounded, newest-last list of entries.
type auditTrail struct {
	mu      sync.RWMutex
	entries []AuditEntry
	size    int
}

func newAuditTrail(size int) *auditTrail {
	if size <= 0 {
		size = DefaultAuditSize
	}
	return &auditTrail{size: size}
}

func (a *auditTrail) append(e AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == a.size {
		a.entries = slices.Delete(a.entries, 0, 1)
	}
	a.entries = append(a.entries, e)
}

func (a *auditTrail) list(f AuditLogFilter) []AuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := []AuditEntry{}
	for i := len(a.entries) - 1; i >= 0; i-- {
		if f.Action != "" && a.entries[i].Action != f.Action {
			continue
		}
		out = append(out, a.entries[i])
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// LogAudit records an action with the client metadata carried by ctx.
func (s *Service) LogAudit(ctx context.Context, params AuditLogParams) AuditEntry {
	meta := RequestMetaFromContext(ctx)
	entry := AuditEntry{
		ID:           uuid.NewString(),
		Action:       params.Action,
		Severity:     determineSeverity(params.Action),
		DraftID:      params.DraftID,
		SubmissionID: params.SubmissionID,
		DatasetID:    params.DatasetID,
		Outcome:      params.Outcome,
		Reason:       params.Reason,
		Actor:        params.Actor,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		CreatedAt:    s.now().UTC(),
	}
	s.audit.append(entry)

	slog.InfoContext(ctx, "audit",
		"action", entry.Action,
		"severity", entry.Severity,
		"draft_id", entry.DraftID,
		"dataset_id", entry.DatasetID,
		"outcome", entry.Outcome,
		"ip", entry.IPAddress,
	)
	return entry
}

// AuditLog returns recorded entries, newest first.
func (s *Service) AuditLog(f AuditLogFilter) []AuditEntry {
	return s.audit.list(f)
}
