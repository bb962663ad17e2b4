package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/kcportal/internal/catalog"
	"github.com/JonMunkholm/kcportal/internal/review"
	"github.com/JonMunkholm/kcportal/internal/workflow"
)

// ErrDraftNotFound is returned for an unknown or expired draft id.
var ErrDraftNotFound = errors.New("draft not found")

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	Session         workflow.SessionConfig
	SessionTTL      time.Duration // default: 1h
	CleanupInterval time.Duration // default: 10m
	MaxDrafts       int
	DraftWait       time.Duration
	AuditSize       int
	Reviewer        string // default: "Admin User"
	Now             func() time.Time
}

// Service provides the portal's business operations: catalog browsing, the
// submission wizard and the admin review queue.
type Service struct {
	catalog  *catalog.Catalog
	queue    *review.Queue
	intake   workflow.Intake
	sessions *sessionStore
	limiter  *DraftLimiter
	audit    *auditTrail
	session  workflow.SessionConfig
	reviewer string
	now      func() time.Time
}

// NewService wires the catalog, review queue and intake. A nil intake
// acknowledges every submission.
func NewService(cat *catalog.Catalog, queue *review.Queue, intake workflow.Intake, opts Options) (*Service, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if queue == nil {
		return nil, errors.New("review queue is required")
	}
	if intake == nil {
		intake = workflow.AcceptAll{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 10 * time.Minute
	}
	if opts.Reviewer == "" {
		opts.Reviewer = "Admin User"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Session.Now = opts.Now

	return &Service{
		catalog:  cat,
		queue:    queue,
		intake:   intake,
		sessions: newSessionStore(opts.SessionTTL, opts.CleanupInterval),
		limiter:  NewDraftLimiter(opts.MaxDrafts, opts.DraftWait),
		audit:    newAuditTrail(opts.AuditSize),
		session:  opts.Session,
		reviewer: opts.Reviewer,
		now:      opts.Now,
	}, nil
}

// Close discards every open draft.
func (s *Service) Close() {
	s.sessions.closeAll()
}

// WaitForUploads blocks until no draft has an upload in flight or ctx is
// done. Called before shutdown so running uploads can finish.
func (s *Service) WaitForUploads(ctx context.Context) error {
	for _, sess := range s.sessions.sessions() {
		if err := sess.WaitUploads(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Health is a snapshot for the health endpoint.
type Health struct {
	Datasets int           `json:"datasets"`
	Drafts   int           `json:"drafts"`
	Limiter  LimiterStatus `json:"limiter"`
	Review   review.Stats  `json:"review"`
}

// Health reports catalog size and draft usage.
func (s *Service) Health() Health {
	return Health{
		Datasets: s.catalog.Len(),
		Drafts:   s.sessions.count(),
		Limiter:  s.limiter.Status(),
		Review:   s.queue.Stats(),
	}
}

// ============================================================================
// Catalog
// ============================================================================

// Browse answers a catalog query.
func (s *Service) Browse(state catalog.FilterState, key catalog.SortKey) catalog.View {
	return s.catalog.Query(state, key)
}

// Dataset returns one catalog record.
func (s *Service) Dataset(id int) (catalog.DatasetRecord, error) {
	return s.catalog.Get(id)
}

// Related returns up to n datasets shown beside id.
func (s *Service) Related(id, n int) ([]catalog.DatasetRecord, error) {
	return s.catalog.Related(id, n)
}

// Facets lists the filter options present in the catalog.
func (s *Service) Facets() catalog.Facets {
	return s.catalog.Facets()
}

// Stats summarizes the catalog.
func (s *Service) Stats() catalog.Stats {
	return s.catalog.Stats()
}

// PageSize is the catalog page size.
func (s *Service) PageSize() int {
	return s.catalog.PageSize()
}

// ============================================================================
// Review
// ============================================================================

// Pending lists datasets waiting for review.
func (s *Service) Pending(f review.Filter) []review.Entry {
	return s.queue.List(f)
}

// PendingEntry returns one queued dataset.
func (s *Service) PendingEntry(id int) (review.Entry, error) {
	return s.queue.Get(id)
}

// Reviewed lists completed reviews, newest first.
func (s *Service) Reviewed() []review.Record {
	return s.queue.History()
}

// ReviewStats returns the admin dashboard counters.
func (s *Service) ReviewStats() review.Stats {
	return s.queue.Stats()
}

// Review applies an admin decision and records it in the audit trail.
func (s *Service) Review(ctx context.Context, d review.Decision) (review.Outcome, error) {
	out, err := s.queue.Apply(d, s.reviewer, s.now())
	if err != nil {
		return review.Outcome{}, fmt.Errorf("review dataset %d: %w", d.DatasetID, err)
	}
	s.LogAudit(ctx, AuditLogParams{
		Action:    ActionReview,
		DatasetID: out.DatasetID,
		Outcome:   string(out.Status),
		Reason:    out.Comment,
		Actor:     out.Reviewer,
	})
	return out, nil
}
