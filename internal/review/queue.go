package review

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/JonMunkholm/kcportal/internal/workflow"
)

var (
	ErrNotFound    = errors.New("dataset not in review queue")
	ErrDuplicateID = errors.New("duplicate review id")
)

// Filter narrows the pending list. The zero value lists everything.
type Filter struct {
	Status Status
	Search string
}

// Stats are the admin dashboard counters.
type Stats struct {
	Pending       int `json:"pending"`
	UnderReview   int `json:"under_review"`
	NeedsRevision int `json:"needs_revision"`
	Approved      int `json:"approved"`
	Rejected      int `json:"rejected"`
	Total         int `json:"total"`
}

// Queue is the in-memory moderation queue. Safe for concurrent use.
type Queue struct {
	mu      sync.RWMutex
	pending []Entry
	history []Record
	nextID  int
}

// NewQueue builds a queue from seed entries. History is kept newest first.
func NewQueue(pending []Entry, history []Record) (*Queue, error) {
	q := &Queue{nextID: 1}
	seen := make(map[int]bool, len(pending)+len(history))
	claim := func(id int) error {
		if seen[id] {
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = true
		q.nextID = max(q.nextID, id+1)
		return nil
	}

	for _, e := range pending {
		if err := claim(e.ID); err != nil {
			return nil, err
		}
		q.pending = append(q.pending, cloneEntry(e))
	}
	for _, r := range history {
		if err := claim(r.ID); err != nil {
			return nil, err
		}
		q.history = append(q.history, r)
	}
	return q, nil
}

// List returns pending entries matching f in queue order.
func (q *Queue) List(f Filter) []Entry {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Search))

	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]Entry, 0, len(q.pending))
	for _, e := range q.pending {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(e.Title), needle) &&
			!strings.Contains(fold.String(e.Uploader), needle) &&
			!strings.Contains(fold.String(e.Institution), needle) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	return out
}

// Get returns the pending entry with id.
func (q *Queue) Get(id int) (Entry, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	i := q.indexLocked(id)
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return cloneEntry(q.pending[i]), nil
}

// History returns completed reviews, newest first.
func (q *Queue) History() []Record {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]Record{}, q.history...)
}

// Stats counts entries by status.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var s Stats
	for _, e := range q.pending {
		switch e.Status {
		case StatusPending:
			s.Pending++
		case StatusUnderReview:
			s.UnderReview++
		case StatusNeedsRevision:
			s.NeedsRevision++
		}
	}
	for _, r := range q.history {
		switch r.Status {
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		}
	}
	s.Total = len(q.pending) + len(q.history)
	return s
}

// Apply records d. Approve and reject move the entry into history; revision
// keeps it queued as needs_revision with the comment as its note.
func (q *Queue) Apply(d Decision, reviewer string, now time.Time) (Outcome, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return Outcome{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(d.DatasetID)
	if i < 0 {
		return Outcome{}, fmt.Errorf("%w: %d", ErrNotFound, d.DatasetID)
	}
	e := q.pending[i]
	out := Outcome{
		DatasetID:  e.ID,
		Title:      e.Title,
		Reviewer:   reviewer,
		Comment:    d.Comment,
		ReviewedAt: now,
	}

	switch d.Action {
	case ActionRevision:
		out.Status = StatusNeedsRevision
		q.pending[i].Status = StatusNeedsRevision
		q.pending[i].Note = d.Comment
		return out, nil
	case ActionApprove:
		out.Status = StatusApproved
	case ActionReject:
		out.Status = StatusRejected
	}

	q.pending = slices.Delete(q.pending, i, i+1)
	q.history = slices.Insert(q.history, 0, Record{
		ID:          e.ID,
		Title:       e.Title,
		Uploader:    e.Uploader,
		Institution: e.Institution,
		ReviewDate:  now,
		Status:      out.Status,
		Reviewer:    reviewer,
		Reason:      d.Comment,
	})
	return out, nil
}

// Enqueue adds a submission to the end of the queue as a pending entry.
func (q *Queue) Enqueue(sub workflow.Submission) Entry {
	m := sub.Metadata
	score := QualityScore(sub)
	e := Entry{
		SubmissionID: sub.ID,
		Title:        m.Title,
		Type:         m.DataType,
		Uploader:     m.Author,
		Institution:  m.Institution,
		Email:        m.Email,
		UploadDate:   sub.SubmittedAt,
		FileCount:    len(sub.Files),
		FileSize:     FormatSize(sub.TotalSize()),
		Status:       StatusPending,
		Priority:     priorityFor(score),
		Description:  m.Description,
		Tags:         slices.Clone(sub.Tags),
		Checks: Checks{
			Deidentified:     sub.Compliance.Deidentified,
			EthicsApproval:   sub.Compliance.EthicsApproved,
			DataRights:       sub.Compliance.DataRights,
			LicenseAgreement: sub.Compliance.LicenseAgreement,
		},
		QualityScore: score,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	e.ID = q.nextID
	q.nextID++
	q.pending = append(q.pending, e)
	return cloneEntry(e)
}

// QualityScore is the share of filled metadata fields, tags included, as a
// percentage.
func QualityScore(sub workflow.Submission) int {
	m := sub.Metadata
	fields := []string{
		m.Title, m.Description, string(m.DataType), string(m.FileFormat),
		m.Device, m.Resolution, m.SampleCount, m.Author, m.Institution,
		m.Email, m.FundingSource, m.EthicsApprovalNumber,
	}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	if len(sub.Tags) > 0 {
		filled++
	}
	return filled * 100 / (len(fields) + 1)
}

func priorityFor(score int) Priority {
	switch {
	case score >= 90:
		return PriorityHigh
	case score >= 70:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// FormatSize renders a byte count the way the admin table shows it.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func (q *Queue) indexLocked(id int) int {
	return slices.IndexFunc(q.pending, func(e Entry) bool { return e.ID == id })
}

func cloneEntry(e Entry) Entry {
	e.Tags = slices.Clone(e.Tags)
	return e
}
