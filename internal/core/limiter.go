package core

// limiter.go caps the number of open drafts. Every draft owns an upload
// session with its own timer goroutine, so the store refuses new drafts once
// the cap is reached. A caller waits up to maxWait for a slot before failing
// with ErrTooManyDrafts.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyDrafts is returned when every draft slot is taken and the wait
// expires.
var ErrTooManyDrafts = errors.New("too many open drafts, please try again later")

// DefaultMaxDrafts is the default open draft cap.
const DefaultMaxDrafts = 500

// DefaultDraftWait is how long NewDraft waits for a free slot.
const DefaultDraftWait = 2 * time.Second

// DraftLimiter is a counting semaphore over open drafts.
type DraftLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewDraftLimiter allows at most limit open drafts.
func NewDraftLimiter(limit int, maxWait time.Duration) *DraftLimiter {
	if limit <= 0 {
		limit = DefaultMaxDrafts
	}
	if maxWait <= 0 {
		maxWait = DefaultDraftWait
	}
	return &DraftLimiter{
		slots:   make(chan struct{}, limit),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. The caller must Release it
// when the draft closes.
func (l *DraftLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyDrafts
	}
}

// Release frees a slot taken by Acquire.
func (l *DraftLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// LimiterStatus is a snapshot for health reporting.
type LimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	Max       int `json:"max"`
}

// Status returns the current slot usage.
func (l *DraftLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:    int(l.active.Load()),
		Available: cap(l.slots) - len(l.slots),
		Max:       cap(l.slots),
	}
}
