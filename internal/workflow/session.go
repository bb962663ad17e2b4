package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSessionClosed is returned by every operation on a closed Session.
var ErrSessionClosed = errors.New("upload session closed")

// ErrNotAtReview is returned by Submit before the review step.
var ErrNotAtReview = errors.New("submit is only available at the review step")

// Progress is one upload progress notification.
type Progress struct {
	Percent   int  `json:"percent"`
	Uploading bool `json:"uploading"`
	Files     int  `json:"files"`
	Queued    int  `json:"queued"`
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Limits     Limits
	Simulation SimulationConfig
	Now        func() time.Time
}

// Session owns one draft for the lifetime of a wizard run.
//
// At most one upload simulation runs per session. Draft.Uploading is the
// authoritative in-flight flag: it gates step 1 and, while set, newly added
// batches are queued and served by a fresh run once the current one
// completes.
type Session struct {
	cfg    SessionConfig
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	draft     Draft
	run       *Simulation
	runID     int
	queued    int
	closed    bool
	listeners []chan Progress
}

// NewSession starts a session with an empty draft.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		draft:  NewDraft(),
	}
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// AddFiles validates and appends a batch, then starts (or queues) an upload
// run for it. Nothing is added if any file is rejected.
func (s *Session) AddFiles(files ...File) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files provided", ErrEmptyFile)
	}
	for _, f := range files {
		if err := s.cfg.Limits.Check(f); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.draft = s.draft.AddFiles(files...)
	if s.draft.Uploading {
		s.queued++
		s.notifyLocked()
		return nil
	}
	s.startRunLocked()
	return nil
}

// RemoveFile drops the file at index. Removing the last file stops any
// upload in flight.
func (s *Session) RemoveFile(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	d, err := s.draft.RemoveFile(index)
	if err != nil {
		return err
	}
	s.draft = d
	if len(s.draft.Files) == 0 {
		s.stopRunLocked()
		s.draft.UploadProgress = 0
		s.notifyLocked()
	}
	return nil
}

// SetMetadata replaces the draft metadata.
func (s *Session) SetMetadata(m Metadata) error {
	return s.update(func(d Draft) Draft { return d.WithMetadata(m) })
}

// AddTag adds a trimmed tag with set semantics.
func (s *Session) AddTag(tag string) error {
	return s.update(func(d Draft) Draft { return d.AddTag(tag) })
}

// RemoveTag removes tag if present.
func (s *Session) RemoveTag(tag string) error {
	return s.update(func(d Draft) Draft { return d.RemoveTag(tag) })
}

// SetCompliance replaces the attestations.
func (s *Session) SetCompliance(c Compliance) error {
	return s.update(func(d Draft) Draft { return d.WithCompliance(c) })
}

func (s *Session) update(fn func(Draft) Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.draft = fn(s.draft)
	return nil
}

// Next advances one step. A blocked transition changes nothing and returns
// the *ValidationError explaining why.
func (s *Session) Next() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if s.draft.Step >= StepReview {
		return s.draft.Step, ErrAtReview
	}
	if err := Check(s.draft.Step, s.draft); err != nil {
		return s.draft.Step, err
	}
	s.draft, _ = Advance(s.draft)
	return s.draft.Step, nil
}

// Back moves one step backward.
func (s *Session) Back() (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	s.draft = Back(s.draft)
	return s.draft.Step, nil
}

// Submit hands an immutable snapshot of the draft to in. On success the
// session starts over with an empty draft; on failure the draft is kept so
// the user can correct it and retry.
func (s *Session) Submit(ctx context.Context, in Intake) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Receipt{}, ErrSessionClosed
	}
	if s.draft.Step != StepReview {
		return Receipt{}, ErrNotAtReview
	}
	if err := Ready(s.draft); err != nil {
		return Receipt{}, err
	}

	sub := NewSubmission(s.draft, s.cfg.Now())
	receipt, err := in.Submit(ctx, sub)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit %s: %w", sub.ID, err)
	}

	s.stopRunLocked()
	s.draft = NewDraft()
	return receipt, nil
}

// Subscribe returns a channel receiving every progress change, starting
// with the current state. The channel is closed by the returned cancel
// function or when the session closes. Slow readers miss intermediate
// values rather than blocking the upload, but always see the latest one.
func (s *Session) Subscribe() (<-chan Progress, func()) {
	ch := make(chan Progress, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.listeners = append(s.listeners, ch)
	ch <- s.progressLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l == ch {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
}

// WaitUploads blocks until no upload is in flight, including queued
// batches.
func (s *Session) WaitUploads(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.closed || !s.draft.Uploading || s.run == nil {
			s.mu.Unlock()
			return nil
		}
		done := s.run.Done()
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels any pending upload timer and releases listeners. The draft
// is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopRunLocked()
	s.cancel()
	for _, l := range s.listeners {
		close(l)
	}
	s.listeners = nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) startRunLocked() {
	s.runID++
	id := s.runID
	s.draft.Uploading = true
	s.draft.UploadProgress = 0
	s.run = StartSimulation(s.ctx, s.cfg.Simulation, func(p int) {
		s.onProgress(id, p)
	})
	s.notifyLocked()
}

func (s *Session) stopRunLocked() {
	if s.run != nil {
		s.run.Cancel()
		s.run = nil
	}
	s.runID++
	s.queued = 0
	s.draft.Uploading = false
}

func (s *Session) onProgress(id, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || id != s.runID {
		return
	}

	s.draft.UploadProgress = percent
	if percent >= 100 {
		if s.queued > 0 {
			s.queued--
			s.notifyLocked()
			s.startRunLocked()
			return
		}
		s.draft.Uploading = false
		s.run = nil
	}
	s.notifyLocked()
}

func (s *Session) progressLocked() Progress {
	return Progress{
		Percent:   s.draft.UploadProgress,
		Uploading: s.draft.Uploading,
		Files:     len(s.draft.Files),
		Queued:    s.queued,
	}
}

// notifyLocked delivers the current state to every listener. A full
// listener loses its oldest buffered value, never the newest, so the last
// state of a run always arrives.
func (s *Session) notifyLocked() {
	p := s.progressLocked()
	for _, l := range s.listeners {
		for {
			select {
			case l <- p:
			default:
				select {
				case <-l:
				default:
				}
				continue
			}
			break
		}
	}
}
