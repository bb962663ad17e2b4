package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/kcportal/internal/workflow"
)

// DraftView is a draft plus what the wizard needs to render it.
type DraftView struct {
	ID         string                `json:"id"`
	Draft      workflow.Draft        `json:"draft"`
	StepName   string                `json:"step_name"`
	CanAdvance bool                  `json:"can_advance"`
	Blocking   []workflow.FieldError `json:"blocking"`
	TotalSize  int64                 `json:"total_size"`
}

func newDraftView(id string, d workflow.Draft) DraftView {
	v := DraftView{
		ID:        id,
		Draft:     d,
		StepName:  d.Step.String(),
		Blocking:  []workflow.FieldError{},
		TotalSize: d.TotalSize(),
	}
	if d.Step >= workflow.StepReview {
		return v
	}
	var ve *workflow.ValidationError
	if errors.As(workflow.Check(d.Step, d), &ve) {
		v.Blocking = ve.Fields
		return v
	}
	v.CanAdvance = true
	return v
}

// NewDraft opens a draft session. It fails with ErrTooManyDrafts when the
// open draft cap stays full for the configured wait.
func (s *Service) NewDraft(ctx context.Context) (DraftView, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return DraftView{}, fmt.Errorf("open draft: %w", err)
	}

	id := uuid.NewString()
	sess := workflow.NewSession(s.session)
	s.sessions.put(id, &draftEntry{session: sess, release: s.limiter.Release})

	s.LogAudit(ctx, AuditLogParams{Action: ActionDraftCreate, DraftID: id})
	return newDraftView(id, sess.Draft()), nil
}

// Draft returns the current state of draft id.
func (s *Service) Draft(id string) (DraftView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return DraftView{}, err
	}
	return newDraftView(id, sess.Draft()), nil
}

// DiscardDraft closes draft id and cancels its upload.
func (s *Service) DiscardDraft(ctx context.Context, id string) error {
	if !s.sessions.remove(id) {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	s.LogAudit(ctx, AuditLogParams{Action: ActionDraftDiscard, DraftID: id})
	return nil
}

// AddFiles appends a batch to draft id and starts or queues its upload.
func (s *Service) AddFiles(id string, files []workflow.File) (DraftView, error) {
	return s.mutate(id, func(sess *workflow.Session) error {
		return sess.AddFiles(files...)
	})
}

// RemoveFile drops the file at index from draft id.
func (s *Service) RemoveFile(id string, index int) (DraftView, error) {
	return s.mutate(id, func(sess *workflow.Session) error {
		return sess.RemoveFile(index)
	})
}

// UpdateMetadata replaces the metadata of draft id.
func (s *Service) UpdateMetadata(id string, m workflow.Metadata) (DraftView, error) {
	return s.mutate(id, func(sess *workflow.Session) error {
		return sess.SetMetadata(m)
	})
}

// AddTag adds a tag to draft id.
func (s *Service) AddTag(id, tag string) (DraftView, error) {
	return s.mutate(id, func(sess *workflow.Session) error {
		return sess.AddTag(tag)
	})
}

// RemoveTag removes a tag from draft id.
func (s *Service) RemoveTag(id, tag string) (DraftView, error) {
	return s.mutate(id, func(sess *workflow.Session) error {
		return sess.RemoveTag(tag)
	})
}

// UpdateCompliance replaces the attestations of draft id.
func (s *Service) UpdateCompliance(id string, c workflow.Compliance) (DraftView, error) {
	return s.mutate(id, func(sess *workflow.Session) error {
		return sess.SetCompliance(c)
	})
}

// Next advances draft id. A blocked step returns the view together with the
// *workflow.ValidationError.
func (s *Service) Next(id string) (DraftView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return DraftView{}, err
	}
	_, err = sess.Next()
	return newDraftView(id, sess.Draft()), err
}

// Back moves draft id one step back.
func (s *Service) Back(id string) (DraftView, error) {
	return s.mutate(id, func(sess *workflow.Session) error {
		_, err := sess.Back()
		return err
	})
}

// SubscribeProgress streams upload progress for draft id.
func (s *Service) SubscribeProgress(id string) (<-chan workflow.Progress, func(), error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.Subscribe()
	return ch, cancel, nil
}

// Submit hands draft id to the intake. The draft stays open either way; on
// success it restarts empty at step one.
func (s *Service) Submit(ctx context.Context, id string) (workflow.Receipt, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return workflow.Receipt{}, err
	}

	receipt, err := sess.Submit(ctx, s.intake)
	if err != nil {
		var ie *workflow.IntakeError
		if errors.As(err, &ie) {
			s.LogAudit(ctx, AuditLogParams{
				Action:  ActionSubmitFailed,
				DraftID: id,
				Outcome: string(ie.Code),
				Reason:  ie.Message,
			})
		}
		return workflow.Receipt{}, err
	}

	s.LogAudit(ctx, AuditLogParams{
		Action:       ActionSubmit,
		DraftID:      id,
		SubmissionID: receipt.SubmissionID,
		Outcome:      receipt.Status,
	})
	return receipt, nil
}

func (s *Service) lookup(id string) (*workflow.Session, error) {
	sess, ok := s.sessions.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return sess, nil
}

func (s *Service) mutate(id string, fn func(*workflow.Session) error) (DraftView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return DraftView{}, err
	}
	if err := fn(sess); err != nil {
		return DraftView{}, err
	}
	return newDraftView(id, sess.Draft()), nil
}
