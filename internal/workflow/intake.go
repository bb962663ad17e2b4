package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Submission is the immutable snapshot handed to an Intake.
type Submission struct {
	ID          string     `json:"id"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Files       []File     `json:"files"`
	Metadata    Metadata   `json:"metadata"`
	Tags        []string   `json:"tags"`
	Compliance  Compliance `json:"compliance"`
}

// NewSubmission snapshots d. The snapshot shares no memory with d.
func NewSubmission(d Draft, now time.Time) Submission {
	return Submission{
		ID:          uuid.NewString(),
		SubmittedAt: now.UTC(),
		Files:       slices.Clone(d.Files),
		Metadata:    d.Metadata,
		Tags:        slices.Clone(d.Tags),
		Compliance:  d.Compliance,
	}
}

// TotalSize sums the submitted file sizes.
func (s Submission) TotalSize() int64 {
	var n int64
	for _, f := range s.Files {
		n += f.Size
	}
	return n
}

// Receipt acknowledges an accepted submission.
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// Intake receives validated submissions. Implementations return
// *IntakeError for a structured refusal.
type Intake interface {
	Submit(ctx context.Context, sub Submission) (Receipt, error)
}

// IntakeFunc adapts a function to Intake.
type IntakeFunc func(ctx context.Context, sub Submission) (Receipt, error)

// Submit calls f.
func (f IntakeFunc) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	return f(ctx, sub)
}

// IntakeCode classifies a refused submission.
type IntakeCode string

const (
	IntakeNoFiles              IntakeCode = "no_files"
	IntakeMissingField         IntakeCode = "missing_field"
	IntakeInvalidField         IntakeCode = "invalid_field"
	IntakeComplianceIncomplete IntakeCode = "compliance_incomplete"
	IntakeRejected             IntakeCode = "rejected"
	IntakeUnavailable          IntakeCode = "unavailable"
)

// IntakeError is a structured refusal from an Intake.
type IntakeError struct {
	Code    IntakeCode `json:"code"`
	Field   string     `json:"field,omitempty"`
	Message string     `json:"message"`
}

func (e *IntakeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("submission rejected (%s): %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("submission rejected (%s): %s", e.Code, e.Message)
}

// ValidateSubmission applies the wizard's gates to a snapshot, for intakes
// that receive submissions from outside a Session.
func ValidateSubmission(sub Submission) error {
	if len(sub.Files) == 0 {
		return &IntakeError{Code: IntakeNoFiles, Field: "files", Message: "no files"}
	}
	d := Draft{Step: StepReview, Files: sub.Files, Metadata: sub.Metadata, Compliance: sub.Compliance}
	var ve *ValidationError
	if errors.As(Check(StepMetadata, d), &ve) {
		f := ve.Fields[0]
		if f.Message == msgInvalidEnum {
			return &IntakeError{Code: IntakeInvalidField, Field: f.Field, Message: f.Message}
		}
		return &IntakeError{Code: IntakeMissingField, Field: f.Field, Message: f.Message}
	}
	if !sub.Compliance.Complete() {
		return &IntakeError{Code: IntakeComplianceIncomplete, Message: "all compliance attestations are required"}
	}
	return nil
}

// AcceptAll acknowledges every submission.
type AcceptAll struct{}

// Submit always succeeds.
func (AcceptAll) Submit(_ context.Context, sub Submission) (Receipt, error) {
	return Receipt{
		SubmissionID: sub.ID,
		Status:       "received",
		Message:      "Dataset submitted successfully! It will be reviewed by our team.",
	}, nil
}
