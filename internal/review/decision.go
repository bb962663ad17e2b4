package review

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Action is an admin verdict.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionRevision Action = "revision"
)

var (
	ErrInvalidAction   = errors.New("invalid review action")
	ErrCommentRequired = errors.New("comment required for reject and revision")
)

// Decision is a review submitted from the admin page.
type Decision struct {
	DatasetID int    `json:"dataset_id" validate:"gt=0"`
	Action    Action `json:"action" validate:"required,oneof=approve reject revision"`
	Comment   string `json:"comment" validate:"required_unless=Action approve"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Normalize trims the comment and lower-cases the action.
func (d Decision) Normalize() Decision {
	d.Action = Action(strings.ToLower(strings.TrimSpace(string(d.Action))))
	d.Comment = strings.TrimSpace(d.Comment)
	return d
}

// Validate checks a normalized decision. A whitespace-only comment counts
// as missing.
func (d Decision) Validate() error {
	d = d.Normalize()
	err := structValidator().Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate decision: %w", err)
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Action":
			return fmt.Errorf("%w: %q", ErrInvalidAction, d.Action)
		case "Comment":
			return ErrCommentRequired
		case "DatasetID":
			return fmt.Errorf("%w: dataset id %d", ErrNotFound, d.DatasetID)
		}
	}
	return err
}

// Outcome is the result of applying a Decision.
type Outcome struct {
	DatasetID  int       `json:"dataset_id"`
	Title      string    `json:"title"`
	Status     Status    `json:"status"`
	Reviewer   string    `json:"reviewer"`
	Comment    string    `json:"comment,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}
