package workflow

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

// ErrAtReview is returned when advancing from the last step; the only way
// forward from there is Submit.
var ErrAtReview = errors.New("already at review step")

const (
	msgRequired    = "required field missing"
	msgInvalidEnum = "invalid enum: not an allowed value"
)

// FieldError names one blocking field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists why a step cannot be left.
type ValidationError struct {
	Step   Step         `json:"step"`
	Fields []FieldError `json:"fields"`
}

// Error lists unknown enum values separately from missing fields so the
// message maps to the right user-facing code.
func (e *ValidationError) Error() string {
	var missing, invalid []string
	for _, f := range e.Fields {
		if f.Message == msgInvalidEnum {
			invalid = append(invalid, f.Field)
			continue
		}
		missing = append(missing, f.Field)
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "required field missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid enum: "+strings.Join(invalid, ", "))
	}
	return fmt.Sprintf("step %d (%s): %s", int(e.Step), e.Step, strings.Join(parts, "; "))
}

// Check returns nil when d may move past step, otherwise a
// *ValidationError naming each unmet condition.
func Check(step Step, d Draft) error {
	var fields []FieldError
	missing := func(field, msg string) {
		fields = append(fields, FieldError{Field: field, Message: msg})
	}

	switch step {
	case StepUploadFiles:
		if len(d.Files) == 0 {
			missing("files", "select at least one file")
		}
		if d.Uploading {
			missing("upload", "wait for the upload to finish")
		}
	case StepMetadata:
		m := d.Metadata
		for _, f := range []struct {
			name  string
			value string
		}{
			{"title", m.Title},
			{"description", m.Description},
			{"data_type", string(m.DataType)},
			{"file_format", string(m.FileFormat)},
			{"author", m.Author},
			{"institution", m.Institution},
			{"email", m.Email},
		} {
			if f.value == "" {
				missing(f.name, msgRequired)
			}
		}
		if m.DataType != "" && !slices.Contains(catalog.DataTypes, m.DataType) {
			missing("data_type", msgInvalidEnum)
		}
		if m.FileFormat != "" && !slices.Contains(catalog.FileFormats, m.FileFormat) {
			missing("file_format", msgInvalidEnum)
		}
	case StepCompliance:
		c := d.Compliance
		if !c.Deidentified {
			missing("deidentified", "confirm the data is de-identified")
		}
		if !c.EthicsApproved {
			missing("ethics_approved", "confirm ethics approval")
		}
		if !c.DataRights {
			missing("data_rights", "confirm you hold the data rights")
		}
		if !c.LicenseAgreement {
			missing("license_agreement", "accept the license agreement")
		}
	case StepReview:
		return nil
	default:
		return fmt.Errorf("unknown step %d", int(step))
	}

	if len(fields) > 0 {
		return &ValidationError{Step: step, Fields: fields}
	}
	return nil
}

// CanAdvance reports whether d may move past step.
func CanAdvance(step Step, d Draft) bool {
	return Check(step, d) == nil
}

// Ready checks every gate up to review, returning the first failure.
func Ready(d Draft) error {
	for _, step := range []Step{StepUploadFiles, StepMetadata, StepCompliance} {
		if err := Check(step, d); err != nil {
			return err
		}
	}
	return nil
}

// Advance moves d one step forward when its current step's gate passes.
// A blocked transition leaves d unchanged and reports false.
func Advance(d Draft) (Draft, bool) {
	if d.Step >= StepReview || !CanAdvance(d.Step, d) {
		return d, false
	}
	d = d.Clone()
	d.Step++
	return d, true
}

// Back moves d one step backward, never below the first step.
func Back(d Draft) Draft {
	if d.Step <= StepUploadFiles {
		return d
	}
	d = d.Clone()
	d.Step--
	return d
}
