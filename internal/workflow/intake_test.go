package workflow

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewSubmission_IsSnapshot(t *testing.T) {
	d := NewDraft().AddFiles(File{Name: "a.png", Size: 5}).AddTag("OCT")
	sub := NewSubmission(d, time.Now())

	d.Files[0].Name = "changed.png"
	d.Tags[0] = "changed"

	if sub.Files[0].Name != "a.png" || sub.Tags[0] != "OCT" {
		t.Errorf("snapshot shares memory with draft: %+v", sub)
	}
	if sub.TotalSize() != 5 {
		t.Errorf("TotalSize() = %d, want 5", sub.TotalSize())
	}
}

func TestValidateSubmission(t *testing.T) {
	valid := Submission{
		Files:      []File{{Name: "a.png", Size: 1}},
		Metadata:   fullMetadata(),
		Compliance: fullCompliance(),
	}

	tests := []struct {
		name  string
		edit  func(*Submission)
		code  IntakeCode
		field string
	}{
		{"valid", func(*Submission) {}, "", ""},
		{"no files", func(s *Submission) { s.Files = nil }, IntakeNoFiles, "files"},
		{"missing email", func(s *Submission) { s.Metadata.Email = "" }, IntakeMissingField, "email"},
		{"unknown data type", func(s *Submission) { s.Metadata.DataType = "Banana" }, IntakeInvalidField, "data_type"},
		{"unknown file format", func(s *Submission) { s.Metadata.FileFormat = "JPEG" }, IntakeInvalidField, "file_format"},
		{"compliance", func(s *Submission) { s.Compliance.DataRights = false }, IntakeComplianceIncomplete, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			sub.Files = append([]File(nil), valid.Files...)
			tt.edit(&sub)

			err := ValidateSubmission(sub)
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateSubmission() error = %v", err)
				}
				return
			}
			var ie *IntakeError
			if !errors.As(err, &ie) {
				t.Fatalf("ValidateSubmission() error = %v, want *IntakeError", err)
			}
			if ie.Code != tt.code || ie.Field != tt.field {
				t.Errorf("IntakeError = %+v, want code %s field %q", ie, tt.code, tt.field)
			}
		})
	}
}

func TestIntakeError_Error(t *testing.T) {
	err := &IntakeError{Code: IntakeMissingField, Field: "title", Message: "required field missing"}
	if got := err.Error(); !strings.Contains(got, "missing_field") || !strings.Contains(got, "title") {
		t.Errorf("Error() = %q", got)
	}
}
