package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/kcportal/internal/catalog"
	"github.com/JonMunkholm/kcportal/internal/review"
	"github.com/JonMunkholm/kcportal/internal/workflow"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "blocked metadata step maps to required field",
			err:         &workflow.ValidationError{Step: workflow.StepMetadata, Fields: []workflow.FieldError{{Field: "title"}}},
			wantCode:    "VAL003",
			wantMessage: "Required field is empty",
		},
		{
			name:        "intake missing field wins over required field",
			err:         fmt.Errorf("submit x: %w", &workflow.IntakeError{Code: workflow.IntakeMissingField, Field: "email", Message: "required field missing"}),
			wantCode:    "SUB003",
			wantMessage: "The submission is missing required metadata",
		},
		{
			name:        "unknown data type maps to invalid enum",
			err:         &workflow.ValidationError{Step: workflow.StepMetadata, Fields: []workflow.FieldError{{Field: "data_type", Message: "invalid enum: not an allowed value"}}},
			wantCode:    "VAL004",
			wantMessage: "Value is not in the allowed list",
		},
		{
			name:        "intake invalid field",
			err:         fmt.Errorf("submit x: %w", &workflow.IntakeError{Code: workflow.IntakeInvalidField, Field: "file_format", Message: "invalid enum: not an allowed value"}),
			wantCode:    "SUB006",
			wantMessage: "The submission uses a data type or file format that is not offered",
		},
		{
			name:        "intake unavailable",
			err:         &workflow.IntakeError{Code: workflow.IntakeUnavailable, Message: "broker down"},
			wantCode:    "SUB001",
			wantMessage: "The dataset intake is temporarily unavailable",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("%w: scan.dcm", workflow.ErrFileTooLarge),
			wantCode:    "UPL002",
			wantMessage: "File exceeds maximum size limit (100MB)",
		},
		{
			name:        "unsupported file",
			err:         workflow.ErrUnsupportedFile,
			wantCode:    "UPL001",
			wantMessage: "This file type is not supported",
		},
		{
			name:        "closed session reads as missing draft",
			err:         workflow.ErrSessionClosed,
			wantCode:    "WF001",
			wantMessage: "Draft not found",
		},
		{
			name:        "review comment",
			err:         review.ErrCommentRequired,
			wantCode:    "REV001",
			wantMessage: "A comment is required to reject or request a revision",
		},
		{
			name:        "catalog miss",
			err:         fmt.Errorf("%w: 42", catalog.ErrNotFound),
			wantCode:    "CAT001",
			wantMessage: "Dataset not found",
		},
		{
			name:        "enum",
			err:         errors.New("invalid enum: unknown data type \"MRI\""),
			wantCode:    "VAL004",
			wantMessage: "Value is not in the allowed list",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DRAFT NOT FOUND: abc"),
			wantCode:    "WF001",
			wantMessage: "Draft not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrDraftNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("%w: 9", review.ErrNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "This dataset is not waiting for review" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, review.ErrNotFound) {
			t.Error("Unwrap() should return original error")
		}
	})
}
