// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date: A date is not in YYYY-MM-DD form
//	         Patterns: "invalid date"
//
//	VAL002 - Invalid number: A numeric value could not be parsed
//	         Patterns: "invalid number"
//
//	VAL003 - Required field: A required field is empty
//	         Patterns: "required field"
//
//	VAL004 - Invalid enum: Value is not in the allowed list
//	         Patterns: "invalid enum"
//
//	VAL005 - Invalid request: The request body could not be read
//	         Patterns: "invalid request"
//
// # Upload Errors (UPL001-UPL099)
//
// Errors raised while selecting files for a draft:
//
//	UPL001 - Unsupported file: Only PNG, TIFF, CSV and DICOM are accepted
//	         Patterns: "unsupported file type"
//
//	UPL002 - File too large: File exceeds maximum size limit (100MB)
//	         Patterns: "file too large"
//
//	UPL003 - Empty file: The selected file is empty
//	         Patterns: "empty file"
//
//	UPL004 - Unknown file: The file is no longer in the draft
//	         Patterns: "file index out of range"
//
//	UPL005 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL006 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Workflow Errors (WF001-WF099)
//
//	WF001 - Draft not found: The draft expired or was discarded
//	        Patterns: "draft not found", "upload session closed"
//
//	WF002 - Already at review: Use submit to finish the wizard
//	        Patterns: "already at review step"
//
//	WF003 - Not at review: Submit is only available on the last step
//	        Patterns: "only available at the review step"
//
//	WF004 - Too many drafts: The server has reached its open draft limit
//	        Patterns: "too many open drafts"
//
// # Submission Errors (SUB001-SUB099)
//
// Refusals from the dataset intake:
//
//	SUB001 - Intake unavailable     Patterns: "submission rejected (unavailable)"
//	SUB002 - Compliance incomplete  Patterns: "submission rejected (compliance_incomplete)"
//	SUB003 - Missing field          Patterns: "submission rejected (missing_field)"
//	SUB004 - No files               Patterns: "submission rejected (no_files)"
//	SUB006 - Invalid field          Patterns: "submission rejected (invalid_field)"
//	SUB005 - Rejected               Patterns: "submission rejected"
//
// # Review Errors (REV001-REV099)
//
//	REV001 - Comment required: Reject and revision need a comment
//	         Patterns: "comment required"
//
//	REV002 - Invalid action: Action must be approve, reject or revision
//	         Patterns: "invalid review action"
//
//	REV003 - Not in queue: The dataset is not waiting for review
//	         Patterns: "not in review queue"
//
// # Catalog Errors (CAT001-CAT099)
//
//	CAT001 - Dataset not found      Patterns: "dataset not found"
//	CAT002 - Duplicate dataset id   Patterns: "duplicate dataset id"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed
// before general ones.

package core

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Order matters: submission refusals embed "required field" and
// must match before the generic validation entry.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Submission (SUB001-SUB005)
	// =========================================================================
	{
		pattern: "submission rejected (unavailable)",
		msg: UserMessage{
			Message: "The dataset intake is temporarily unavailable",
			Action:  "Your draft was kept. Please try submitting again shortly",
			Code:    "SUB001",
		},
	},
	{
		pattern: "submission rejected (compliance_incomplete)",
		msg: UserMessage{
			Message: "All compliance attestations are required",
			Action:  "Go back to the compliance step and confirm every item",
			Code:    "SUB002",
		},
	},
	{
		pattern: "submission rejected (missing_field)",
		msg: UserMessage{
			Message: "The submission is missing required metadata",
			Action:  "Go back to the metadata step and complete every required field",
			Code:    "SUB003",
		},
	},
	{
		pattern: "submission rejected (invalid_field)",
		msg: UserMessage{
			Message: "The submission uses a data type or file format that is not offered",
			Action:  "Pick the data type and file format from the lists on the metadata step",
			Code:    "SUB006",
		},
	},
	{
		pattern: "submission rejected (no_files)",
		msg: UserMessage{
			Message: "The submission has no files",
			Action:  "Add at least one file before submitting",
			Code:    "SUB004",
		},
	},
	{
		pattern: "submission rejected",
		msg: UserMessage{
			Message: "The submission was rejected",
			Action:  "Review your draft and try again",
			Code:    "SUB005",
		},
	},

	// =========================================================================
	// Validation (VAL001-VAL005)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use a whole, non-negative number",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Fill in every required field before continuing",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid enum",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Check the allowed values for this field",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the request body and parameters",
			Code:    "VAL005",
		},
	},

	// =========================================================================
	// Upload (UPL001-UPL006)
	// =========================================================================
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload PNG, TIFF, CSV or DICOM files",
			Code:    "UPL001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit (100MB)",
			Action:  "Split the dataset into smaller files",
			Code:    "UPL002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The selected file is empty",
			Action:  "Choose a file with content",
			Code:    "UPL003",
		},
	},
	{
		pattern: "file index out of range",
		msg: UserMessage{
			Message: "That file is no longer part of the draft",
			Action:  "Refresh the file list and try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "UPL006",
		},
	},

	// =========================================================================
	// Workflow (WF001-WF004)
	// =========================================================================
	{
		pattern: "draft not found",
		msg: UserMessage{
			Message: "Draft not found",
			Action:  "The draft may have expired. Please start a new upload",
			Code:    "WF001",
		},
	},
	{
		pattern: "upload session closed",
		msg: UserMessage{
			Message: "Draft not found",
			Action:  "The draft may have expired. Please start a new upload",
			Code:    "WF001",
		},
	},
	{
		pattern: "already at review step",
		msg: UserMessage{
			Message: "You are already on the last step",
			Action:  "Submit the dataset to finish",
			Code:    "WF002",
		},
	},
	{
		pattern: "only available at the review step",
		msg: UserMessage{
			Message: "The dataset can only be submitted from the review step",
			Action:  "Complete the remaining steps first",
			Code:    "WF003",
		},
	},
	{
		pattern: "too many open drafts",
		msg: UserMessage{
			Message: "The portal is busy with other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "WF004",
		},
	},

	// =========================================================================
	// Review (REV001-REV003)
	// =========================================================================
	{
		pattern: "comment required",
		msg: UserMessage{
			Message: "A comment is required to reject or request a revision",
			Action:  "Explain the decision so the submitter can act on it",
			Code:    "REV001",
		},
	},
	{
		pattern: "invalid review action",
		msg: UserMessage{
			Message: "Unknown review action",
			Action:  "Choose approve, reject or revision",
			Code:    "REV002",
		},
	},
	{
		pattern: "not in review queue",
		msg: UserMessage{
			Message: "This dataset is not waiting for review",
			Action:  "Refresh the queue",
			Code:    "REV003",
		},
	},

	// =========================================================================
	// Catalog (CAT001-CAT002)
	// =========================================================================
	{
		pattern: "dataset not found",
		msg: UserMessage{
			Message: "Dataset not found",
			Action:  "Return to the catalog and pick another dataset",
			Code:    "CAT001",
		},
	},
	{
		pattern: "duplicate dataset id",
		msg: UserMessage{
			Message: "The catalog contains duplicate dataset ids",
			Action:  "Fix the catalog seed file",
			Code:    "CAT002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
