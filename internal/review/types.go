// Package review holds the admin moderation queue: datasets waiting for a
// decision, the review history, and the intake path that turns workflow
// submissions into queue entries.
package review

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

// Status is the moderation state of a dataset.
type Status string

const (
	StatusPending       Status = "pending"
	StatusUnderReview   Status = "under_review"
	StatusNeedsRevision Status = "needs_revision"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusUnderReview, StatusNeedsRevision, StatusApproved, StatusRejected}

// Label returns the badge text for s.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusUnderReview:
		return "Under Review"
	case StatusNeedsRevision:
		return "Needs Revision"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// ParseStatus resolves a filter value; "" and "all" return the zero Status.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == catalog.All {
		return "", nil
	}
	for _, st := range Statuses {
		if s == string(st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid enum: unknown review status %q", s)
}

// Priority orders the pending queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Checks mirrors the submitter's compliance attestations.
type Checks struct {
	Deidentified     bool `json:"deidentified" yaml:"deidentified"`
	EthicsApproval   bool `json:"ethics_approval" yaml:"ethics_approval"`
	DataRights       bool `json:"data_rights" yaml:"data_rights"`
	LicenseAgreement bool `json:"license_agreement" yaml:"license_agreement"`
}

// Passed reports whether every check is satisfied.
func (c Checks) Passed() bool {
	return c.Deidentified && c.EthicsApproval && c.DataRights && c.LicenseAgreement
}

// Entry is a dataset waiting in the moderation queue.
type Entry struct {
	ID           int              `json:"id" validate:"gt=0"`
	SubmissionID string           `json:"submission_id,omitempty"`
	Title        string           `json:"title" validate:"required"`
	Type         catalog.DataType `json:"type" validate:"required"`
	Uploader     string           `json:"uploader" validate:"required"`
	Institution  string           `json:"institution" validate:"required"`
	Email        string           `json:"email" validate:"required,email"`
	UploadDate   time.Time        `json:"-"`
	FileCount    int              `json:"file_count" validate:"gte=0"`
	FileSize     string           `json:"file_size"`
	Thumbnail    string           `json:"thumbnail,omitempty"`
	Status       Status           `json:"status" validate:"oneof=pending under_review needs_revision"`
	Priority     Priority         `json:"priority" validate:"oneof=high medium low"`
	Description  string           `json:"description"`
	Tags         []string         `json:"tags"`
	Checks       Checks           `json:"compliance_checks"`
	QualityScore int              `json:"quality_score" validate:"gte=0,lte=100"`
	Note         string           `json:"note,omitempty"`
}

// MarshalJSON renders UploadDate as a calendar date.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		UploadDate string `json:"upload_date"`
	}{plain(e), e.UploadDate.Format(catalog.DateLayout)})
}

// Record is one completed review.
type Record struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Uploader    string    `json:"uploader"`
	Institution string    `json:"institution"`
	ReviewDate  time.Time `json:"-"`
	Status      Status    `json:"status"`
	Reviewer    string    `json:"reviewer"`
	Reason      string    `json:"reason,omitempty"`
}

// MarshalJSON renders ReviewDate as a calendar date.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		ReviewDate string `json:"review_date"`
	}{plain(r), r.ReviewDate.Format(catalog.DateLayout)})
}
