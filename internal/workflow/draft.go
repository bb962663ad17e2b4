// Package workflow implements the four-step dataset submission wizard:
// file selection, metadata, compliance and review.
//
// Draft is a value. Every operation on it returns a new Draft and leaves
// the receiver untouched. Session wraps one Draft with the upload progress
// simulation and the submit hand-off; it is the only mutable type here.
package workflow

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

// Step is a position in the wizard, 1-based.
type Step int

const (
	StepUploadFiles Step = iota + 1
	StepMetadata
	StepCompliance
	StepReview
)

// Steps lists every step in order.
var Steps = []Step{StepUploadFiles, StepMetadata, StepCompliance, StepReview}

func (s Step) String() string {
	switch s {
	case StepUploadFiles:
		return "File Upload"
	case StepMetadata:
		return "Metadata"
	case StepCompliance:
		return "Compliance"
	case StepReview:
		return "Review & Submit"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// ErrFileIndex is returned by RemoveFile for an index outside the file list.
var ErrFileIndex = errors.New("file index out of range")

// File is a handle to a selected file. Contents are never transferred.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Metadata is the descriptive part of a draft.
type Metadata struct {
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	DataType             catalog.DataType   `json:"data_type"`
	FileFormat           catalog.FileFormat `json:"file_format"`
	Device               string             `json:"device"`
	Resolution           string             `json:"resolution"`
	SampleCount          string             `json:"sample_count"`
	Author               string             `json:"author"`
	Institution          string             `json:"institution"`
	Email                string             `json:"email"`
	FundingSource        string             `json:"funding_source"`
	EthicsApprovalNumber string             `json:"ethics_approval_number"`
}

// Compliance holds the four attestations required before submission.
type Compliance struct {
	Deidentified     bool `json:"deidentified"`
	EthicsApproved   bool `json:"ethics_approved"`
	DataRights       bool `json:"data_rights"`
	LicenseAgreement bool `json:"license_agreement"`
}

// Complete reports whether every attestation is given.
func (c Compliance) Complete() bool {
	return c.Deidentified && c.EthicsApproved && c.DataRights && c.LicenseAgreement
}

// Draft is the in-progress submission.
type Draft struct {
	Step           Step       `json:"step"`
	Files          []File     `json:"files"`
	UploadProgress int        `json:"upload_progress"`
	Uploading      bool       `json:"uploading"`
	Metadata       Metadata   `json:"metadata"`
	Tags           []string   `json:"tags"`
	Compliance     Compliance `json:"compliance"`
}

// NewDraft returns an empty draft on the first step.
func NewDraft() Draft {
	return Draft{Step: StepUploadFiles, Files: []File{}, Tags: []string{}}
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	d.Files = slices.Clone(d.Files)
	d.Tags = slices.Clone(d.Tags)
	if d.Files == nil {
		d.Files = []File{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

// TotalSize sums the selected file sizes.
func (d Draft) TotalSize() int64 {
	var n int64
	for _, f := range d.Files {
		n += f.Size
	}
	return n
}

// AddFiles appends files in order.
func (d Draft) AddFiles(files ...File) Draft {
	d = d.Clone()
	d.Files = append(d.Files, files...)
	return d
}

// RemoveFile drops the file at index i.
func (d Draft) RemoveFile(i int) (Draft, error) {
	if i < 0 || i >= len(d.Files) {
		return d, fmt.Errorf("%w: %d (have %d)", ErrFileIndex, i, len(d.Files))
	}
	d = d.Clone()
	d.Files = slices.Delete(d.Files, i, i+1)
	return d, nil
}

// AddTag appends tag after trimming. Empty and already present tags are
// ignored.
func (d Draft) AddTag(tag string) Draft {
	tag = strings.TrimSpace(tag)
	if tag == "" || slices.Contains(d.Tags, tag) {
		return d
	}
	d = d.Clone()
	d.Tags = append(d.Tags, tag)
	return d
}

// RemoveTag drops tag if present.
func (d Draft) RemoveTag(tag string) Draft {
	i := slices.Index(d.Tags, tag)
	if i < 0 {
		return d
	}
	d = d.Clone()
	d.Tags = slices.Delete(d.Tags, i, i+1)
	return d
}

// WithMetadata replaces the metadata. Data type and file format are
// stored in their canonical spelling when they name an allowed value.
func (d Draft) WithMetadata(m Metadata) Draft {
	if t, err := catalog.ParseDataType(string(m.DataType)); err == nil && t != "" {
		m.DataType = t
	}
	if f, err := catalog.ParseFileFormat(string(m.FileFormat)); err == nil && f != "" {
		m.FileFormat = f
	}
	d = d.Clone()
	d.Metadata = m
	return d
}

// WithCompliance replaces the attestations.
func (d Draft) WithCompliance(c Compliance) Draft {
	d = d.Clone()
	d.Compliance = c
	return d
}

// Limits constrains which files a draft accepts.
type Limits struct {
	MaxFileSize int64
	Extensions  []string
}

// DefaultLimits mirrors the upload page: PNG, TIFF, CSV and DICOM up to
// 100MB each.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize: 100 * 1024 * 1024,
		Extensions:  []string{".png", ".tiff", ".tif", ".csv", ".dcm"},
	}
}

// ErrUnsupportedFile is returned for a file whose extension is not allowed.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ErrFileTooLarge is returned for a file above the size limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrEmptyFile is returned for a file with no name or zero size.
var ErrEmptyFile = errors.New("empty file")

// Check validates a single file handle.
func (l Limits) Check(f File) error {
	if strings.TrimSpace(f.Name) == "" || f.Size <= 0 {
		return fmt.Errorf("%w: %q", ErrEmptyFile, f.Name)
	}
	if len(l.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if !slices.Contains(l.Extensions, ext) {
			return fmt.Errorf("%w: %q", ErrUnsupportedFile, f.Name)
		}
	}
	if l.MaxFileSize > 0 && f.Size > l.MaxFileSize {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", ErrFileTooLarge, f.Name, f.Size, l.MaxFileSize)
	}
	return nil
}
