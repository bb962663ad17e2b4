// Package catalog implements dataset discovery over the in-memory catalog:
// filtering, tag selection, ordering and pagination.
//
// Every function in this package is pure. Filter state is a value that the
// caller owns and replaces; the record collection is never mutated.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by seeds and the JSON API.
const DateLayout = "2006-01-02"

// All is the selector value meaning "no constraint" for categorical filters.
const All = "all"

// DataType is the closed set of dataset categories.
type DataType string

const (
	TypeTopography   DataType = "Topography"
	TypeTomography   DataType = "Tomography"
	TypeClinical     DataType = "Clinical"
	TypeBiomechanics DataType = "Biomechanics"
)

// DataTypes lists every DataType in display order.
var DataTypes = []DataType{TypeTopography, TypeTomography, TypeClinical, TypeBiomechanics}

// ParseDataType resolves a selector value. "" and "all" return the zero
// DataType, which matches every record.
func ParseDataType(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, All) {
		return "", nil
	}
	for _, t := range DataTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid enum: unknown data type %q", s)
}

// FileFormat is the closed set of dataset file formats.
type FileFormat string

const (
	FormatPNG   FileFormat = "PNG"
	FormatTIFF  FileFormat = "TIFF"
	FormatCSV   FileFormat = "CSV"
	FormatDICOM FileFormat = "DICOM"
)

// FileFormats lists every FileFormat in display order.
var FileFormats = []FileFormat{FormatPNG, FormatTIFF, FormatCSV, FormatDICOM}

// ParseFileFormat resolves a selector value. "" and "all" return the zero
// FileFormat, which matches every record.
func ParseFileFormat(s string) (FileFormat, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, All) {
		return "", nil
	}
	for _, f := range FileFormats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid enum: unknown file format %q", s)
}

// DatasetRecord is a read-only catalog entry.
type DatasetRecord struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        DataType   `json:"type"`
	Format      FileFormat `json:"format"`
	Device      string     `json:"device"`
	Tags        []string   `json:"tags"`
	Downloads   int        `json:"downloads"`
	Date        time.Time  `json:"-"`
	License     string     `json:"license,omitempty"`
	Thumbnail   string     `json:"thumbnail,omitempty"`

	// Detail fields, shown on the dataset page only.
	Views          int    `json:"views,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	FileSize       string `json:"file_size,omitempty"`
	SampleCount    int    `json:"sample_count,omitempty"`
	Institution    string `json:"institution,omitempty"`
	Author         string `json:"author,omitempty"`
	DOI            string `json:"doi,omitempty"`
	Citation       string `json:"citation,omitempty"`
	Methodology    string `json:"methodology,omitempty"`
	EthicsApproval string `json:"ethics_approval,omitempty"`
	FundingSource  string `json:"funding_source,omitempty"`
}

// DateString returns the record date in DateLayout.
func (r DatasetRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// HasTag reports whether the record carries tag.
func (r DatasetRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MarshalJSON writes Date as a calendar date.
func (r DatasetRecord) MarshalJSON() ([]byte, error) {
	type plain DatasetRecord
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain(r), r.DateString()})
}
