package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// FilterState is the session-owned browse state. Zero values mean "no
// constraint"; Page is 1-based.
type FilterState struct {
	Search string     `json:"q,omitempty"`
	Type   DataType   `json:"type,omitempty"`
	Format FileFormat `json:"format,omitempty"`
	Device string     `json:"device,omitempty"`
	Tags   []string   `json:"tags,omitempty"`
	Page   int        `json:"page"`
}

// NewFilterState returns the unconstrained state on page 1.
func NewFilterState() FilterState {
	return FilterState{Page: 1}
}

// WithSearch replaces the search query and resets to page 1.
func (s FilterState) WithSearch(q string) FilterState {
	s.Search = q
	s.Page = 1
	return s
}

// WithType replaces the type selector and resets to page 1.
func (s FilterState) WithType(t DataType) FilterState {
	s.Type = t
	s.Page = 1
	return s
}

// WithFormat replaces the format selector and resets to page 1.
func (s FilterState) WithFormat(f FileFormat) FilterState {
	s.Format = f
	s.Page = 1
	return s
}

// WithDevice replaces the device selector and resets to page 1.
func (s FilterState) WithDevice(device string) FilterState {
	if strings.EqualFold(strings.TrimSpace(device), All) {
		device = ""
	}
	s.Device = device
	s.Page = 1
	return s
}

// WithTags replaces the selected tag set and resets to page 1. Duplicates
// are dropped, first occurrence wins.
func (s FilterState) WithTags(tags ...string) FilterState {
	var out []string
	for _, t := range tags {
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	s.Tags = out
	s.Page = 1
	return s
}

// WithPage moves to page without touching the filters.
func (s FilterState) WithPage(page int) FilterState {
	s.Page = page
	return s
}

// Toggle flips tag and resets to page 1.
func (s FilterState) Toggle(tag string) FilterState {
	s = ToggleTag(s, tag)
	s.Page = 1
	return s
}

// Clear drops every constraint.
func (s FilterState) Clear() FilterState {
	return NewFilterState()
}

// Active reports whether any constraint is set.
func (s FilterState) Active() bool {
	return s.Search != "" || s.Type != "" || s.Format != "" || s.Device != "" || len(s.Tags) > 0
}

// Equal compares two states, treating tag sets as sets.
func (s FilterState) Equal(o FilterState) bool {
	if s.Search != o.Search || s.Type != o.Type || s.Format != o.Format ||
		s.Device != o.Device || s.Page != o.Page || len(s.Tags) != len(o.Tags) {
		return false
	}
	for _, t := range s.Tags {
		if !slices.Contains(o.Tags, t) {
			return false
		}
	}
	return true
}

// ToggleTag adds tag to the selection if absent and removes it if present.
// Nothing else in the state changes.
func ToggleTag(s FilterState, tag string) FilterState {
	if tag == "" {
		return s
	}
	if i := slices.Index(s.Tags, tag); i >= 0 {
		s.Tags = slices.Delete(slices.Clone(s.Tags), i, i+1)
		if len(s.Tags) == 0 {
			s.Tags = nil
		}
		return s
	}
	s.Tags = append(slices.Clone(s.Tags), tag)
	return s
}

// ApplyFilters returns the records matching every constraint in s, in
// collection order. The result is a new slice; an empty result is valid.
func ApplyFilters(records []DatasetRecord, s FilterState) []DatasetRecord {
	m := newMatcher(s)
	out := make([]DatasetRecord, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

type matcher struct {
	fold   cases.Caser
	query  string
	state  FilterState
	device string
}

func newMatcher(s FilterState) *matcher {
	fold := cases.Fold()
	device := s.Device
	if strings.EqualFold(device, All) {
		device = ""
	}
	return &matcher{
		fold:   fold,
		query:  fold.String(s.Search),
		state:  s,
		device: device,
	}
}

func (m *matcher) match(r DatasetRecord) bool {
	return m.matchSearch(r) &&
		(m.state.Type == "" || r.Type == m.state.Type) &&
		(m.state.Format == "" || r.Format == m.state.Format) &&
		(m.device == "" || r.Device == m.device) &&
		m.matchTags(r)
}

func (m *matcher) matchSearch(r DatasetRecord) bool {
	if m.query == "" {
		return true
	}
	return strings.Contains(m.fold.String(r.Title), m.query) ||
		strings.Contains(m.fold.String(r.Description), m.query)
}

// matchTags uses ANY semantics: one shared tag is enough.
func (m *matcher) matchTags(r DatasetRecord) bool {
	if len(m.state.Tags) == 0 {
		return true
	}
	for _, t := range m.state.Tags {
		if r.HasTag(t) {
			return true
		}
	}
	return false
}
