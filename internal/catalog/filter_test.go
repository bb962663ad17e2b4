package catalog

import (
	"testing"
	"time"
)

func rec(id int, title string, typ DataType, format FileFormat, device string, tags ...string) DatasetRecord {
	return DatasetRecord{
		ID:          id,
		Title:       title,
		Description: "description of " + title,
		Type:        typ,
		Format:      format,
		Device:      device,
		Tags:        tags,
		Date:        time.Date(2024, 1, id, 0, 0, 0, 0, time.UTC),
	}
}

func ids(records []DatasetRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sampleRecords() []DatasetRecord {
	return []DatasetRecord{
		rec(1, "Pentacam Topography", TypeTopography, FormatPNG, "Pentacam HR", "Severe KC", "Topography", "Clinical"),
		rec(2, "OCT Tomography", TypeTomography, FormatTIFF, "Cirrus HD-OCT", "Early Stage", "OCT", "Screening"),
		rec(3, "Clinical Measurements", TypeClinical, FormatCSV, "Multiple", "Clinical", "Measurements"),
		rec(4, "Scheimpflug Imaging", TypeTopography, FormatPNG, "Pentacam AXL", "Progressive", "Longitudinal"),
		rec(5, "Corneal Biomechanics", TypeBiomechanics, FormatDICOM, "Ocular Response Analyzer", "Biomechanics"),
	}
}

func TestApplyFilters(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name  string
		state FilterState
		want  []int
	}{
		{"no constraints", NewFilterState(), []int{1, 2, 3, 4, 5}},
		{"search title case-insensitive", NewFilterState().WithSearch("pentacam"), []int{1}},
		{"search description", NewFilterState().WithSearch("DESCRIPTION OF oct"), []int{2}},
		{"search no match", NewFilterState().WithSearch("retina"), []int{}},
		{"type", NewFilterState().WithType(TypeTopography), []int{1, 4}},
		{"format", NewFilterState().WithFormat(FormatCSV), []int{3}},
		{"device", NewFilterState().WithDevice("Pentacam AXL"), []int{4}},
		{"device all", NewFilterState().WithDevice("all"), []int{1, 2, 3, 4, 5}},
		{"tags any", NewFilterState().WithTags("Topography", "OCT"), []int{1, 2}},
		{"tags and type", NewFilterState().WithTags("Clinical").WithType(TypeClinical), []int{3}},
		{"conjunction empties", NewFilterState().WithType(TypeTomography).WithFormat(FormatPNG), []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ApplyFilters(records, tt.state))
			if !equalIDs(got, tt.want) {
				t.Errorf("ApplyFilters() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFilters_EmptyTagsIsNoOp(t *testing.T) {
	records := sampleRecords()
	states := []FilterState{
		NewFilterState(),
		NewFilterState().WithSearch("o"),
		NewFilterState().WithType(TypeTopography),
		NewFilterState().WithFormat(FormatPNG).WithDevice("Pentacam HR"),
	}

	for _, s := range states {
		withEmpty := s
		withEmpty.Tags = []string{}
		got := ids(ApplyFilters(records, withEmpty))
		want := ids(ApplyFilters(records, s))
		if !equalIDs(got, want) {
			t.Errorf("state %+v: empty tags = %v, nil tags = %v", s, got, want)
		}
	}
}

func TestApplyFilters_AnyTagIntersection(t *testing.T) {
	records := sampleRecords()
	state := NewFilterState().WithTags("Topography", "OCT")

	for _, r := range records {
		matched := false
		for _, m := range ApplyFilters(records, state) {
			if m.ID == r.ID {
				matched = true
			}
		}
		shares := r.HasTag("Topography") || r.HasTag("OCT")
		if matched != shares {
			t.Errorf("record %d: matched = %v, shares tag = %v", r.ID, matched, shares)
		}
	}
}

func TestApplyFilters_DoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	_ = ApplyFilters(records, NewFilterState().WithType(TypeClinical))
	if got := ids(records); !equalIDs(got, []int{1, 2, 3, 4, 5}) {
		t.Errorf("input mutated: %v", got)
	}
}

func TestToggleTag(t *testing.T) {
	s := NewFilterState().WithTags("OCT")

	added := ToggleTag(s, "Clinical")
	if len(added.Tags) != 2 || added.Tags[1] != "Clinical" {
		t.Fatalf("after add, Tags = %v", added.Tags)
	}
	if len(s.Tags) != 1 {
		t.Errorf("original state mutated: %v", s.Tags)
	}

	removed := ToggleTag(added, "OCT")
	if len(removed.Tags) != 1 || removed.Tags[0] != "Clinical" {
		t.Errorf("after remove, Tags = %v", removed.Tags)
	}
}

func TestToggleTag_Idempotent(t *testing.T) {
	states := []FilterState{
		NewFilterState(),
		NewFilterState().WithTags("OCT", "Clinical"),
		NewFilterState().WithSearch("kc").WithPage(3),
	}
	tags := []string{"OCT", "Clinical", "Screening"}

	for _, s := range states {
		for _, tag := range tags {
			got := ToggleTag(ToggleTag(s, tag), tag)
			if !got.Equal(s) {
				t.Errorf("ToggleTag twice with %q: got %+v, want %+v", tag, got, s)
			}
		}
	}
}

func TestFilterState_SettersResetPage(t *testing.T) {
	base := NewFilterState().WithPage(4)

	tests := []struct {
		name string
		got  FilterState
	}{
		{"search", base.WithSearch("x")},
		{"type", base.WithType(TypeClinical)},
		{"format", base.WithFormat(FormatCSV)},
		{"device", base.WithDevice("TMS-5")},
		{"tags", base.WithTags("OCT")},
		{"toggle", base.Toggle("OCT")},
		{"clear", base.Clear()},
	}
	for _, tt := range tests {
		if tt.got.Page != 1 {
			t.Errorf("%s: Page = %d, want 1", tt.name, tt.got.Page)
		}
	}
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in      string
		want    DataType
		wantErr bool
	}{
		{"", "", false},
		{"all", "", false},
		{"ALL", "", false},
		{"topography", TypeTopography, false},
		{"Biomechanics", TypeBiomechanics, false},
		{"Retina", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDataType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDataType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDataType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFileFormat(t *testing.T) {
	if got, err := ParseFileFormat("dicom"); err != nil || got != FormatDICOM {
		t.Errorf("ParseFileFormat(dicom) = %q, %v", got, err)
	}
	if _, err := ParseFileFormat("JPEG"); err == nil {
		t.Error("ParseFileFormat(JPEG) expected error")
	}
}
