package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

func TestBrowseURL(t *testing.T) {
	tests := []struct {
		name  string
		state catalog.FilterState
		sort  catalog.SortKey
		want  string
	}{
		{"empty", catalog.NewFilterState(), catalog.SortNone, "/browse"},
		{"type and sort", catalog.NewFilterState().WithType(catalog.TypeClinical), catalog.SortDownloads, "/browse?sort=downloads&type=Clinical"},
		{"tags repeat", catalog.NewFilterState().WithTags("Pentacam", "Severe"), catalog.SortNone, "/browse?tag=Pentacam&tag=Severe"},
		{"search escaped", catalog.NewFilterState().WithSearch("a&b"), catalog.SortNone, "/browse?q=a%26b"},
		{"page one omitted", catalog.NewFilterState().WithPage(1), catalog.SortNone, "/browse"},
		{"page kept", catalog.NewFilterState().WithPage(3), catalog.SortNone, "/browse?page=3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BrowseURL(tt.state, tt.sort); got != tt.want {
				t.Errorf("BrowseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := formatCount(tt.n); got != tt.want {
			t.Errorf("formatCount(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestDatasetPage_EscapesText(t *testing.T) {
	rec := catalog.DatasetRecord{
		ID:          7,
		Title:       `<script>alert("x")</script>`,
		Description: "Tom & Jerry",
		Type:        catalog.TypeClinical,
		Format:      catalog.FormatCSV,
		Tags:        []string{"<b>"},
	}

	var buf bytes.Buffer
	if err := DatasetPage(DatasetParams{Dataset: rec}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>alert") {
		t.Error("title was not escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("escaped title missing")
	}
	if !strings.Contains(out, "Tom &amp; Jerry") {
		t.Error("escaped description missing")
	}
}

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	page := Layout("Error", "", ErrorAlert("Dataset not found", "Go back", "CAT001"))
	if err := page.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<!doctype html>", "Dataset not found", "Go back", "Code: CAT001"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestLayout_MarksActiveNav(t *testing.T) {
	var buf bytes.Buffer
	if err := DocsPage().Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `<a href="/docs" class="active">API Docs</a>`) {
		t.Error("docs nav item not marked active")
	}
	if strings.Contains(out, `<a href="/browse" class="active">`) {
		t.Error("browse nav item marked active on the docs page")
	}
}

func TestBrowsePage_SelectedFilters(t *testing.T) {
	state := catalog.NewFilterState().WithType(catalog.TypeClinical).WithTags("Pentacam")
	params := BrowseParams{
		View: catalog.View{
			State:      state,
			Sort:       catalog.SortDownloads,
			Items:      []catalog.DatasetRecord{{ID: 3, Title: "Cohort", Type: catalog.TypeClinical, Format: catalog.FormatCSV, Tags: []string{"Pentacam"}}},
			Total:      1,
			Page:       1,
			TotalPages: 1,
		},
		Facets: catalog.Facets{
			Types: catalog.DataTypes,
			Tags:  []string{"Pentacam", "Severe"},
		},
	}

	var buf bytes.Buffer
	if err := BrowsePage(params).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<option value="Clinical" selected>`,
		`<option value="downloads" selected>`,
		`<input type="hidden" name="tag" value="Pentacam">`,
		`class="tag tag-selected">Pentacam</a>`,
		`class="tag">Severe</a>`,
		`<span class="tag tag-selected">Pentacam</span>`,
		`href="/dataset/3"`,
		"1 datasets found",
		"Clear all filters",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, `class="pagination"`) {
		t.Error("pagination rendered for a single page")
	}
}

func TestBrowsePage_Empty(t *testing.T) {
	params := BrowseParams{View: catalog.View{State: catalog.NewFilterState(), Page: 1}}

	var buf bytes.Buffer
	if err := BrowsePage(params).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No datasets match your filters.") {
		t.Error("empty state missing")
	}
	if strings.Contains(out, "Clear all filters") {
		t.Error("clear link shown without active filters")
	}
}
