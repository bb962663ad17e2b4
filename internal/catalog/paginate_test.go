package catalog

import (
	"fmt"
	"testing"
)

func numbered(n int) []DatasetRecord {
	out := make([]DatasetRecord, n)
	for i := range out {
		out[i] = DatasetRecord{ID: i + 1, Title: fmt.Sprintf("Dataset %d", i+1)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		page       int
		pageSize   int
		wantIDs    []int
		wantTotalP int
	}{
		{"empty has one page", 0, 1, 6, []int{}, 1},
		{"exactly one page", 6, 1, 6, []int{1, 2, 3, 4, 5, 6}, 1},
		{"seven spill to page two", 7, 2, 6, []int{7}, 2},
		{"first of two", 7, 1, 6, []int{1, 2, 3, 4, 5, 6}, 2},
		{"beyond last page", 7, 3, 6, []int{}, 2},
		{"page zero", 7, 0, 6, []int{}, 2},
		{"zero size uses default", 7, 2, 0, []int{7}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total := Paginate(numbered(tt.n), tt.page, tt.pageSize)
			if total != tt.wantTotalP {
				t.Errorf("totalPages = %d, want %d", total, tt.wantTotalP)
			}
			if got := ids(items); !equalIDs(got, tt.wantIDs) {
				t.Errorf("items = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestPaginate_ResultIsNotAppendable(t *testing.T) {
	all := numbered(7)
	page, _ := Paginate(all, 1, 6)
	_ = append(page, DatasetRecord{ID: 99})
	if all[6].ID != 7 {
		t.Errorf("append through page overwrote source: %d", all[6].ID)
	}
}

func TestSort(t *testing.T) {
	records := sampleRecords()
	records[0].Downloads = 10
	records[1].Downloads = 30
	records[2].Downloads = 20
	records[3].Downloads = 30
	records[4].Downloads = 5

	tests := []struct {
		key  SortKey
		want []int
	}{
		{SortNone, []int{1, 2, 3, 4, 5}},
		{SortNewest, []int{5, 4, 3, 2, 1}},
		{SortOldest, []int{1, 2, 3, 4, 5}},
		{SortDownloads, []int{2, 4, 3, 1, 5}},
		{SortTitle, []int{3, 5, 2, 1, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := ids(Sort(records, tt.key))
			if !equalIDs(got, tt.want) {
				t.Errorf("Sort(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSort_TitleIsStable(t *testing.T) {
	records := []DatasetRecord{
		{ID: 1, Title: "B"},
		{ID: 2, Title: "A"},
		{ID: 3, Title: "B"},
		{ID: 4, Title: "A"},
		{ID: 5, Title: "B"},
	}
	got := ids(Sort(records, SortTitle))
	want := []int{2, 4, 1, 3, 5}
	if !equalIDs(got, want) {
		t.Errorf("Sort(title) = %v, want %v", got, want)
	}
	if ids(records)[0] != 1 {
		t.Error("Sort mutated its input")
	}
}

func TestParseSortKey(t *testing.T) {
	for _, in := range []string{"", "newest", "Oldest", "downloads", "title"} {
		if _, err := ParseSortKey(in); err != nil {
			t.Errorf("ParseSortKey(%q) error = %v", in, err)
		}
	}
	if _, err := ParseSortKey("relevance"); err == nil {
		t.Error("ParseSortKey(relevance) expected error")
	}
}
