package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// DefaultPageSize matches the browse grid (two rows of three cards).
const DefaultPageSize = 6

// TotalPages returns ceil(n/pageSize), never less than 1.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := (n + pageSize - 1) / pageSize
	if total < 1 {
		total = 1
	}
	return total
}

// Paginate returns the slice of matches for a 1-based page along with the
// page count. Pages outside [1, totalPages] yield an empty slice; clamping
// is the caller's job.
func Paginate(matches []DatasetRecord, page, pageSize int) ([]DatasetRecord, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := TotalPages(len(matches), pageSize)
	if page < 1 || page > totalPages {
		return []DatasetRecord{}, totalPages
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(matches))
	if start >= end {
		return []DatasetRecord{}, totalPages
	}
	return matches[start:end:end], totalPages
}

// SortKey selects a result ordering.
type SortKey string

const (
	SortNone      SortKey = ""
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortDownloads SortKey = "downloads"
	SortTitle     SortKey = "title"
)

// SortKeys lists the selectable orderings with their labels.
var SortKeys = []struct {
	Key   SortKey
	Label string
}{
	{SortNewest, "Newest First"},
	{SortOldest, "Oldest First"},
	{SortDownloads, "Most Downloaded"},
	{SortTitle, "Title A-Z"},
}

// ParseSortKey validates a sort parameter. An empty value means no sort.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case SortNone, SortNewest, SortOldest, SortDownloads, SortTitle:
		return k, nil
	}
	return SortNone, fmt.Errorf("invalid enum: unknown sort key %q", s)
}

// Sort returns a stably ordered copy of matches. Ties keep their relative
// order from the input.
func Sort(matches []DatasetRecord, key SortKey) []DatasetRecord {
	out := slices.Clone(matches)
	if out == nil {
		out = []DatasetRecord{}
	}

	var less func(a, b DatasetRecord) int
	switch key {
	case SortNewest:
		less = func(a, b DatasetRecord) int { return b.Date.Compare(a.Date) }
	case SortOldest:
		less = func(a, b DatasetRecord) int { return a.Date.Compare(b.Date) }
	case SortDownloads:
		less = func(a, b DatasetRecord) int { return cmp.Compare(b.Downloads, a.Downloads) }
	case SortTitle:
		less = func(a, b DatasetRecord) int { return strings.Compare(a.Title, b.Title) }
	default:
		return out
	}

	slices.SortStableFunc(out, less)
	return out
}
