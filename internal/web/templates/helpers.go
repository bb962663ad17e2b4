// Package templates renders the portal's HTML pages.
//
// Pages are written in the .templ files; the *_templ.go files next to them
// are produced by `templ generate` and checked in.
package templates

//go:generate templ generate

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

// BrowseURL encodes state and sort as /browse query parameters.
func BrowseURL(state catalog.FilterState, sort catalog.SortKey) string {
	q := url.Values{}
	if state.Search != "" {
		q.Set("q", state.Search)
	}
	if state.Type != "" {
		q.Set("type", string(state.Type))
	}
	if state.Format != "" {
		q.Set("format", string(state.Format))
	}
	if state.Device != "" {
		q.Set("device", state.Device)
	}
	for _, t := range state.Tags {
		q.Add("tag", t)
	}
	if sort != catalog.SortNone {
		q.Set("sort", string(sort))
	}
	if state.Page > 1 {
		q.Set("page", strconv.Itoa(state.Page))
	}
	if len(q) == 0 {
		return "/browse"
	}
	return "/browse?" + q.Encode()
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	if n < 0 {
		return "-" + formatCount(-n)
	}
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

// names converts typed enum values to select options.
func names[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func datasetURL(id int) templ.SafeURL {
	return templ.URL("/dataset/" + strconv.Itoa(id))
}

func tagURL(tag string) templ.SafeURL {
	return templ.URL(BrowseURL(catalog.NewFilterState().WithTags(tag), catalog.SortNone))
}
