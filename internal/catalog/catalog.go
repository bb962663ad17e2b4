package catalog

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotFound is returned when a dataset id is not in the catalog.
var ErrNotFound = errors.New("dataset not found")

// Catalog holds an immutable record collection. It is safe for concurrent
// use because nothing mutates it after construction.
type Catalog struct {
	records  []DatasetRecord
	byID     map[int]int
	pageSize int
}

// New builds a catalog over records. Records are copied; ids must be unique.
func New(records []DatasetRecord, pageSize int) (*Catalog, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	c := &Catalog{
		records:  slices.Clone(records),
		byID:     make(map[int]int, len(records)),
		pageSize: pageSize,
	}
	for i, r := range c.records {
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, r.ID)
		}
		c.byID[r.ID] = i
	}
	return c, nil
}

// PageSize returns the configured page size.
func (c *Catalog) PageSize() int { return c.pageSize }

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// Records returns a copy of the collection in seed order.
func (c *Catalog) Records() []DatasetRecord {
	return slices.Clone(c.records)
}

// View is one rendered page of a browse query.
type View struct {
	State      FilterState     `json:"state"`
	Sort       SortKey         `json:"sort,omitempty"`
	Items      []DatasetRecord `json:"data"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// HasPrev reports whether a previous page exists.
func (v View) HasPrev() bool { return v.Page > 1 }

// HasNext reports whether a next page exists.
func (v View) HasNext() bool { return v.Page < v.TotalPages }

// Query filters, orders and paginates the catalog. The page in the returned
// view (and its State) is clamped into [1, TotalPages].
func (c *Catalog) Query(state FilterState, key SortKey) View {
	matches := Sort(ApplyFilters(c.records, state), key)
	totalPages := TotalPages(len(matches), c.pageSize)

	page := state.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	state.Page = page

	items, _ := Paginate(matches, page, c.pageSize)
	return View{
		State:      state,
		Sort:       key,
		Items:      items,
		Total:      len(matches),
		Page:       page,
		PageSize:   c.pageSize,
		TotalPages: totalPages,
	}
}

// Get returns the record with id.
func (c *Catalog) Get(id int) (DatasetRecord, error) {
	i, ok := c.byID[id]
	if !ok {
		return DatasetRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return c.records[i], nil
}

// Related returns up to n other records, those sharing the type of id
// first, each group in collection order.
func (c *Catalog) Related(id, n int) ([]DatasetRecord, error) {
	self, err := c.Get(id)
	if err != nil {
		return nil, err
	}

	var same, other []DatasetRecord
	for _, r := range c.records {
		switch {
		case r.ID == self.ID:
		case r.Type == self.Type:
			same = append(same, r)
		default:
			other = append(other, r)
		}
	}
	out := append(same, other...)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Facets lists the values a browse form can offer.
type Facets struct {
	Types   []DataType   `json:"types"`
	Formats []FileFormat `json:"formats"`
	Devices []string     `json:"devices"`
	Tags    []string     `json:"tags"`
}

// Facets collects devices and tags in first-seen order.
func (c *Catalog) Facets() Facets {
	f := Facets{
		Types:   slices.Clone(DataTypes),
		Formats: slices.Clone(FileFormats),
		Devices: []string{},
		Tags:    []string{},
	}
	for _, r := range c.records {
		if r.Device != "" && !slices.Contains(f.Devices, r.Device) {
			f.Devices = append(f.Devices, r.Device)
		}
		for _, t := range r.Tags {
			if !slices.Contains(f.Tags, t) {
				f.Tags = append(f.Tags, t)
			}
		}
	}
	return f
}

// Stats summarizes the catalog for the landing page.
type Stats struct {
	Datasets     int `json:"datasets"`
	Downloads    int `json:"downloads"`
	Institutions int `json:"institutions"`
	Devices      int `json:"devices"`
}

// Stats counts datasets, downloads and distinct institutions and devices.
func (c *Catalog) Stats() Stats {
	institutions := make(map[string]bool)
	devices := make(map[string]bool)
	s := Stats{Datasets: len(c.records)}
	for _, r := range c.records {
		s.Downloads += r.Downloads
		if r.Institution != "" {
			institutions[r.Institution] = true
		}
		if r.Device != "" {
			devices[r.Device] = true
		}
	}
	s.Institutions = len(institutions)
	s.Devices = len(devices)
	return s
}
