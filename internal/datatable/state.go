// Package datatable holds the view state of an interactive data table and
// everything derived from it: the state store and its mutators, the
// query-string encoding that mirrors the state into a shareable location,
// and the render engine that turns state plus one page of data into
// displayable rows, headers and pagination controls.
//
// Nothing in this package performs I/O. Data is fetched by the caller
// through a DataSource and handed to a Table with SetData.
package datatable

import (
	"slices"
	"time"
)

// DateLayout is the format of date range bounds (ISO calendar date).
const DateLayout = "2006-01-02"

// SortEntry is the single active sort of a table.
type SortEntry struct {
	ColumnID string
	Desc     bool
}

// FilterValue is the current value of one declared filter.
type FilterValue struct {
	FilterID string
	Value    string
}

// DateRange bounds are DateLayout strings or empty.
type DateRange struct {
	From string
	To   string
}

// IsZero reports whether neither bound is set.
func (d DateRange) IsZero() bool {
	return d.From == "" && d.To == ""
}

// Pagination is 0-based.
type Pagination struct {
	PageIndex int
	PageSize  int
}

// ViewState is every user-controllable display parameter of one table.
//
// Sorting holds at most one entry. ColumnVisibility only contains columns
// that were explicitly hidden (absent means visible). ColumnFilters only
// contains non-empty values, in filter declaration order.
type ViewState struct {
	Sorting          []SortEntry
	ColumnVisibility map[string]bool
	ColumnFilters    []FilterValue
	Search           string
	DateRange        DateRange
	Pagination       Pagination
}

// Clone returns a deep copy.
func (s ViewState) Clone() ViewState {
	out := s
	out.Sorting = slices.Clone(s.Sorting)
	out.ColumnFilters = slices.Clone(s.ColumnFilters)
	out.ColumnVisibility = make(map[string]bool, len(s.ColumnVisibility))
	for k, v := range s.ColumnVisibility {
		out.ColumnVisibility[k] = v
	}
	return out
}

// Sort returns the active sort entry, if any.
func (s ViewState) Sort() (SortEntry, bool) {
	if len(s.Sorting) == 0 {
		return SortEntry{}, false
	}
	return s.Sorting[0], true
}

// IsVisible reports whether a column is shown.
func (s ViewState) IsVisible(columnID string) bool {
	visible, ok := s.ColumnVisibility[columnID]
	return !ok || visible
}

// Filter returns the value of a filter, or "" when unset.
func (s ViewState) Filter(filterID string) string {
	for _, f := range s.ColumnFilters {
		if f.FilterID == filterID {
			return f.Value
		}
	}
	return ""
}

// Store owns the ViewState of one table instance. Every mutation produces a
// complete, valid state and then notifies subscribers in registration order.
type Store struct {
	cfg       Config
	state     ViewState
	observers []func(ViewState)
}

// NewStore returns a store holding the default state for cfg.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, state: defaultState(cfg, 0)}
}

// Subscribe registers fn to run after every committed mutation.
func (s *Store) Subscribe(fn func(ViewState)) {
	s.observers = append(s.observers, fn)
}

// State returns a copy of the current state.
func (s *Store) State() ViewState {
	return s.state.Clone()
}

// Config returns the configuration the store validates against.
func (s *Store) Config() Config {
	return s.cfg
}

// Initialize seeds the state from query parameters. Unknown keys are
// ignored and malformed values fall back to defaults. totalCount is only
// consulted when pagination is disabled, where it becomes the page size.
func (s *Store) Initialize(values map[string][]string, totalCount int) ViewState {
	s.commit(ParseQuery(values, s.cfg, totalCount))
	return s.State()
}

// SetSort advances the sort of columnID through none -> asc -> desc -> none.
// Sorting a different column replaces the current sort. Columns that are
// unknown or not sortable are ignored.
func (s *Store) SetSort(columnID string) {
	col, ok := s.cfg.column(columnID)
	if !ok || !col.Sortable {
		return
	}
	next := s.state.Clone()
	current, sorted := s.state.Sort()
	switch {
	case !sorted || current.ColumnID != columnID:
		next.Sorting = []SortEntry{{ColumnID: columnID}}
	case !current.Desc:
		next.Sorting = []SortEntry{{ColumnID: columnID, Desc: true}}
	default:
		next.Sorting = nil
	}
	s.commit(next)
}

// SetColumnVisibility shows or hides a column. Columns that cannot be
// hidden are ignored, and so is every call while column visibility is
// disabled.
func (s *Store) SetColumnVisibility(columnID string, visible bool) {
	if s.cfg.DisableColumnVisibility {
		return
	}
	col, ok := s.cfg.column(columnID)
	if !ok || col.DisableHiding {
		return
	}
	next := s.state.Clone()
	if visible {
		delete(next.ColumnVisibility, columnID)
	} else {
		next.ColumnVisibility[columnID] = false
	}
	s.commit(next)
}

// ShowAllColumns clears every hidden column.
func (s *Store) ShowAllColumns() {
	if s.cfg.DisableColumnVisibility {
		return
	}
	next := s.state.Clone()
	next.ColumnVisibility = map[string]bool{}
	s.commit(next)
}

// SetFilterValue sets a declared filter. An empty value clears it, and so
// does a value that is not one of a select filter's options.
func (s *Store) SetFilterValue(filterID, value string) {
	spec, ok := s.cfg.filter(filterID)
	if !ok {
		return
	}
	values := make(map[string]string, len(s.state.ColumnFilters)+1)
	for _, f := range s.state.ColumnFilters {
		values[f.FilterID] = f.Value
	}
	values[filterID] = spec.normalize(value)

	next := s.state.Clone()
	next.ColumnFilters = orderedFilters(s.cfg, values)
	s.commit(next)
}

// SetSearch replaces the free-text search. Ignored while search is
// disabled.
func (s *Store) SetSearch(text string) {
	if s.cfg.DisableSearch {
		return
	}
	next := s.state.Clone()
	next.Search = text
	s.commit(next)
}

// SetDateRange stores a date range, swapping inverted bounds. Bounds that
// are not valid DateLayout dates are dropped. Ignored while the date range
// is disabled.
func (s *Store) SetDateRange(from, to string) {
	if s.cfg.DisableDateRange {
		return
	}
	next := s.state.Clone()
	next.DateRange = normalizeDateRange(from, to)
	s.commit(next)
}

// SetPagination moves to a page. A page size change always returns to the
// first page; a non-positive page size falls back to the configured
// default. Ignored while pagination is disabled.
func (s *Store) SetPagination(pageIndex, pageSize int) {
	if s.cfg.DisablePagination {
		return
	}
	if pageSize <= 0 {
		pageSize = s.cfg.DefaultPageSize()
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize != s.state.Pagination.PageSize {
		pageIndex = 0
	}
	next := s.state.Clone()
	next.Pagination = Pagination{PageIndex: pageIndex, PageSize: pageSize}
	s.commit(next)
}

// Reset clears search, date range, sorting, filters and hidden columns and
// returns to the first page at the configured default page size.
func (s *Store) Reset() {
	next := defaultState(s.cfg, 0)
	if s.cfg.DisablePagination {
		next.Pagination = s.state.Pagination
		next.Pagination.PageIndex = 0
	}
	s.commit(next)
}

func (s *Store) commit(next ViewState) {
	if next.ColumnVisibility == nil {
		next.ColumnVisibility = map[string]bool{}
	}
	s.state = next
	for _, fn := range s.observers {
		fn(s.state.Clone())
	}
}

func defaultState(cfg Config, totalCount int) ViewState {
	size := cfg.DefaultPageSize()
	if cfg.DisablePagination && totalCount > 0 {
		size = totalCount
	}
	return ViewState{
		ColumnVisibility: map[string]bool{},
		Pagination:       Pagination{PageSize: size},
	}
}

func orderedFilters(cfg Config, values map[string]string) []FilterValue {
	var out []FilterValue
	for _, spec := range cfg.Filters {
		if v := values[spec.ID]; v != "" {
			out = append(out, FilterValue{FilterID: spec.ID, Value: v})
		}
	}
	return out
}

func normalizeDateRange(from, to string) DateRange {
	fromT, fromOK := parseDate(from)
	toT, toOK := parseDate(to)
	r := DateRange{}
	if fromOK {
		r.From = fromT.Format(DateLayout)
	}
	if toOK {
		r.To = toT.Format(DateLayout)
	}
	if fromOK && toOK && fromT.After(toT) {
		r.From, r.To = r.To, r.From
	}
	return r
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
