package datatable

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

// Query string keys.
const (
	KeyPage     = "page"
	KeyPageSize = "pageSize"
	KeySearch   = "search"
	KeyFrom     = "from"
	KeyTo       = "to"
	KeySortBy   = "sortBy"
	KeyOrder    = "order"

	// HidePrefix is prepended to a column id to mark it hidden.
	HidePrefix = "hide_"
)

// queryParams are the fixed keys. Values are kept as strings so malformed
// numbers never fail decoding; they are validated afterwards.
type queryParams struct {
	Page     string `schema:"page,omitempty"`
	PageSize string `schema:"pageSize,omitempty"`
	Search   string `schema:"search,omitempty"`
	From     string `schema:"from,omitempty"`
	To       string `schema:"to,omitempty"`
	SortBy   string `schema:"sortBy,omitempty"`
	Order    string `schema:"order,omitempty"`
}

var (
	queryDecoder = newQueryDecoder()
	queryEncoder = schema.NewEncoder()
)

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// ParseQuery derives a ViewState from query parameters. It never fails:
// anything unknown, disabled or malformed is replaced by its default.
func ParseQuery(values map[string][]string, cfg Config, totalCount int) ViewState {
	var p queryParams
	if err := queryDecoder.Decode(&p, fixedKeys(values)); err != nil {
		p = queryParams{}
	}

	state := defaultState(cfg, totalCount)

	if col, ok := cfg.column(p.SortBy); ok && col.Sortable {
		state.Sorting = []SortEntry{{ColumnID: col.ID, Desc: p.Order == "desc"}}
	}

	if !cfg.DisableColumnVisibility {
		for key, vals := range values {
			id, ok := strings.CutPrefix(key, HidePrefix)
			if !ok || len(vals) == 0 || vals[len(vals)-1] == "false" {
				continue
			}
			if col, ok := cfg.column(id); ok && !col.DisableHiding {
				state.ColumnVisibility[id] = false
			}
		}
	}

	filters := make(map[string]string, len(cfg.Filters))
	for _, spec := range cfg.Filters {
		if vals := values[spec.ID]; len(vals) > 0 {
			filters[spec.ID] = spec.normalize(vals[len(vals)-1])
		}
	}
	state.ColumnFilters = orderedFilters(cfg, filters)

	if !cfg.DisableSearch {
		state.Search = p.Search
	}
	if !cfg.DisableDateRange {
		state.DateRange = normalizeDateRange(p.From, p.To)
	}

	if !cfg.DisablePagination {
		if size, ok := positiveInt(p.PageSize); ok {
			state.Pagination.PageSize = size
		}
		if page, ok := positiveInt(p.Page); ok {
			// The first row of the page must stay representable.
			state.Pagination.PageIndex = min(page-1, math.MaxInt/state.Pagination.PageSize-1)
		}
	}

	return state
}

// DeriveQueryString encodes the non-default part of a state. Keys at their
// default value are absent, and keys are sorted, so equal states always
// produce equal strings.
func DeriveQueryString(state ViewState, cfg Config) string {
	return EncodeQuery(state, cfg).Encode()
}

// EncodeQuery is DeriveQueryString before serialization.
func EncodeQuery(state ViewState, cfg Config) url.Values {
	var p queryParams
	if !cfg.DisablePagination {
		if state.Pagination.PageIndex > 0 {
			p.Page = strconv.Itoa(state.Pagination.PageIndex + 1)
		}
		if size := state.Pagination.PageSize; size > 0 && size != cfg.DefaultPageSize() {
			p.PageSize = strconv.Itoa(size)
		}
	}
	if !cfg.DisableSearch {
		p.Search = state.Search
	}
	if !cfg.DisableDateRange {
		p.From, p.To = state.DateRange.From, state.DateRange.To
	}
	if entry, ok := state.Sort(); ok && entry.ColumnID != "" {
		p.SortBy = entry.ColumnID
		p.Order = "asc"
		if entry.Desc {
			p.Order = "desc"
		}
	}

	values := url.Values{}
	_ = queryEncoder.Encode(p, values)

	if !cfg.DisableColumnVisibility {
		for id, visible := range state.ColumnVisibility {
			if !visible {
				values.Set(HidePrefix+id, "true")
			}
		}
	}
	for _, f := range state.ColumnFilters {
		if f.Value != "" {
			values.Set(f.FilterID, f.Value)
		}
	}
	return values
}

// Location joins a path and a query string the way a browser shows it.
func Location(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// ParseLocation accepts either a bare query string or a location with a
// path, with or without the leading '?'.
func ParseLocation(s string) (url.Values, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[i+1:]
	}
	return url.ParseQuery(s)
}

// fixedKeys keeps only the keys queryParams knows about, so column ids or
// filter ids containing schema path syntax never reach the decoder.
func fixedKeys(values map[string][]string) map[string][]string {
	known := []string{KeyPage, KeyPageSize, KeySearch, KeyFrom, KeyTo, KeySortBy, KeyOrder}
	out := make(map[string][]string, len(known))
	for _, k := range known {
		if v, ok := values[k]; ok && len(v) > 0 {
			out[k] = v[len(v)-1:]
		}
	}
	return out
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// QueryKeys lists the keys a configuration can read or write, sorted.
func QueryKeys(cfg Config) []string {
	keys := []string{KeySortBy, KeyOrder}
	if !cfg.DisablePagination {
		keys = append(keys, KeyPage, KeyPageSize)
	}
	if !cfg.DisableSearch {
		keys = append(keys, KeySearch)
	}
	if !cfg.DisableDateRange {
		keys = append(keys, KeyFrom, KeyTo)
	}
	if !cfg.DisableColumnVisibility {
		for _, col := range cfg.Columns {
			if !col.DisableHiding {
				keys = append(keys, HidePrefix+col.ID)
			}
		}
	}
	for _, f := range cfg.Filters {
		keys = append(keys, f.ID)
	}
	sort.Strings(keys)
	return keys
}
