package datatable

import "context"

// Page is one page of rows and the row count across all pages.
type Page[T any] struct {
	Rows       []T
	TotalCount int
}

// Query is what a table asks of its data source. Filtering, sorting and
// paging are carried out entirely by the source.
type Query struct {
	PageIndex int
	PageSize  int
	// All requests every row; set when pagination is disabled.
	All     bool
	SortBy  string
	Desc    bool
	Search  string
	From    string
	To      string
	Filters map[string]string
}

// DataSource returns pages of rows for a query.
type DataSource[T any] interface {
	Fetch(ctx context.Context, q Query) (Page[T], error)
}

// DataSourceFunc adapts a function to DataSource.
type DataSourceFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

// Fetch calls f.
func (f DataSourceFunc[T]) Fetch(ctx context.Context, q Query) (Page[T], error) {
	return f(ctx, q)
}

// QueryFor translates a state into a data source query.
func QueryFor(state ViewState, cfg Config) Query {
	q := Query{
		PageIndex: state.Pagination.PageIndex,
		PageSize:  state.Pagination.PageSize,
		All:       cfg.DisablePagination,
		Filters:   make(map[string]string, len(state.ColumnFilters)),
	}
	if q.PageSize <= 0 {
		q.PageSize = cfg.DefaultPageSize()
	}
	if entry, ok := state.Sort(); ok {
		q.SortBy, q.Desc = entry.ColumnID, entry.Desc
	}
	if !cfg.DisableSearch {
		q.Search = state.Search
	}
	if !cfg.DisableDateRange {
		q.From, q.To = state.DateRange.From, state.DateRange.To
	}
	for _, f := range state.ColumnFilters {
		q.Filters[f.FilterID] = f.Value
	}
	return q
}
