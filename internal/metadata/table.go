package metadata

import (
	"fmt"
	"strconv"
	"time"

	"github.com/imgajeed76/metatable/internal/datatable"
	"github.com/imgajeed76/metatable/internal/util"
)

// Filter ids of the metadata table.
const (
	FilterKey    = "key"
	FilterType   = "type"
	FilterStatus = "status"
)

// Path is the location path of the metadata table.
const Path = "metadata"

// Columns returns the metadata table columns in display order.
func Columns() []datatable.Column[Record] {
	return []datatable.Column[Record]{
		{
			ColumnDef: datatable.ColumnDef{ID: "key", Header: "Key", Sortable: true, DisableHiding: true},
			Cell:      func(r Record) string { return r.Key },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "type", Header: "Type", Sortable: true},
			Cell:      func(r Record) string { return r.Type },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "title", Header: "Title", Sortable: true},
			Cell:      func(r Record) string { return r.Title },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "description", Header: "Description"},
			Cell:      func(r Record) string { return r.Description },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "keywords", Header: "Keywords"},
			Cell:      func(r Record) string { return r.Keywords },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "version", Header: "Version", Sortable: true},
			Cell:      func(r Record) string { return strconv.FormatFloat(r.Version, 'f', 1, 64) },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "status", Header: "Status"},
			Cell: func(r Record) string {
				if r.Live() {
					return string(StatusActive)
				}
				return string(StatusDeleted)
			},
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "createdAt", Header: "Created", Sortable: true},
			Cell:      func(r Record) string { return util.FormatDate(r.CreatedAt) },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "updatedAt", Header: "Updated", Sortable: true},
			Cell:      func(r Record) string { return util.FormatDate(r.UpdatedAt) },
		},
	}
}

// Filters returns the filter controls; types become the options of the
// searchable type filter.
func Filters(types []string) []datatable.FilterSpec {
	typeOptions := make([]datatable.Option, len(types))
	for i, t := range types {
		typeOptions[i] = datatable.Option{Label: t, Value: t}
	}
	return []datatable.FilterSpec{
		{ID: FilterKey, Label: "Key contains", Kind: datatable.TextFilter{}},
		{ID: FilterType, Label: "Type", Kind: datatable.SearchSelectFilter{Options: typeOptions}},
		{ID: FilterStatus, Label: "Status", Kind: datatable.SelectFilter{Options: []datatable.Option{
			{Label: "Active", Value: string(StatusActive)},
			{Label: "Deleted", Value: string(StatusDeleted)},
			{Label: "All", Value: string(StatusAll)},
		}}},
	}
}

// ListOptionsFor translates a data table query. The date range applies to
// the creation time and includes both bounding days.
func ListOptionsFor(q datatable.Query) (ListOptions, error) {
	opts := ListOptions{
		Page:         q.PageIndex + 1,
		Count:        q.PageSize,
		NonPaginated: q.All,
		Search:       q.Search,
		Type:         q.Filters[FilterType],
		KeyContains:  q.Filters[FilterKey],
		Status:       StatusActive,
	}
	if _, ok := SortColumns[q.SortBy]; ok {
		opts.SortBy, opts.Desc = q.SortBy, q.Desc
	}
	switch s := Status(q.Filters[FilterStatus]); s {
	case StatusDeleted, StatusAll:
		opts.Status = s
	}

	if q.From != "" {
		from, err := time.Parse(datatable.DateLayout, q.From)
		if err != nil {
			return ListOptions{}, fmt.Errorf("invalid from date %q: %w", q.From, err)
		}
		opts.From = from
	}
	if q.To != "" {
		to, err := time.Parse(datatable.DateLayout, q.To)
		if err != nil {
			return ListOptions{}, fmt.Errorf("invalid to date %q: %w", q.To, err)
		}
		opts.To = to.AddDate(0, 0, 1)
	}
	return opts, nil
}
