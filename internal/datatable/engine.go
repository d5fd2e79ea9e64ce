package datatable

import "fmt"

// SkeletonRowCount is the number of placeholder rows shown while loading.
const SkeletonRowCount = 10

// EmptyMessage fills the single row shown when a page has no rows.
const EmptyMessage = "No data found for the selected filters."

// SortDirection is the sort state of one column.
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// Glyph is the sort indicator shown next to a sortable header.
func (d SortDirection) Glyph() string {
	switch d {
	case SortAsc:
		return "↓"
	case SortDesc:
		return "↑"
	default:
		return "↕"
	}
}

// Header is one column header.
type Header struct {
	Column   ColumnDef
	Sortable bool
	Sort     SortDirection
}

// HeaderGroup is one header row.
type HeaderGroup struct {
	ID      string
	Headers []Header
}

// RowKind tells a renderer how to draw a DisplayRow.
type RowKind int

const (
	RowData RowKind = iota
	RowSkeleton
	RowEmpty
)

// DisplayRow is one rendered body row. Data and skeleton rows have one cell
// per visible column; the empty row has a single cell spanning Span columns.
type DisplayRow struct {
	Kind  RowKind
	Cells []string
	Span  int
}

// PageInfo describes the pagination controls.
type PageInfo struct {
	PageIndex   int
	PageSize    int
	PageCount   int
	TotalCount  int
	First       int
	Last        int
	CanPrevious bool
	CanNext     bool
}

// RangeText is the "x to y of z entries" summary.
func (p PageInfo) RangeText() string {
	return fmt.Sprintf("%d to %d of %d entries", p.First, p.Last, p.TotalCount)
}

// VisibleColumns returns the shown columns in declaration order.
func VisibleColumns(cfg Config, state ViewState) []ColumnDef {
	var out []ColumnDef
	for _, col := range cfg.Columns {
		if state.IsVisible(col.ID) {
			out = append(out, col)
		}
	}
	return out
}

// HeaderGroups returns the header rows for the visible columns.
func HeaderGroups(cfg Config, state ViewState) []HeaderGroup {
	entry, sorted := state.Sort()
	group := HeaderGroup{ID: "0"}
	for _, col := range VisibleColumns(cfg, state) {
		h := Header{Column: col, Sortable: col.Sortable}
		if col.Sortable && sorted && entry.ColumnID == col.ID {
			h.Sort = SortAsc
			if entry.Desc {
				h.Sort = SortDesc
			}
		}
		group.Headers = append(group.Headers, h)
	}
	return []HeaderGroup{group}
}

// PageCount is ceil(totalCount/pageSize), at least 1, and exactly 1 when
// pagination is disabled. A non-positive page size counts as the default.
func PageCount(cfg Config, state ViewState, totalCount int) int {
	if cfg.DisablePagination {
		return 1
	}
	size := state.Pagination.PageSize
	if size <= 0 {
		size = cfg.DefaultPageSize()
	}
	count := (totalCount + size - 1) / size
	if count < 1 {
		return 1
	}
	return count
}

// Paginate derives the pagination controls, clamping the page index into
// [0, PageCount-1].
func Paginate(cfg Config, state ViewState, totalCount int) PageInfo {
	if totalCount < 0 {
		totalCount = 0
	}
	info := PageInfo{
		PageSize:   state.Pagination.PageSize,
		PageCount:  PageCount(cfg, state, totalCount),
		TotalCount: totalCount,
	}
	if info.PageSize <= 0 {
		info.PageSize = cfg.DefaultPageSize()
	}
	info.PageIndex = min(max(state.Pagination.PageIndex, 0), info.PageCount-1)
	info.CanPrevious = info.PageIndex > 0
	info.CanNext = info.PageIndex < info.PageCount-1

	switch {
	case totalCount == 0:
	case cfg.DisablePagination:
		info.First, info.Last = 1, totalCount
	default:
		info.First = info.PageIndex*info.PageSize + 1
		info.Last = min((info.PageIndex+1)*info.PageSize, totalCount)
	}
	return info
}

// BuildRows derives the body rows: skeletons while loading, a single empty
// row when there is nothing to show, and otherwise the visible cells of
// every row in page order.
func BuildRows[T any](columns []Column[T], state ViewState, rows []T, loading bool) []DisplayRow {
	var visible []Column[T]
	for _, col := range columns {
		if state.IsVisible(col.ID) {
			visible = append(visible, col)
		}
	}

	if loading {
		out := make([]DisplayRow, SkeletonRowCount)
		for i := range out {
			out[i] = DisplayRow{Kind: RowSkeleton, Cells: make([]string, len(visible))}
		}
		return out
	}

	if len(rows) == 0 {
		return []DisplayRow{{Kind: RowEmpty, Cells: []string{EmptyMessage}, Span: len(visible)}}
	}

	out := make([]DisplayRow, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(visible))
		for i, col := range visible {
			if col.Cell != nil {
				cells[i] = col.Cell(row)
			}
		}
		out = append(out, DisplayRow{Kind: RowData, Cells: cells})
	}
	return out
}

// Table is one data table instance: it owns its state store and the
// current page of data, and exposes every derived view.
type Table[T any] struct {
	cfg           Config
	columns       []Column[T]
	store         *Store
	page          Page[T]
	loading       bool
	optionQueries map[string]string
}

// NewTable builds a table over columns.
func NewTable[T any](columns []Column[T], opts Options) *Table[T] {
	defs := make([]ColumnDef, len(columns))
	for i, col := range columns {
		defs[i] = col.ColumnDef
	}
	cfg := Config{Columns: defs, Options: opts}
	return &Table[T]{
		cfg:           cfg,
		columns:       columns,
		store:         NewStore(cfg),
		optionQueries: map[string]string{},
	}
}

// Store returns the table's state store.
func (t *Table[T]) Store() *Store { return t.store }

// Config returns the table configuration.
func (t *Table[T]) Config() Config { return t.cfg }

// State returns a copy of the current view state.
func (t *Table[T]) State() ViewState { return t.store.State() }

// Loading reports whether skeleton rows are shown instead of data.
func (t *Table[T]) Loading() bool { return t.loading }

// SetLoading toggles the loading display. It does not touch the state.
func (t *Table[T]) SetLoading(loading bool) { t.loading = loading }

// SetData replaces the current page.
func (t *Table[T]) SetData(page Page[T]) { t.page = page }

// Data returns the current page.
func (t *Table[T]) Data() Page[T] { return t.page }

func (t *Table[T]) VisibleColumns() []ColumnDef {
	return VisibleColumns(t.cfg, t.store.state)
}

func (t *Table[T]) HeaderGroups() []HeaderGroup {
	return HeaderGroups(t.cfg, t.store.state)
}

func (t *Table[T]) Rows() []DisplayRow {
	return BuildRows(t.columns, t.store.state, t.page.Rows, t.loading)
}

func (t *Table[T]) PageCount() int {
	return PageCount(t.cfg, t.store.state, t.page.TotalCount)
}

func (t *Table[T]) PageInfo() PageInfo {
	return Paginate(t.cfg, t.store.state, t.page.TotalCount)
}

// Query returns the data source query for the current state.
func (t *Table[T]) Query() Query {
	return QueryFor(t.store.state, t.cfg)
}

// HideableColumns returns the columns offered by the visibility control.
func (t *Table[T]) HideableColumns() []ColumnDef {
	var out []ColumnDef
	for _, col := range t.cfg.Columns {
		if !col.DisableHiding {
			out = append(out, col)
		}
	}
	return out
}

// ClampPage moves an out-of-range page index back into range for the
// current total. It reports whether the state changed.
func (t *Table[T]) ClampPage() bool {
	if t.loading || t.cfg.DisablePagination {
		return false
	}
	info := t.PageInfo()
	current := t.store.state.Pagination
	if info.PageIndex == current.PageIndex {
		return false
	}
	t.store.SetPagination(info.PageIndex, current.PageSize)
	return true
}

// NextPage advances one page if there is one.
func (t *Table[T]) NextPage() {
	if info := t.PageInfo(); info.CanNext {
		t.store.SetPagination(info.PageIndex+1, info.PageSize)
	}
}

// PreviousPage goes back one page if there is one.
func (t *Table[T]) PreviousPage() {
	if info := t.PageInfo(); info.CanPrevious {
		t.store.SetPagination(info.PageIndex-1, info.PageSize)
	}
}

// CyclePageSize moves to the next (step > 0) or previous page size choice.
func (t *Table[T]) CyclePageSize(step int) {
	choices := t.cfg.PageSizeChoices()
	current := t.store.state.Pagination.PageSize
	idx := 0
	for i, n := range choices {
		if n == current {
			idx = i
			break
		}
	}
	idx = (idx + step + len(choices)) % len(choices)
	t.store.SetPagination(0, choices[idx])
}

// Controls returns the filter controls in declaration order.
func (t *Table[T]) Controls() []FilterControl {
	out := make([]FilterControl, len(t.cfg.Filters))
	for i, spec := range t.cfg.Filters {
		out[i] = BuildControl(spec, t.store.state.Filter(spec.ID), t.optionQueries[spec.ID])
	}
	return out
}

// SetOptionQuery sets the local option search of a searchable select. It
// is not part of the view state.
func (t *Table[T]) SetOptionQuery(filterID, query string) {
	if query == "" {
		delete(t.optionQueries, filterID)
		return
	}
	t.optionQueries[filterID] = query
}

// Reset clears local option searches and resets the view state.
func (t *Table[T]) Reset() {
	t.optionQueries = map[string]string{}
	t.store.Reset()
}
