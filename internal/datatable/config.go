package datatable

// DefaultPageSize is used when a table does not configure one.
const DefaultPageSize = 10

// DefaultPageSizeOptions are the page sizes offered by the page size control.
var DefaultPageSizeOptions = []int{10, 25, 50, 100}

// ColumnDef is the static, data-independent part of a column.
type ColumnDef struct {
	ID       string
	Header   string
	Sortable bool
	// DisableHiding keeps the column out of the visibility control.
	DisableHiding bool
}

// Title is the header text, falling back to the id.
func (c ColumnDef) Title() string {
	if c.Header != "" {
		return c.Header
	}
	return c.ID
}

// Column binds a ColumnDef to a cell accessor for rows of type T.
type Column[T any] struct {
	ColumnDef
	Cell func(T) string
}

// Options are the table properties other than its columns. Each Disable
// flag turns off a control and removes its keys from the query string.
type Options struct {
	Filters         []FilterSpec
	PageSize        int
	PageSizeOptions []int

	DisableSearch           bool
	DisableDateRange        bool
	DisablePagination       bool
	DisableClearFilters     bool
	DisableColumnVisibility bool
}

// Config is everything the state store and the query encoding validate
// against.
type Config struct {
	Columns []ColumnDef
	Options
}

// DefaultPageSize returns the configured page size, or DefaultPageSize
// when it is unset or invalid.
func (c Config) DefaultPageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

// PageSizeChoices returns the selectable page sizes, always including the
// default.
func (c Config) PageSizeChoices() []int {
	opts := c.PageSizeOptions
	if len(opts) == 0 {
		opts = DefaultPageSizeOptions
	}
	def := c.DefaultPageSize()
	out := make([]int, 0, len(opts)+1)
	inserted := false
	for _, n := range opts {
		if n <= 0 {
			continue
		}
		if !inserted && def <= n {
			if def != n {
				out = append(out, def)
			}
			inserted = true
		}
		out = append(out, n)
	}
	if !inserted {
		out = append(out, def)
	}
	return out
}

func (c Config) column(id string) (ColumnDef, bool) {
	for _, col := range c.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return ColumnDef{}, false
}

func (c Config) filter(id string) (FilterSpec, bool) {
	for _, f := range c.Filters {
		if f.ID == id {
			return f, true
		}
	}
	return FilterSpec{}, false
}
