package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/imgajeed76/metatable/internal/metadata"
)

// MetadataTable is the table holding metadata records.
const MetadataTable = "metatable_metadata"

// MetadataColumns is the select list matching the scan order of the stores.
const MetadataColumns = "id, key, type, title, description, keywords, version, created_at, updated_at, deleted_at"

// Dialect is the engine-specific part of the generated SQL.
type Dialect interface {
	// Placeholder returns the parameter placeholder for the n-th parameter (1-based)
	Placeholder(n int) string
	// TimeArg converts a time into the value stored in timestamp columns
	TimeArg(t time.Time) any
}

// PostgresDialect numbers placeholders and passes times through.
type PostgresDialect struct{}

func (PostgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (PostgresDialect) TimeArg(t time.Time) any { return t }

// ListQuery is the pair of statements serving one List call. Both take
// Args.
type ListQuery struct {
	Select string
	Count  string
	Args   []any
}

type whereBuilder struct {
	dialect Dialect
	clauses []string
	args    []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return w.dialect.Placeholder(len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// BuildList generates the statements for opts. The sort column comes from
// metadata.SortColumns only; unknown values fall back to newest first.
// Limit and offset are integers rendered into the statement.
func BuildList(d Dialect, opts metadata.ListOptions) ListQuery {
	w := &whereBuilder{dialect: d}

	switch opts.Status {
	case metadata.StatusDeleted:
		w.add("deleted_at IS NOT NULL")
	case metadata.StatusAll:
	default:
		w.add("deleted_at IS NULL")
	}

	if opts.Type != "" {
		w.add("type = " + w.arg(opts.Type))
	}
	if opts.KeyContains != "" {
		w.add(`LOWER(key) LIKE ` + w.arg(likePattern(opts.KeyContains)) + ` ESCAPE '\'`)
	}
	if opts.Search != "" {
		pattern := likePattern(opts.Search)
		var ors []string
		for _, col := range []string{"key", "title", "description", "keywords"} {
			ors = append(ors, fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, w.arg(pattern)))
		}
		w.add("(" + strings.Join(ors, " OR ") + ")")
	}
	if !opts.From.IsZero() {
		w.add("created_at >= " + w.arg(d.TimeArg(opts.From)))
	}
	if !opts.To.IsZero() {
		w.add("created_at < " + w.arg(d.TimeArg(opts.To)))
	}

	where := w.String()

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s%s ORDER BY %s", MetadataColumns, MetadataTable, where, orderBy(opts))
	if !opts.NonPaginated {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", opts.Limit(), opts.Offset())
	}

	return ListQuery{
		Select: sb.String(),
		Count:  fmt.Sprintf("SELECT COUNT(*) FROM %s%s", MetadataTable, where),
		Args:   w.args,
	}
}

func orderBy(opts metadata.ListOptions) string {
	col, ok := metadata.SortColumns[opts.SortBy]
	if !ok {
		return "created_at DESC, id DESC"
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}
	// id breaks ties so pages never overlap
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches s anywhere, case-insensitively, with LIKE wildcards
// in s taken literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
