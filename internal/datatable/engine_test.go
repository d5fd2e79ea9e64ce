package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func people(n int) []person {
	out := make([]person, n)
	for i := range out {
		out[i] = person{Name: "p" + string(rune('a'+i%26)), Email: "e", Role: "editor", Age: 20 + i}
	}
	return out
}

func TestPaginate_LastPartialPage(t *testing.T) {
	tbl := NewTable(personColumns(), Options{Filters: personFilters()})
	tbl.Store().SetPagination(4, 10)
	tbl.SetData(Page[person]{Rows: people(7), TotalCount: 47})

	info := tbl.PageInfo()

	assert.Equal(t, "41 to 47 of 47 entries", info.RangeText())
	assert.Equal(t, 5, info.PageCount)
	assert.True(t, info.CanPrevious)
	assert.False(t, info.CanNext)
}

func TestPaginate_ClampsOutOfRangePage(t *testing.T) {
	tbl := NewTable(personColumns(), Options{})
	tbl.Store().SetPagination(5, 10)
	tbl.SetData(Page[person]{TotalCount: 20})

	info := tbl.PageInfo()
	assert.Equal(t, 2, info.PageCount)
	assert.Equal(t, 1, info.PageIndex)
	assert.True(t, info.CanPrevious)
	assert.False(t, info.CanNext)
	assert.Equal(t, "11 to 20 of 20 entries", info.RangeText())

	require.True(t, tbl.ClampPage())
	assert.Equal(t, 1, tbl.State().Pagination.PageIndex)
	assert.False(t, tbl.ClampPage(), "already in range")
}

func TestPaginate_FirstPage(t *testing.T) {
	info := Paginate(personConfig(), NewStore(personConfig()).State(), 3)

	assert.Equal(t, "1 to 3 of 3 entries", info.RangeText())
	assert.False(t, info.CanPrevious)
	assert.False(t, info.CanNext)
}

func TestPaginate_NoRows(t *testing.T) {
	info := Paginate(personConfig(), NewStore(personConfig()).State(), 0)

	assert.Equal(t, 1, info.PageCount)
	assert.Equal(t, "0 to 0 of 0 entries", info.RangeText())
	assert.False(t, info.CanNext)
}

func TestPageCount_InvalidPageSizeUsesDefault(t *testing.T) {
	st := NewStore(personConfig()).State()
	st.Pagination.PageSize = 0

	assert.Equal(t, 3, PageCount(personConfig(), st, 25))
}

func TestPageCount_PaginationDisabled(t *testing.T) {
	cfg := personConfig()
	cfg.DisablePagination = true
	st := NewStore(cfg).State()

	assert.Equal(t, 1, PageCount(cfg, st, 500))
	assert.Equal(t, "1 to 500 of 500 entries", Paginate(cfg, st, 500).RangeText())
}

func TestRows_Loading(t *testing.T) {
	tbl := NewTable(personColumns(), Options{})
	tbl.Store().SetColumnVisibility("role", false)
	tbl.SetData(Page[person]{Rows: people(3), TotalCount: 3})
	tbl.SetLoading(true)
	before := tbl.State()

	rows := tbl.Rows()

	require.Len(t, rows, SkeletonRowCount)
	for _, r := range rows {
		assert.Equal(t, RowSkeleton, r.Kind)
		assert.Len(t, r.Cells, 3)
	}
	assert.Equal(t, before, tbl.State(), "loading does not touch the state")
}

func TestRows_Empty(t *testing.T) {
	tbl := NewTable(personColumns(), Options{})
	tbl.Store().SetColumnVisibility("email", false)
	tbl.SetData(Page[person]{})

	rows := tbl.Rows()

	require.Len(t, rows, 1)
	assert.Equal(t, RowEmpty, rows[0].Kind)
	assert.Equal(t, 3, rows[0].Span)
	assert.Equal(t, []string{EmptyMessage}, rows[0].Cells)
}

func TestRows_VisibleCellsInDeclaredOrder(t *testing.T) {
	tbl := NewTable(personColumns(), Options{})
	tbl.Store().SetColumnVisibility("email", false)
	tbl.SetData(Page[person]{Rows: []person{{Name: "ann", Email: "a@x", Role: "admin", Age: 31}}, TotalCount: 1})

	rows := tbl.Rows()

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"ann", "admin", "31"}, rows[0].Cells)

	var ids []string
	for _, c := range tbl.VisibleColumns() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"name", "role", "age"}, ids)
}

func TestHeaderGroups_SortGlyphs(t *testing.T) {
	tbl := NewTable(personColumns(), Options{})
	tbl.Store().SetSort("age")
	tbl.Store().SetSort("age")

	groups := tbl.HeaderGroups()
	require.Len(t, groups, 1)

	byID := map[string]Header{}
	for _, h := range groups[0].Headers {
		byID[h.Column.ID] = h
	}
	assert.Equal(t, SortDesc, byID["age"].Sort)
	assert.Equal(t, "↑", byID["age"].Sort.Glyph())
	assert.Equal(t, SortNone, byID["name"].Sort)
	assert.Equal(t, "↕", byID["name"].Sort.Glyph())
	assert.False(t, byID["role"].Sortable)
}

func TestTable_NextPreviousPage(t *testing.T) {
	tbl := NewTable(personColumns(), Options{})
	tbl.SetData(Page[person]{TotalCount: 25})

	tbl.NextPage()
	tbl.NextPage()
	tbl.NextPage()
	assert.Equal(t, 2, tbl.State().Pagination.PageIndex)

	tbl.PreviousPage()
	assert.Equal(t, 1, tbl.State().Pagination.PageIndex)
}

func TestTable_CyclePageSize(t *testing.T) {
	tbl := NewTable(personColumns(), Options{PageSize: 20})
	assert.Equal(t, []int{10, 20, 25, 50, 100}, tbl.Config().PageSizeChoices())

	tbl.Store().SetPagination(3, 20)
	tbl.CyclePageSize(1)
	assert.Equal(t, Pagination{PageIndex: 0, PageSize: 25}, tbl.State().Pagination)

	tbl.CyclePageSize(-1)
	tbl.CyclePageSize(-1)
	tbl.CyclePageSize(-1)
	assert.Equal(t, 100, tbl.State().Pagination.PageSize, "wraps around")
}

func TestTable_Query(t *testing.T) {
	tbl := NewTable(personColumns(), Options{Filters: personFilters()})
	tbl.Store().SetSort("email")
	tbl.Store().SetSearch("ann")
	tbl.Store().SetFilterValue("role", "admin")
	tbl.Store().SetDateRange("2024-01-01", "2024-01-31")

	assert.Equal(t, Query{
		PageSize: 10,
		SortBy:   "email",
		Search:   "ann",
		From:     "2024-01-01",
		To:       "2024-01-31",
		Filters:  map[string]string{"role": "admin"},
	}, tbl.Query())
}

func TestControls(t *testing.T) {
	tbl := NewTable(personColumns(), Options{Filters: personFilters()})
	tbl.Store().SetFilterValue("role", "editor")
	tbl.SetOptionQuery("team", "PAY")

	controls := tbl.Controls()
	require.Len(t, controls, 3)

	text := controls[0]
	assert.True(t, text.Placeholder)
	assert.Equal(t, "Name contains", text.Display)
	assert.Empty(t, text.Options)

	sel := controls[1]
	assert.Equal(t, "Editor", sel.Display)
	require.Len(t, sel.Options, 3)
	assert.True(t, sel.Options[0].Unset)
	assert.True(t, sel.Options[2].Selected)

	search := controls[2]
	require.Len(t, search.Options, 1)
	assert.Equal(t, "payments", search.Options[0].Value)
	assert.Equal(t, "PAY", search.Display)

	tbl.SetOptionQuery("team", "zzz")
	assert.True(t, tbl.Controls()[2].NoMatches)

	tbl.Reset()
	assert.Len(t, tbl.Controls()[2].Options, 3, "reset clears the local option search")
}

func TestMatchOptions_CaseInsensitive(t *testing.T) {
	opts := []Option{{Label: "Straße"}, {Label: "Äpfel"}, {Label: "Other"}}

	assert.Equal(t, []Option{{Label: "Äpfel"}}, MatchOptions(opts, "äPF"))
	assert.Equal(t, opts, MatchOptions(opts, ""))
	assert.Empty(t, MatchOptions(opts, "nothing"))
}
