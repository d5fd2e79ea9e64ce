package table

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/imgajeed76/metatable/internal/datatable"
	"github.com/imgajeed76/metatable/internal/ui/styles"
)

func TestMain(m *testing.M) {
	styles.SetNoColor(true)
	goleak.VerifyTestMain(m)
}

type item struct {
	Name string
	Kind string
	N    int
}

func testItems(n int) []item {
	items := make([]item, n)
	for i := range items {
		kind := "a"
		if i%2 == 1 {
			kind = "b"
		}
		items[i] = item{Name: fmt.Sprintf("item-%02d", i), Kind: kind, N: i}
	}
	return items
}

// itemSource filters, sorts and pages items the way a store would.
func itemSource(items []item) datatable.DataSource[item] {
	return datatable.DataSourceFunc[item](func(ctx context.Context, q datatable.Query) (datatable.Page[item], error) {
		var out []item
		for _, it := range items {
			if k := q.Filters["kind"]; k != "" && it.Kind != k {
				continue
			}
			if s := q.Filters["name"]; s != "" && !strings.Contains(it.Name, s) {
				continue
			}
			if q.Search != "" && !strings.Contains(it.Name, q.Search) {
				continue
			}
			out = append(out, it)
		}
		if q.SortBy == "name" && q.Desc {
			slices.Reverse(out)
		}
		total := len(out)
		if !q.All {
			start := min(q.PageIndex*q.PageSize, total)
			out = out[start:min(start+q.PageSize, total)]
		}
		return datatable.Page[item]{Rows: out, TotalCount: total}, nil
	})
}

func newItemTable(opts datatable.Options) *datatable.Table[item] {
	if opts.Filters == nil {
		opts.Filters = []datatable.FilterSpec{
			{ID: "name", Label: "Name contains", Kind: datatable.TextFilter{}},
			{ID: "kind", Label: "Kind", Kind: datatable.SearchSelectFilter{Options: []datatable.Option{
				{Label: "Alpha", Value: "a"},
				{Label: "Beta", Value: "b"},
			}}},
		}
	}
	return datatable.NewTable([]datatable.Column[item]{
		{
			ColumnDef: datatable.ColumnDef{ID: "name", Header: "Name", Sortable: true, DisableHiding: true},
			Cell:      func(it item) string { return it.Name },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "kind", Header: "Kind", Sortable: true},
			Cell:      func(it item) string { return it.Kind },
		},
		{
			ColumnDef: datatable.ColumnDef{ID: "n", Header: "N"},
			Cell:      func(it item) string { return strconv.Itoa(it.N) },
		},
	}, opts)
}

type harness struct {
	m      browserModel[item]
	copied []string
}

func newHarness(t *testing.T, tbl *datatable.Table[item], src datatable.DataSource[item]) *harness {
	t.Helper()
	h := &harness{}
	h.m = newBrowserModel(context.Background(), tbl, src, BrowserOptions{
		Title: "Items",
		Path:  "items",
		Copy: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	})
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(browserModel[item])
	return cmd
}

// settle delivers the result of the pending fetch.
func (h *harness) settle() {
	h.send(load(context.Background(), h.m.src, h.m.seq, h.m.tbl.Query()))
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		h.send(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) location() string {
	return h.m.sync.Location()
}

func keyMsg(k string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
	}
	if t, ok := special[k]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestBrowserInitialLoad(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(25)))

	assert.True(t, h.m.tbl.Loading())
	view := h.m.View()
	assert.Contains(t, view, "loading…")
	assert.Contains(t, view, "░")

	h.settle()
	assert.False(t, h.m.tbl.Loading())
	assert.Equal(t, "1 to 10 of 25 entries", h.m.tbl.PageInfo().RangeText())
	assert.Equal(t, "items", h.location())

	view = h.m.View()
	assert.Contains(t, view, "Items")
	assert.Contains(t, view, "item-09")
	assert.NotContains(t, view, "item-10")
	assert.Contains(t, view, "Name ↕")
	assert.Contains(t, view, "1 to 10 of 25 entries, page 1 of 3")
}

func TestBrowserPaging(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(25)))
	h.settle()

	h.press("n")
	assert.Equal(t, "items?page=2", h.location())
	assert.True(t, h.m.tbl.Loading())
	h.settle()
	assert.Equal(t, "11 to 20 of 25 entries", h.m.tbl.PageInfo().RangeText())

	h.press("p")
	assert.Equal(t, "items", h.location())
	h.settle()

	h.press("+")
	assert.Equal(t, "items?pageSize=25", h.location())
	h.settle()
	assert.Equal(t, "1 to 25 of 25 entries", h.m.tbl.PageInfo().RangeText())

	h.press("-")
	assert.Equal(t, "items", h.location())
}

func TestBrowserClampsOutOfRangePage(t *testing.T) {
	tbl := newItemTable(datatable.Options{})
	tbl.Store().Initialize(url.Values{"page": {"9"}}, 0)

	h := newHarness(t, tbl, itemSource(testItems(25)))
	assert.Equal(t, "items?page=9", h.location())

	h.settle()
	assert.Equal(t, "items?page=3", h.location())
	assert.True(t, h.m.tbl.Loading(), "clamping refetches the last page")

	h.settle()
	assert.Equal(t, "21 to 25 of 25 entries", h.m.tbl.PageInfo().RangeText())
}

func TestBrowserDropsStaleResults(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(25)))
	h.settle()
	h.press("n")

	h.send(fetchedMsg[item]{seq: h.m.seq - 1, page: datatable.Page[item]{TotalCount: 99}})
	assert.True(t, h.m.tbl.Loading())
	assert.Equal(t, 25, h.m.tbl.Data().TotalCount)

	h.settle()
	assert.Equal(t, "11 to 20 of 25 entries", h.m.tbl.PageInfo().RangeText())
}

func TestBrowserSorting(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(25)))
	h.settle()

	h.press("s")
	assert.Equal(t, "items?order=asc&sortBy=name", h.location())
	h.press("s")
	assert.Equal(t, "items?order=desc&sortBy=name", h.location())
	h.settle()
	assert.Equal(t, "item-24", h.m.tbl.Rows()[0].Cells[0])
	assert.Contains(t, h.m.View(), "Name ↑")

	h.press("s")
	assert.Equal(t, "items", h.location())

	h.press("right", "right", "s")
	assert.Equal(t, "items", h.location())
	assert.Equal(t, "N is not sortable", h.m.statusMsg)
}

func TestBrowserColumnVisibility(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(5)))
	h.settle()

	h.press("right", "H")
	assert.Equal(t, "items?hide_kind=true", h.location())
	assert.Len(t, h.m.tbl.VisibleColumns(), 2)
	assert.Equal(t, 1, h.m.colCursor)

	h.press("left", "H")
	assert.Equal(t, "Name cannot be hidden", h.m.statusMsg)
	assert.Len(t, h.m.tbl.VisibleColumns(), 2)

	h.press("V")
	assert.Equal(t, "items", h.location())
	assert.Len(t, h.m.tbl.VisibleColumns(), 3)
}

func TestBrowserSearch(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(25)))
	h.settle()

	h.press("/")
	require.Equal(t, modeSearch, h.m.mode)
	h.typeText("item-2")
	assert.Equal(t, "items?search=item-2", h.location())

	h.press("esc")
	assert.Equal(t, modeNormal, h.m.mode)
	assert.Equal(t, "items", h.location())

	h.press("/")
	h.typeText("item-2")
	h.press("enter")
	assert.Equal(t, modeNormal, h.m.mode)
	h.settle()
	assert.Equal(t, 5, h.m.tbl.Data().TotalCount)
	assert.Contains(t, h.m.View(), "search: item-2")
}

func TestBrowserSearchDisabled(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{DisableSearch: true}), itemSource(testItems(5)))
	h.settle()

	h.press("/")
	assert.Equal(t, modeNormal, h.m.mode)
	assert.NotContains(t, h.m.renderControls(), "search")
}

func TestBrowserFilters(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(25)))
	h.settle()

	h.press("f")
	require.Equal(t, modeFilter, h.m.mode)
	h.typeText("item-1")
	assert.Equal(t, "items?name=item-1", h.location())
	h.settle()
	assert.Equal(t, 10, h.m.tbl.Data().TotalCount)

	h.press("tab")
	h.typeText("be")
	controls := h.m.tbl.Controls()
	require.Len(t, controls[1].Options, 1)
	assert.Equal(t, "Beta", controls[1].Options[0].Label)
	assert.Contains(t, h.m.View(), "[ ] Beta")

	h.press("enter")
	assert.Equal(t, "items?kind=b&name=item-1", h.location())
	assert.Equal(t, "Beta", h.m.tbl.Controls()[1].Display)
	h.settle()
	assert.Equal(t, 5, h.m.tbl.Data().TotalCount)

	h.press("esc")
	assert.Equal(t, modeNormal, h.m.mode)
	assert.Contains(t, h.m.View(), "Kind: Beta")
}

func TestBrowserSelectFilter(t *testing.T) {
	tbl := newItemTable(datatable.Options{Filters: []datatable.FilterSpec{
		{ID: "kind", Label: "Kind", Kind: datatable.SelectFilter{Options: []datatable.Option{
			{Label: "Alpha", Value: "a"},
			{Label: "Beta", Value: "b"},
		}}},
	}})
	h := newHarness(t, tbl, itemSource(testItems(10)))
	h.settle()

	h.press("f")
	require.Equal(t, modeFilter, h.m.mode)
	h.typeText("be")
	assert.Equal(t, "items", h.location(), "plain selects take no typed query")

	h.press("down", "down", "enter")
	assert.Equal(t, "items?kind=b", h.location())
	h.settle()
	assert.Equal(t, 5, h.m.tbl.Data().TotalCount)

	h.press("up", "up", "enter")
	assert.Equal(t, "items", h.location())

	h.press("esc")
	assert.Contains(t, h.m.View(), "Kind: (any)")
}

func TestBrowserSearchSelectNoMatches(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(5)))
	h.settle()

	h.press("f", "tab")
	h.typeText("zzz")
	assert.True(t, h.m.tbl.Controls()[1].NoMatches)
	assert.Contains(t, h.m.View(), "No matches")

	h.press("enter")
	assert.Equal(t, "items", h.location())
}

func TestBrowserDateRange(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(5)))
	h.settle()

	h.press("d")
	require.Equal(t, modeDateRange, h.m.mode)
	h.typeText("2024-02-01")
	h.press("tab")
	h.typeText("2024-01-01")
	h.press("enter")

	assert.Equal(t, modeNormal, h.m.mode)
	assert.Equal(t, datatable.DateRange{From: "2024-01-01", To: "2024-02-01"}, h.m.tbl.State().DateRange)
	assert.Equal(t, "items?from=2024-01-01&to=2024-02-01", h.location())
	assert.Contains(t, h.m.View(), "2024-01-01 → 2024-02-01")

	h.press("d", "esc")
	assert.Equal(t, "items?from=2024-01-01&to=2024-02-01", h.location())
}

func TestBrowserClear(t *testing.T) {
	tbl := newItemTable(datatable.Options{})
	tbl.Store().Initialize(url.Values{"search": {"item"}, "kind": {"a"}, "hide_n": {"true"}, "page": {"2"}}, 0)
	h := newHarness(t, tbl, itemSource(testItems(25)))
	h.settle()

	h.press("c")
	assert.Equal(t, "items", h.location())
}

func TestBrowserClearDisabled(t *testing.T) {
	tbl := newItemTable(datatable.Options{DisableClearFilters: true})
	tbl.Store().Initialize(url.Values{"search": {"item"}}, 0)
	h := newHarness(t, tbl, itemSource(testItems(25)))
	h.settle()

	h.press("c")
	assert.Equal(t, "items?search=item", h.location())
}

func TestBrowserCopy(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(5)))

	h.press("y")
	assert.Empty(t, h.copied, "nothing to copy while loading")

	h.settle()
	h.press("y", "down", "Y", "n", "u")
	assert.Equal(t, []string{"item-00", "item-01\tb\t1", "items"}, h.copied)
	assert.Equal(t, "Copied location", h.m.statusMsg)
}

func TestBrowserCopyError(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(5)))
	h.m.opts.Copy = func(string) error { return errors.New("no clipboard") }
	h.settle()

	h.press("y")
	assert.Equal(t, "clipboard error: no clipboard", h.m.statusMsg)
}

func TestBrowserFetchError(t *testing.T) {
	src := datatable.DataSourceFunc[item](func(context.Context, datatable.Query) (datatable.Page[item], error) {
		return datatable.Page[item]{}, errors.New("connection refused")
	})
	h := newHarness(t, newItemTable(datatable.Options{}), src)
	h.settle()

	view := h.m.View()
	assert.Contains(t, view, "fetch failed: connection refused")
	assert.Contains(t, view, "0 to 0 of 0 entries")
	assert.Contains(t, view, datatable.EmptyMessage)
}

func TestBrowserEmpty(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(nil))
	h.settle()

	assert.Contains(t, h.m.View(), datatable.EmptyMessage)
	h.press("down", "y")
	assert.Equal(t, 0, h.m.cursor)
	assert.Empty(t, h.copied)
}

func TestBrowserQuit(t *testing.T) {
	h := newHarness(t, newItemTable(datatable.Options{}), itemSource(testItems(5)))
	h.settle()

	cmd := h.send(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApplyViewport(t *testing.T) {
	assert.Equal(t, "world", applyViewport("hello world", 6, 5))
	assert.Equal(t, "bc   ", applyViewport("abc", 1, 5))
	assert.Equal(t, "", applyViewport("abc", 0, 0))
	assert.Equal(t, "\x1b[31med\x1b[0m ", applyViewport("\x1b[31mred\x1b[0m plain", 1, 3))
}

func TestFit(t *testing.T) {
	assert.Equal(t, "abc…", fit("abcdef", 4))
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "", fit("ab", 0))
}
