package table

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/imgajeed76/metatable/internal/datatable"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

// ═══════════════════════════════════════════════════════════════════════════
// Constants
// ═══════════════════════════════════════════════════════════════════════════

const (
	maxColWidth = 32
	minColWidth = 3
	colGap      = 2

	// title, location, controls, header, separator, blank, footer
	chromeLines = 7

	maxOptionLines = 8
	statusDuration = 2 * time.Second
)

type browserMode int

const (
	modeNormal browserMode = iota
	modeSearch
	modeFilter
	modeDateRange
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Accent)

// ═══════════════════════════════════════════════════════════════════════════
// Model
// ═══════════════════════════════════════════════════════════════════════════

// BrowserOptions configures RunBrowser.
type BrowserOptions struct {
	Title string
	// Path prefixes the location, e.g. "metadata" for "metadata?page=2".
	Path string
	// Copy writes to the clipboard. Defaults to the system clipboard.
	Copy func(string) error
	Log  *zap.Logger
}

// fetchedMsg carries a data source result back to the model. seq ties it
// to the fetch that produced it; results of superseded fetches are dropped.
type fetchedMsg[T any] struct {
	seq  int
	page datatable.Page[T]
	err  error
}

type statusClearMsg struct{}

type browserModel[T any] struct {
	ctx  context.Context
	tbl  *datatable.Table[T]
	src  datatable.DataSource[T]
	sync *datatable.Synchronizer
	opts BrowserOptions
	log  *zap.Logger

	seq       int
	lastQuery string
	err       error

	cursor    int // selected body row
	colCursor int // selected visible column
	scrollX   int
	scrollY   int
	width     int
	height    int
	ready     bool

	mode         browserMode
	searchInput  textinput.Model
	searchBefore string
	filterIdx    int
	filterInput  textinput.Model
	optionCursor int
	dateInputs   [2]textinput.Model
	dateFocus    int

	statusMsg   string
	statusUntil time.Time
}

// ═══════════════════════════════════════════════════════════════════════════
// Key Bindings
// ═══════════════════════════════════════════════════════════════════════════

type browserKeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	ScrollLeft   key.Binding
	ScrollRight  key.Binding
	Home         key.Binding
	End          key.Binding
	Sort         key.Binding
	Hide         key.Binding
	ShowAll      key.Binding
	Search       key.Binding
	Filters      key.Binding
	DateRange    key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	Bigger       key.Binding
	Smaller      key.Binding
	Clear        key.Binding
	Refresh      key.Binding
	CopyLocation key.Binding
	CopyCell     key.Binding
	CopyRow      key.Binding
	Quit         key.Binding

	// Editing modes
	Confirm    key.Binding
	Cancel     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	OptionUp   key.Binding
	OptionDown key.Binding
}

var browserKeys = browserKeyMap{
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "prev column")),
	Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next column")),
	ScrollLeft:   key.NewBinding(key.WithKeys("shift+left"), key.WithHelp("⇧←", "scroll half left")),
	ScrollRight:  key.NewBinding(key.WithKeys("shift+right"), key.WithHelp("⇧→", "scroll half right")),
	Home:         key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first row")),
	End:          key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last row")),
	Sort:         key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Hide:         key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "hide column")),
	ShowAll:      key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "show all")),
	Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Filters:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filters")),
	DateRange:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dates")),
	NextPage:     key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
	PrevPage:     key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
	Bigger:       key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "bigger pages")),
	Smaller:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller pages")),
	Clear:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	Refresh:      key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
	CopyLocation: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "copy location")),
	CopyCell:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cell")),
	CopyRow:      key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy row")),
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),

	Confirm:    key.NewBinding(key.WithKeys("enter")),
	Cancel:     key.NewBinding(key.WithKeys("esc", "ctrl+c")),
	NextField:  key.NewBinding(key.WithKeys("tab")),
	PrevField:  key.NewBinding(key.WithKeys("shift+tab")),
	OptionUp:   key.NewBinding(key.WithKeys("up", "ctrl+p")),
	OptionDown: key.NewBinding(key.WithKeys("down", "ctrl+n")),
}

// ═══════════════════════════════════════════════════════════════════════════
// Entry Point
// ═══════════════════════════════════════════════════════════════════════════

// RunBrowser runs the interactive browser over tbl until the user quits and
// returns the final location. The table state should already be
// initialized (e.g. from a --view location).
func RunBrowser[T any](ctx context.Context, tbl *datatable.Table[T], src datatable.DataSource[T], opts BrowserOptions) (string, error) {
	m := newBrowserModel(ctx, tbl, src, opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return "", err
	}
	return m.sync.Location(), nil
}

func newBrowserModel[T any](ctx context.Context, tbl *datatable.Table[T], src datatable.DataSource[T], opts BrowserOptions) browserModel[T] {
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search..."
	search.CharLimit = 100
	search.Width = 30

	filter := textinput.New()
	filter.Prompt = "› "
	filter.CharLimit = 100
	filter.Width = 30

	var dates [2]textinput.Model
	for i, prompt := range []string{"From ", "To "} {
		in := textinput.New()
		in.Prompt = prompt
		in.Placeholder = datatable.DateLayout
		in.CharLimit = len(datatable.DateLayout)
		in.Width = len(datatable.DateLayout) + 1
		dates[i] = in
	}

	m := browserModel[T]{
		ctx:         ctx,
		tbl:         tbl,
		src:         src,
		opts:        opts,
		log:         log,
		searchInput: search,
		filterInput: filter,
		dateInputs:  dates,
	}
	m.sync = datatable.NewSynchronizer(opts.Path, tbl.Config(), func(loc string) {
		log.Debug("location changed", zap.String("location", loc))
	})
	m.sync.Attach(tbl.Store())
	m.sync.Observe(tbl.State())

	m.seq = 1
	m.lastQuery = queryKey(tbl.Query())
	tbl.SetLoading(true)
	return m
}

// ═══════════════════════════════════════════════════════════════════════════
// Fetching
// ═══════════════════════════════════════════════════════════════════════════

func queryKey(q datatable.Query) string {
	return fmt.Sprintf("%+v", q)
}

func load[T any](ctx context.Context, src datatable.DataSource[T], seq int, q datatable.Query) fetchedMsg[T] {
	page, err := src.Fetch(ctx, q)
	return fetchedMsg[T]{seq: seq, page: page, err: err}
}

func fetchPage[T any](ctx context.Context, src datatable.DataSource[T], seq int, q datatable.Query) tea.Cmd {
	return func() tea.Msg {
		return load(ctx, src, seq, q)
	}
}

// refetch starts a fetch if the query changed since the last one, or
// unconditionally when force is set.
func (m *browserModel[T]) refetch(force bool) tea.Cmd {
	q := m.tbl.Query()
	k := queryKey(q)
	if !force && k == m.lastQuery {
		return nil
	}
	m.lastQuery = k
	m.seq++
	m.tbl.SetLoading(true)
	m.log.Debug("fetching page", zap.Int("seq", m.seq), zap.Int("page", q.PageIndex), zap.Int("size", q.PageSize))
	return fetchPage(m.ctx, m.src, m.seq, q)
}

func (m *browserModel[T]) receive(msg fetchedMsg[T]) tea.Cmd {
	if msg.seq != m.seq {
		return nil
	}
	m.tbl.SetLoading(false)

	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return nil
		}
		m.log.Warn("fetch failed", zap.Error(msg.err))
		m.err = msg.err
		m.tbl.SetData(datatable.Page[T]{})
		m.cursor, m.scrollY = 0, 0
		return nil
	}

	m.err = nil
	m.tbl.SetData(msg.page)
	if m.tbl.ClampPage() {
		return m.refetch(false)
	}
	m.cursor = min(m.cursor, max(m.dataRowCount()-1, 0))
	m.ensureRowVisible()
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Bubble Tea Interface
// ═══════════════════════════════════════════════════════════════════════════

func (m browserModel[T]) Init() tea.Cmd {
	return fetchPage(m.ctx, m.src, m.seq, m.tbl.Query())
}

func (m browserModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height, m.ready = msg.Width, msg.Height, true
		m.ensureRowVisible()
		m.ensureColVisible()

	case fetchedMsg[T]:
		cmd := m.receive(msg)
		return m, cmd

	case statusClearMsg:
		if !m.statusUntil.IsZero() && !time.Now().Before(m.statusUntil) {
			m.statusMsg = ""
			m.statusUntil = time.Time{}
		}

	case tea.KeyMsg:
		var cmd tea.Cmd
		switch m.mode {
		case modeSearch:
			cmd = m.updateSearch(msg)
		case modeFilter:
			cmd = m.updateFilter(msg)
		case modeDateRange:
			cmd = m.updateDateRange(msg)
		default:
			if key.Matches(msg, browserKeys.Quit) {
				return m, tea.Quit
			}
			cmd = m.updateNormal(msg)
		}
		fetch := m.refetch(false)
		return m, tea.Batch(cmd, fetch)
	}

	return m, nil
}

func (m *browserModel[T]) updateNormal(msg tea.KeyMsg) tea.Cmd {
	cfg := m.tbl.Config()
	state := m.tbl.State()

	switch {
	case key.Matches(msg, browserKeys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.ensureRowVisible()
		}

	case key.Matches(msg, browserKeys.Down):
		if m.cursor < m.dataRowCount()-1 {
			m.cursor++
			m.ensureRowVisible()
		}

	case key.Matches(msg, browserKeys.Left):
		if m.colCursor > 0 {
			m.colCursor--
			m.ensureColVisible()
		}

	case key.Matches(msg, browserKeys.Right):
		if m.colCursor < len(m.tbl.VisibleColumns())-1 {
			m.colCursor++
			m.ensureColVisible()
		}

	case key.Matches(msg, browserKeys.ScrollLeft):
		m.scrollX = max(m.scrollX-max(m.width/2, 1), 0)

	case key.Matches(msg, browserKeys.ScrollRight):
		m.scrollX = min(m.scrollX+max(m.width/2, 1), m.maxScrollX())

	case key.Matches(msg, browserKeys.Home):
		m.cursor, m.scrollY = 0, 0

	case key.Matches(msg, browserKeys.End):
		m.cursor = max(m.dataRowCount()-1, 0)
		m.ensureRowVisible()

	case key.Matches(msg, browserKeys.Sort):
		col, ok := m.currentColumn()
		if !ok {
			return nil
		}
		if !col.Sortable {
			return m.setStatus(col.Title() + " is not sortable")
		}
		m.tbl.Store().SetSort(col.ID)

	case key.Matches(msg, browserKeys.Hide):
		col, ok := m.currentColumn()
		if !ok || cfg.DisableColumnVisibility {
			return nil
		}
		if col.DisableHiding {
			return m.setStatus(col.Title() + " cannot be hidden")
		}
		m.tbl.Store().SetColumnVisibility(col.ID, false)
		m.colCursor = min(m.colCursor, max(len(m.tbl.VisibleColumns())-1, 0))
		m.ensureColVisible()

	case key.Matches(msg, browserKeys.ShowAll):
		if !cfg.DisableColumnVisibility {
			m.tbl.Store().ShowAllColumns()
		}

	case key.Matches(msg, browserKeys.Search):
		if cfg.DisableSearch {
			return nil
		}
		m.mode = modeSearch
		m.searchBefore = state.Search
		m.searchInput.SetValue(state.Search)
		m.searchInput.CursorEnd()
		return m.searchInput.Focus()

	case key.Matches(msg, browserKeys.Filters):
		if len(cfg.Filters) == 0 {
			return nil
		}
		m.mode = modeFilter
		return m.focusFilter(m.filterIdx)

	case key.Matches(msg, browserKeys.DateRange):
		if cfg.DisableDateRange {
			return nil
		}
		m.mode = modeDateRange
		m.dateInputs[0].SetValue(state.DateRange.From)
		m.dateInputs[1].SetValue(state.DateRange.To)
		m.dateInputs[1].Blur()
		m.dateFocus = 0
		return m.dateInputs[0].Focus()

	case key.Matches(msg, browserKeys.NextPage):
		m.tbl.NextPage()
		m.cursor, m.scrollY = 0, 0

	case key.Matches(msg, browserKeys.PrevPage):
		m.tbl.PreviousPage()
		m.cursor, m.scrollY = 0, 0

	case key.Matches(msg, browserKeys.Bigger):
		if !cfg.DisablePagination {
			m.tbl.CyclePageSize(1)
			m.cursor, m.scrollY = 0, 0
		}

	case key.Matches(msg, browserKeys.Smaller):
		if !cfg.DisablePagination {
			m.tbl.CyclePageSize(-1)
			m.cursor, m.scrollY = 0, 0
		}

	case key.Matches(msg, browserKeys.Clear):
		if cfg.DisableClearFilters {
			return nil
		}
		m.tbl.Reset()
		m.cursor, m.colCursor, m.scrollX, m.scrollY = 0, 0, 0, 0

	case key.Matches(msg, browserKeys.Refresh):
		return m.refetch(true)

	case key.Matches(msg, browserKeys.CopyLocation):
		return m.copy(m.sync.Location(), "Copied location")

	case key.Matches(msg, browserKeys.CopyCell):
		row, ok := m.currentRow()
		if !ok || m.colCursor >= len(row.Cells) {
			return nil
		}
		val := row.Cells[m.colCursor]
		return m.copy(val, "Copied: "+util.Truncate(val, 40))

	case key.Matches(msg, browserKeys.CopyRow):
		row, ok := m.currentRow()
		if !ok {
			return nil
		}
		return m.copy(strings.Join(row.Cells, "\t"), fmt.Sprintf("Copied row (%d columns)", len(row.Cells)))
	}

	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Search, Filters, Date Range
// ═══════════════════════════════════════════════════════════════════════════

func (m *browserModel[T]) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, browserKeys.Cancel):
		m.mode = modeNormal
		m.searchInput.Blur()
		m.setSearch(m.searchBefore)
		return nil
	case key.Matches(msg, browserKeys.Confirm):
		m.mode = modeNormal
		m.searchInput.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.setSearch(m.searchInput.Value())
	return cmd
}

func (m *browserModel[T]) setSearch(text string) {
	if m.tbl.State().Search == text {
		return
	}
	m.tbl.Store().SetSearch(text)
	m.cursor, m.scrollY = 0, 0
}

// focusFilter moves the filter panel to the idx-th filter, wrapping around.
func (m *browserModel[T]) focusFilter(idx int) tea.Cmd {
	n := len(m.tbl.Config().Filters)
	m.filterIdx = ((idx % n) + n) % n
	ctrl := m.tbl.Controls()[m.filterIdx]
	m.optionCursor = selectedOption(ctrl)

	switch ctrl.Spec.Kind.(type) {
	case datatable.TextFilter, nil:
		m.filterInput.SetValue(ctrl.Value)
	case datatable.SearchSelectFilter:
		m.filterInput.SetValue(ctrl.Query)
	default:
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		return nil
	}
	m.filterInput.CursorEnd()
	return m.filterInput.Focus()
}

func selectedOption(ctrl datatable.FilterControl) int {
	for i, o := range ctrl.Options {
		if o.Selected {
			return i
		}
	}
	return 0
}

func (m *browserModel[T]) updateFilter(msg tea.KeyMsg) tea.Cmd {
	ctrl := m.tbl.Controls()[m.filterIdx]

	switch {
	case key.Matches(msg, browserKeys.Cancel):
		m.mode = modeNormal
		m.filterInput.Blur()
		return nil
	case key.Matches(msg, browserKeys.NextField):
		return m.focusFilter(m.filterIdx + 1)
	case key.Matches(msg, browserKeys.PrevField):
		return m.focusFilter(m.filterIdx - 1)
	}

	switch ctrl.Spec.Kind.(type) {
	case datatable.SelectFilter:
		return m.updateOptions(msg, ctrl, false)
	case datatable.SearchSelectFilter:
		return m.updateOptions(msg, ctrl, true)
	default:
		return m.updateTextFilter(msg, ctrl)
	}
}

func (m *browserModel[T]) updateTextFilter(msg tea.KeyMsg, ctrl datatable.FilterControl) tea.Cmd {
	if key.Matches(msg, browserKeys.Confirm) {
		m.mode = modeNormal
		m.filterInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if v := m.filterInput.Value(); v != ctrl.Value {
		m.tbl.Store().SetFilterValue(ctrl.Spec.ID, v)
		m.cursor, m.scrollY = 0, 0
	}
	return cmd
}

// updateOptions drives both select kinds; searchable ones also feed typed
// keys into the local option query.
func (m *browserModel[T]) updateOptions(msg tea.KeyMsg, ctrl datatable.FilterControl, searchable bool) tea.Cmd {
	id := ctrl.Spec.ID

	switch {
	case key.Matches(msg, browserKeys.OptionUp):
		if m.optionCursor > 0 {
			m.optionCursor--
		}
		return nil

	case key.Matches(msg, browserKeys.OptionDown):
		if m.optionCursor < len(ctrl.Options)-1 {
			m.optionCursor++
		}
		return nil

	case key.Matches(msg, browserKeys.Confirm):
		if m.optionCursor >= len(ctrl.Options) {
			return nil
		}
		opt := ctrl.Options[m.optionCursor]
		value := opt.Value
		// Choosing the selected entry of a searchable select clears it.
		if opt.Unset || (searchable && opt.Selected) {
			value = ""
		}
		m.tbl.Store().SetFilterValue(id, value)
		m.cursor, m.scrollY = 0, 0
		if searchable {
			m.tbl.SetOptionQuery(id, "")
			m.filterInput.SetValue("")
			m.optionCursor = selectedOption(m.tbl.Controls()[m.filterIdx])
		}
		return nil
	}

	if !searchable {
		return nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if q := m.filterInput.Value(); q != ctrl.Query {
		m.tbl.SetOptionQuery(id, q)
		m.optionCursor = 0
	}
	return cmd
}

func (m *browserModel[T]) updateDateRange(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, browserKeys.Cancel):
		m.mode = modeNormal
		m.dateInputs[0].Blur()
		m.dateInputs[1].Blur()
		return nil

	case key.Matches(msg, browserKeys.Confirm):
		m.mode = modeNormal
		m.dateInputs[0].Blur()
		m.dateInputs[1].Blur()
		from := strings.TrimSpace(m.dateInputs[0].Value())
		to := strings.TrimSpace(m.dateInputs[1].Value())
		m.tbl.Store().SetDateRange(from, to)
		m.cursor, m.scrollY = 0, 0
		return nil

	case key.Matches(msg, browserKeys.NextField), key.Matches(msg, browserKeys.PrevField):
		m.dateInputs[m.dateFocus].Blur()
		m.dateFocus = 1 - m.dateFocus
		return m.dateInputs[m.dateFocus].Focus()
	}

	var cmd tea.Cmd
	m.dateInputs[m.dateFocus], cmd = m.dateInputs[m.dateFocus].Update(msg)
	return cmd
}

// ═══════════════════════════════════════════════════════════════════════════
// Status Message and Clipboard
// ═══════════════════════════════════════════════════════════════════════════

// setStatus sets a temporary status message that auto-clears.
func (m *browserModel[T]) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusUntil = time.Now().Add(statusDuration)
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}

func (m *browserModel[T]) copy(text, status string) tea.Cmd {
	if err := m.opts.Copy(text); err != nil {
		m.log.Warn("clipboard write failed", zap.Error(err))
		return m.setStatus("clipboard error: " + err.Error())
	}
	return m.setStatus(status)
}

// ═══════════════════════════════════════════════════════════════════════════
// Row / Column Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m browserModel[T]) dataRowCount() int {
	if m.tbl.Loading() {
		return 0
	}
	return len(m.tbl.Data().Rows)
}

func (m browserModel[T]) currentRow() (datatable.DisplayRow, bool) {
	rows := m.tbl.Rows()
	if m.cursor >= len(rows) || rows[m.cursor].Kind != datatable.RowData {
		return datatable.DisplayRow{}, false
	}
	return rows[m.cursor], true
}

func (m browserModel[T]) currentColumn() (datatable.ColumnDef, bool) {
	cols := m.tbl.VisibleColumns()
	if m.colCursor >= len(cols) {
		return datatable.ColumnDef{}, false
	}
	return cols[m.colCursor], true
}

func headerLabel(h datatable.Header) string {
	if !h.Sortable {
		return h.Column.Title()
	}
	return h.Column.Title() + " " + h.Sort.Glyph()
}

// columnWidths sizes every visible column to its widest header or cell,
// capped at maxColWidth.
func (m browserModel[T]) columnWidths() []int {
	headers := m.tbl.HeaderGroups()[0].Headers
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(headerLabel(h))
	}
	for _, row := range m.tbl.Rows() {
		if row.Kind != datatable.RowData {
			continue
		}
		for i, val := range row.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(val))
			}
		}
	}
	for i := range widths {
		widths[i] = min(max(widths[i], minColWidth), maxColWidth)
	}
	return widths
}

func (m browserModel[T]) colStartX(idx int) int {
	x := 0
	for i, w := range m.columnWidths() {
		if i == idx {
			break
		}
		x += w + colGap
	}
	return x
}

func (m browserModel[T]) totalWidth() int {
	total := 0
	for _, w := range m.columnWidths() {
		total += w + colGap
	}
	return total
}

func (m browserModel[T]) viewportWidth() int {
	return max(m.width-2, 1)
}

func (m browserModel[T]) maxScrollX() int {
	return max(m.totalWidth()-m.viewportWidth(), 0)
}

func (m browserModel[T]) panelHeight() int {
	return strings.Count(m.renderPanel(), "\n")
}

func (m browserModel[T]) visibleRowCount() int {
	return max(m.height-chromeLines-m.panelHeight(), 1)
}

// ═══════════════════════════════════════════════════════════════════════════
// Scroll Helpers
// ═══════════════════════════════════════════════════════════════════════════

func (m *browserModel[T]) ensureRowVisible() {
	visible := m.visibleRowCount()
	if m.cursor < m.scrollY {
		m.scrollY = m.cursor
	} else if m.cursor >= m.scrollY+visible {
		m.scrollY = m.cursor - visible + 1
	}
}

func (m *browserModel[T]) ensureColVisible() {
	widths := m.columnWidths()
	if m.colCursor >= len(widths) {
		m.scrollX = 0
		return
	}
	start := m.colStartX(m.colCursor)
	end := start + widths[m.colCursor]
	viewport := m.viewportWidth()

	if start < m.scrollX {
		m.scrollX = start
	} else if end > m.scrollX+viewport {
		if end-start <= viewport {
			m.scrollX = end - viewport
		} else {
			m.scrollX = start
		}
	}
	m.scrollX = min(max(m.scrollX, 0), m.maxScrollX())
}

// ═══════════════════════════════════════════════════════════════════════════
// ANSI-aware Viewport Slicing
// ═══════════════════════════════════════════════════════════════════════════

// applyViewport returns the visual columns [startX, startX+width) of s,
// keeping SGR escape sequences intact and padding with spaces.
func applyViewport(s string, startX, width int) string {
	if width <= 0 {
		return ""
	}
	startX = max(startX, 0)

	var out strings.Builder
	var active []string
	pos, written := 0, 0
	replayed := false

	runes := []rune(s)
	for i := 0; i < len(runes) && written < width; i++ {
		if runes[i] == '\x1b' && i+1 < len(runes) && runes[i+1] == '[' {
			j := i + 2
			for j < len(runes) && !isFinalByte(runes[j]) {
				j++
			}
			if j == len(runes) {
				break
			}
			seq := string(runes[i : j+1])
			if runes[j] == 'm' {
				if seq == "\x1b[0m" || seq == "\x1b[m" {
					active = active[:0]
				} else {
					active = append(active, seq)
				}
			}
			if pos >= startX {
				out.WriteString(seq)
			}
			i = j
			continue
		}

		if pos >= startX {
			if !replayed {
				for _, seq := range active {
					out.WriteString(seq)
				}
				replayed = true
			}
			out.WriteRune(runes[i])
			written++
		}
		pos++
	}

	if len(active) > 0 && written > 0 {
		out.WriteString("\x1b[0m")
	}
	if written < width {
		out.WriteString(strings.Repeat(" ", width-written))
	}
	return out.String()
}

func isFinalByte(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// ═══════════════════════════════════════════════════════════════════════════
// View
// ═══════════════════════════════════════════════════════════════════════════

func (m browserModel[T]) View() string {
	if !m.ready {
		return "Loading..."
	}

	var sb strings.Builder

	summary := pageSummary(m.tbl.PageInfo())
	if m.tbl.Loading() {
		summary += "  loading…"
	}
	sb.WriteString(styles.Render(titleStyle, m.opts.Title) + "  " + styles.Mute(summary) + "\n")
	sb.WriteString(styles.Render(styles.LocationStyle, m.sync.Location()) + "\n")
	sb.WriteString(m.renderControls() + "\n")
	sb.WriteString(m.renderPanel())
	sb.WriteString(m.renderTable())

	sb.WriteString("\n")
	switch {
	case m.statusMsg != "" && time.Now().Before(m.statusUntil):
		sb.WriteString(styles.SuccessMsg(m.statusMsg))
	case m.mode == modeSearch:
		sb.WriteString(styles.MutedMsg("enter confirm  esc cancel"))
	case m.mode == modeFilter:
		sb.WriteString(styles.MutedMsg("tab next filter  ↑↓ option  enter select  esc done"))
	case m.mode == modeDateRange:
		sb.WriteString(styles.MutedMsg("tab switch  enter apply  esc cancel"))
	default:
		sb.WriteString(styles.MutedMsg("↑↓←→ nav  s sort  H hide  V show all  / search  f filters  d dates  n/p page  +/- size  c clear  u copy link  y/Y copy  q quit"))
	}

	return sb.String()
}

// renderControls is the one-line summary of search, filters and dates.
func (m browserModel[T]) renderControls() string {
	cfg := m.tbl.Config()
	state := m.tbl.State()
	var parts []string

	if !cfg.DisableSearch {
		switch {
		case m.mode == modeSearch:
			parts = append(parts, m.searchInput.View())
		case state.Search != "":
			parts = append(parts, "search: "+styles.Cyan(state.Search))
		default:
			parts = append(parts, styles.Mute("/ search"))
		}
	}

	for _, ctrl := range m.tbl.Controls() {
		if ctrl.Placeholder || ctrl.Value == "" {
			parts = append(parts, styles.Mute(ctrl.Spec.Label))
			continue
		}
		parts = append(parts, ctrl.Spec.Label+": "+styles.Cyan(ctrl.Display))
	}

	if !cfg.DisableDateRange {
		dr := state.DateRange
		if dr.IsZero() {
			parts = append(parts, styles.Mute("d dates"))
		} else {
			from, to := dr.From, dr.To
			if from == "" {
				from = "…"
			}
			if to == "" {
				to = "…"
			}
			parts = append(parts, styles.Cyan(from+" "+styles.SymbolArrow+" "+to))
		}
	}

	if m.err != nil {
		parts = append(parts, styles.ErrorText("fetch failed: "+m.err.Error()))
	}
	return strings.Join(parts, "  ")
}

// renderPanel draws the editor of the active mode; every line ends in a
// newline so panelHeight can count them.
func (m browserModel[T]) renderPanel() string {
	var sb strings.Builder

	switch m.mode {
	case modeFilter:
		for i, ctrl := range m.tbl.Controls() {
			focused := i == m.filterIdx
			marker := "  "
			if focused {
				marker = styles.Render(styles.HelpKey, "▸ ")
			}
			value := ctrl.Display
			if ctrl.Placeholder {
				value = styles.Mute("(any)")
			}
			var typed, options bool
			switch ctrl.Spec.Kind.(type) {
			case datatable.SelectFilter:
				options = true
			case datatable.SearchSelectFilter:
				typed, options = true, true
			default:
				typed = true
			}
			if focused && typed {
				value = m.filterInput.View()
			}
			fmt.Fprintf(&sb, "%s%s: %s\n", marker, ctrl.Spec.Label, value)

			if focused && options {
				sb.WriteString(m.renderOptions(ctrl))
			}
		}

	case modeDateRange:
		fmt.Fprintf(&sb, "  %s   %s\n", m.dateInputs[0].View(), m.dateInputs[1].View())
	}

	return sb.String()
}

func (m browserModel[T]) renderOptions(ctrl datatable.FilterControl) string {
	if ctrl.NoMatches {
		return styles.Indent(styles.Mute("No matches"), 4) + "\n"
	}

	start := max(min(m.optionCursor-maxOptionLines/2, len(ctrl.Options)-maxOptionLines), 0)
	end := min(start+maxOptionLines, len(ctrl.Options))

	var sb strings.Builder
	for i := start; i < end; i++ {
		opt := ctrl.Options[i]
		check := "[ ]"
		if opt.Selected {
			check = "[x]"
		}
		line := check + " " + opt.Label
		if i == m.optionCursor {
			line = styles.Render(styles.SelectedStyle, line)
		}
		sb.WriteString("    " + line + "\n")
	}
	return sb.String()
}

func (m browserModel[T]) renderTable() string {
	headers := m.tbl.HeaderGroups()[0].Headers
	if len(headers) == 0 {
		return styles.Mute("No columns") + "\n"
	}

	widths := m.columnWidths()
	viewport := m.viewportWidth()
	var sb strings.Builder

	var header, sep strings.Builder
	for i, h := range headers {
		label := fit(headerLabel(h), widths[i])
		line := strings.Repeat("─", widths[i])
		if i == m.colCursor {
			header.WriteString(styles.Render(titleStyle, label))
			sep.WriteString(styles.Render(styles.HelpKey, line))
		} else {
			header.WriteString(styles.Render(styles.HeaderStyle, label))
			sep.WriteString(styles.Mute(line))
		}
		header.WriteString(strings.Repeat(" ", colGap))
		sep.WriteString(strings.Repeat(" ", colGap))
	}
	sb.WriteString(applyViewport(header.String(), m.scrollX, viewport) + "\n")
	sb.WriteString(applyViewport(sep.String(), m.scrollX, viewport) + "\n")

	rows := m.tbl.Rows()
	start := m.scrollY
	if len(rows) > 0 && rows[0].Kind != datatable.RowData {
		start = 0
	}
	end := min(start+m.visibleRowCount(), len(rows))
	for i := start; i < end; i++ {
		line := m.renderRow(rows[i], i == m.cursor, widths)
		sb.WriteString(applyViewport(line, m.scrollX, viewport) + "\n")
	}

	return sb.String()
}

func (m browserModel[T]) renderRow(row datatable.DisplayRow, selected bool, widths []int) string {
	var sb strings.Builder
	gap := strings.Repeat(" ", colGap)

	switch row.Kind {
	case datatable.RowSkeleton:
		for _, w := range widths {
			sb.WriteString(styles.Render(styles.SkeletonStyle, strings.Repeat("░", w)) + gap)
		}

	case datatable.RowEmpty:
		sb.WriteString(styles.Mute(row.Cells[0]))

	default:
		search := strings.ToLower(m.tbl.State().Search)
		for i, w := range widths {
			var val string
			if i < len(row.Cells) {
				val = row.Cells[i]
			}
			cell := fit(val, w)
			switch {
			case selected && i == m.colCursor:
				cell = styles.Render(styles.CursorCellStyle, cell)
			case selected:
				cell = styles.Render(styles.SelectedStyle, cell)
			case search != "" && strings.Contains(strings.ToLower(val), search):
				cell = styles.Render(styles.WarningStyle, cell)
			}
			sb.WriteString(cell + gap)
		}
	}

	return sb.String()
}
