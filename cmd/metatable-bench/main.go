package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/imgajeed76/metatable/internal/cli"
	"github.com/imgajeed76/metatable/internal/datatable"
	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/ui"
	"github.com/imgajeed76/metatable/internal/ui/styles"
)

// ═══════════════════════════════════════════════════════════════════════════
// metatable-bench: page query latency of a metadata store
//
// Usage:
//   metatable-bench [<database-url>] [options]
//
// Seeds synthetic records, then fetches one page per table view (sorting,
// search, filters, date range, deep pages) the way the browser does and
// reports median and p95 latency. Seeded records are purged afterwards
// unless --keep is given.
// ═══════════════════════════════════════════════════════════════════════════

// ═══════════════════════════════════════════════════════════════════════════
// Terminal: TTY detection and lipgloss styles
// ═══════════════════════════════════════════════════════════════════════════

var isTTY bool

func init() {
	isTTY = term.IsTerminal(int(os.Stdout.Fd())) && !styles.IsAccessible()
}

var (
	stBold  = lipgloss.NewStyle().Bold(true)
	stDim   = lipgloss.NewStyle().Foreground(styles.Muted)
	stInfo  = lipgloss.NewStyle().Foreground(styles.Info)
	stError = lipgloss.NewStyle().Foreground(styles.Error)
)

// render applies a lipgloss style, respecting NoColor
func render(s lipgloss.Style, text string) string {
	if styles.NoColor() || !isTTY {
		return text
	}
	return s.Render(text)
}

func main() {
	args := parseArgs()

	ctx := context.Background()
	store, err := cli.OpenStore(ctx, args.url)
	if err != nil {
		fatalMsg("Cannot open %s: %v", args.url, err)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		fatalMsg("Cannot create schema: %v", err)
	}
	svc := metadata.NewService(store, zap.NewNop())

	if !args.jsonMode {
		fmt.Println()
		sectionHeader(fmt.Sprintf("Seeding %s records", formatCount(args.records)))
	}
	keys, err := seed(ctx, svc, args.records, !args.jsonMode)
	if !args.keep {
		defer purge(ctx, svc, keys, !args.jsonMode)
	}
	if err != nil {
		fatalMsg("Seeding failed: %v", err)
	}

	types, err := svc.Types(ctx)
	if err != nil {
		fatalMsg("Cannot read types: %v", err)
	}

	var results []benchResult
	for _, sc := range scenarios(args.records, args.pageSize) {
		results = append(results, runScenario(ctx, svc, types, sc, args))
	}

	if args.jsonMode {
		writeJSONOutput(results, args.jsonPath)
		return
	}
	fmt.Println()
	printSummaryTable(results)
}

// ═══════════════════════════════════════════════════════════════════════════
// Data types
// ═══════════════════════════════════════════════════════════════════════════

type cliArgs struct {
	url      string
	records  int
	runs     int
	pageSize int
	keep     bool
	jsonMode bool
	jsonPath string // "" = stdout
}

type scenario struct {
	name string
	view string
}

type benchResult struct {
	Scenario string  `json:"scenario"`
	View     string  `json:"view"`
	Rows     int     `json:"rows"`
	Total    int     `json:"total"`
	MedianMS float64 `json:"median_ms"`
	P95MS    float64 `json:"p95_ms"`
	Error    string  `json:"error,omitempty"`
}

func parseArgs() cliArgs {
	args := cliArgs{
		url:      "sqlite://:memory:",
		records:  5000,
		runs:     20,
		pageSize: 25,
	}
	osArgs := os.Args[1:]

	intArg := func(i int, name string) int {
		n, err := strconv.Atoi(osArgs[i])
		if err != nil || n < 1 {
			fatalMsg("%s requires a positive integer, got: %s", name, osArgs[i])
		}
		return n
	}

	for i := 0; i < len(osArgs); i++ {
		switch osArgs[i] {
		case "--records", "-n":
			if i+1 < len(osArgs) {
				i++
				args.records = intArg(i, "--records")
			}
		case "--runs", "-r":
			if i+1 < len(osArgs) {
				i++
				args.runs = intArg(i, "--runs")
			}
		case "--page-size", "-p":
			if i+1 < len(osArgs) {
				i++
				args.pageSize = intArg(i, "--page-size")
			}
		case "--keep":
			args.keep = true
		case "--json", "-j":
			args.jsonMode = true
			if i+1 < len(osArgs) && !strings.HasPrefix(osArgs[i+1], "-") && !strings.Contains(osArgs[i+1], "://") {
				i++
				args.jsonPath = osArgs[i]
			}
		case "--no-color":
			styles.SetNoColor(true)
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		default:
			if !strings.HasPrefix(osArgs[i], "-") {
				args.url = osArgs[i]
			}
		}
	}
	return args
}

func printUsage() {
	fmt.Println()
	fmt.Printf("  %s\n\n", render(stBold, "metatable-bench")+" - page query latency of a metadata store")
	fmt.Println("  Usage:")
	fmt.Println("    metatable-bench [<database-url>] [options]")
	fmt.Println()
	fmt.Println("  Options:")
	fmt.Println("    -n, --records N     Records to seed (default 5000)")
	fmt.Println("    -r, --runs N        Fetches per view (default 20)")
	fmt.Println("    -p, --page-size N   Rows per page (default 25)")
	fmt.Println("        --keep          Keep the seeded records")
	fmt.Println("    -j, --json [path]   Write results as JSON")
	fmt.Println("        --no-color      Disable colored output")
	fmt.Println()
	fmt.Printf("  %s\n", render(stDim, "The default database is a throwaway in-memory SQLite store."))
	fmt.Println()
}

// ═══════════════════════════════════════════════════════════════════════════
// Seeding
// ═══════════════════════════════════════════════════════════════════════════

var seedTypes = []string{"page", "post", "product", "docs"}

func seed(ctx context.Context, svc *metadata.Service, n int, interactive bool) ([][2]string, error) {
	var progress *ui.Progress
	if interactive {
		progress = ui.NewProgress("Seeding", n)
	}
	keys := make([][2]string, 0, n)
	for i := range n {
		in := metadata.Input{
			Key:         fmt.Sprintf("/bench_%06d", i),
			Type:        seedTypes[i%len(seedTypes)],
			Title:       fmt.Sprintf("Bench record %d", i),
			Description: "Seeded record for table benchmarks",
			Keywords:    "bench, seed, record",
		}
		if _, err := svc.Create(ctx, in); err != nil {
			return keys, err
		}
		keys = append(keys, [2]string{in.Key, in.Type})
		if progress != nil {
			progress.Update(i + 1)
		}
	}
	if progress != nil {
		progress.Done()
	}
	return keys, nil
}

func purge(ctx context.Context, svc *metadata.Service, keys [][2]string, interactive bool) {
	spinner := ui.NewSpinner("Removing seeded records")
	if interactive {
		spinner.Start()
	}
	for _, k := range keys {
		if err := svc.ForceDelete(ctx, k[0], k[1]); err != nil {
			fmt.Fprintf(os.Stderr, "  %s\n", styles.WarningMsg(fmt.Sprintf("purge %s: %v", k[0], err)))
		}
	}
	spinner.Stop()
}

// ═══════════════════════════════════════════════════════════════════════════
// Scenarios
// ═══════════════════════════════════════════════════════════════════════════

func scenarios(records, pageSize int) []scenario {
	today := time.Now().Format(datatable.DateLayout)
	size := "pageSize=" + strconv.Itoa(pageSize)
	lastPage := strconv.Itoa((records-1)/pageSize + 1)
	return []scenario{
		{"newest first", size},
		{"sort by title", size + "&sortBy=title&order=asc"},
		{"sort by version desc", size + "&sortBy=version&order=desc"},
		{"search", size + "&search=record+42"},
		{"type filter", size + "&type=post"},
		{"key contains", size + "&key=_0001"},
		{"date range", size + "&from=" + today + "&to=" + today},
		{"last page", size + "&page=" + lastPage},
		{"deleted only", size + "&status=deleted"},
	}
}

func runScenario(ctx context.Context, svc *metadata.Service, types []string, sc scenario, args cliArgs) benchResult {
	res := benchResult{Scenario: sc.name, View: sc.view}

	tbl := datatable.NewTable(metadata.Columns(), datatable.Options{
		Filters:  metadata.Filters(types),
		PageSize: args.pageSize,
	})
	values, err := datatable.ParseLocation(sc.view)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	tbl.Store().Initialize(values, 0)
	q := tbl.Query()

	if !args.jsonMode {
		fmt.Printf("  %s %s\n", render(stInfo, styles.SymbolArrow), sc.name)
	}

	timings := make([]time.Duration, 0, args.runs)
	for range args.runs {
		start := time.Now()
		page, err := svc.Fetch(ctx, q)
		timings = append(timings, time.Since(start))
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Rows, res.Total = len(page.Rows), page.TotalCount
	}

	slices.Sort(timings)
	res.MedianMS = millis(timings[len(timings)/2])
	res.P95MS = millis(timings[min(len(timings)-1, len(timings)*95/100)])
	return res
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// ═══════════════════════════════════════════════════════════════════════════
// Output
// ═══════════════════════════════════════════════════════════════════════════

func printSummaryTable(results []benchResult) {
	sectionHeader("Summary")
	fmt.Println()

	fmt.Printf("  %-22s %6s %8s %10s %10s\n", "View", "Rows", "Total", "Median", "p95")
	fmt.Printf("  %s\n", render(stDim, strings.Repeat("─", 60)))

	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("  %-22s %s\n", r.Scenario, render(stError, r.Error))
			continue
		}
		fmt.Printf("  %-22s %6d %8s %8.2fms %8.2fms\n",
			r.Scenario, r.Rows, formatCount(r.Total), r.MedianMS, r.P95MS)
	}
	fmt.Println()
}

func writeJSONOutput(results []benchResult, path string) {
	var w *os.File
	if path == "" {
		w = os.Stdout
	} else {
		var err error
		w, err = os.Create(path)
		if err != nil {
			fatalMsg("Failed to create JSON file: %v", err)
		}
		defer w.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(results)
}

func formatCount(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}

func sectionHeader(title string) {
	fmt.Printf("  %s\n", render(stBold, title))
}

func fatalMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "\n  %s\n\n", styles.ErrorMsg(msg))
	os.Exit(1)
}
