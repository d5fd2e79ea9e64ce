package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/ui"
	"github.com/imgajeed76/metatable/internal/ui/table"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of metadata",
		Long: `Print one page of the metadata table.

The page is selected with the same query string the browser shows:

  metatable list --view 'type=page&sortBy=updatedAt&order=desc'
  metatable list --view 'search=pricing&from=2024-01-01&to=2024-03-31' --json

On a terminal without --no-pager or an output format, list opens the
interactive browser instead.`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE:    runList,
	}

	cmd.Flags().String("view", "", "Table state as a query string or location")
	cmd.Flags().Bool("json", false, "Output the page rows as JSON")
	cmd.Flags().Bool("yaml", false, "Output the page rows as YAML")
	cmd.Flags().Bool("raw", false, "Output tab-separated cells (for piping)")
	cmd.Flags().Bool("no-pager", false, "Print a plain table even on a terminal")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml", "raw")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	view, _ := cmd.Flags().GetString("view")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	raw, _ := cmd.Flags().GetBool("raw")
	noPager, _ := cmd.Flags().GetBool("no-pager")

	if !jsonOutput && !yamlOutput && !raw && !noPager && isTerminal(cmd.OutOrStdout()) {
		return runBrowse(cmd, args)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	tbl, err := newMetadataTable(ctx, svc, view)
	if err != nil {
		return err
	}

	spinner := ui.NewSpinner("Loading metadata")
	spinner.Start()
	page, err := svc.Fetch(ctx, tbl.Query())
	if err == nil {
		tbl.SetData(page)
		// A page past the end shows the last page instead.
		if tbl.ClampPage() {
			page, err = svc.Fetch(ctx, tbl.Query())
			tbl.SetData(page)
		}
	}
	spinner.Stop()
	if err != nil {
		return explain(err, "", "")
	}

	return table.DisplayPage(cmd.OutOrStdout(), tbl, table.DisplayOptions{
		JSON: jsonOutput,
		YAML: yamlOutput,
		Raw:  raw,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f)
}
