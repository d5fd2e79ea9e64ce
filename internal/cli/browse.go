package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/ui/table"
)

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse metadata in an interactive table",
		Long: `Open the metadata table in the terminal.

The current view is shown as a location (metadata?sortBy=title&order=desc)
that updates with every change. Pass it back with --view to restore the
view; quitting prints the final location.

Keys:
  ↑↓←→      navigate            s        sort column
  H         hide column         V        show all columns
  /         search              f        filters
  d         date range          c        clear filters
  n / p     next / prev page    + / -    page size
  u         copy location       y / Y    copy cell / row
  q         quit`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationInteractive: "true"},
		RunE:        runBrowse,
	}

	cmd.Flags().String("view", "", "Initial table state as a query string or location")

	return cmd
}

func runBrowse(cmd *cobra.Command, args []string) error {
	view, _ := cmd.Flags().GetString("view")
	ctx := cmd.Context()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	tbl, err := newMetadataTable(ctx, svc, view)
	if err != nil {
		return err
	}

	location, err := table.RunBrowser(ctx, tbl, svc, table.BrowserOptions{
		Title: "Metadata",
		Path:  metadata.Path,
		Log:   current.log,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), location)
	return nil
}
