package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/ui/table"
	"github.com/imgajeed76/metatable/internal/util"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write records as YAML or a spreadsheet",
		Long: `Write metadata records as a YAML list that import reads back, or as
an Excel workbook with one row per record. Without a file the output goes
to stdout.

Examples:
  metatable export backup.yaml
  metatable export --status all > everything.yaml
  metatable export --format xlsx metadata.xlsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("status", string(metadata.StatusActive), "Records to export: active, deleted or all")
	cmd.Flags().StringP("format", "f", "yaml", "Output format: yaml or xlsx")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	statusFlag, _ := cmd.Flags().GetString("status")
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "xlsx" {
		return util.NewError("Invalid format").
			WithContext(format).
			WithMessage("Expected yaml or xlsx")
	}
	status := metadata.Status(statusFlag)
	switch status {
	case metadata.StatusActive, metadata.StatusDeleted, metadata.StatusAll:
	default:
		return util.NewError("Invalid status").
			WithContext(statusFlag).
			WithMessage("Expected active, deleted or all")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), importTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var out io.Writer = cmd.OutOrStdout()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Create(args[0])
		if err != nil {
			return util.NewError("Cannot create export file").
				WithContext(args[0]).
				Wrap(err)
		}
		defer f.Close()
		out = f
	}

	var n int
	if format == "xlsx" {
		n, err = exportXLSX(ctx, svc, out, status)
	} else {
		n, err = svc.Export(ctx, out, status)
	}
	if err != nil {
		return explain(err, "", "")
	}

	fmt.Fprintln(cmd.ErrOrStderr(), styles.Successf("Exported %d records", n))
	return nil
}

func exportXLSX(ctx context.Context, svc *metadata.Service, w io.Writer, status metadata.Status) (int, error) {
	page, err := svc.List(ctx, metadata.ListOptions{NonPaginated: true, Status: status, SortBy: "key"})
	if err != nil {
		return 0, err
	}
	headers, rows := table.Cells(metadata.Columns(), page.Rows)
	return len(page.Rows), table.PrintXLSX(w, "Metadata", headers, rows)
}
