package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/ui/table"
	"github.com/imgajeed76/metatable/internal/util"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key> <type>",
		Short: "Show one metadata record",
		Long: `Show the live metadata record with the given key and type.

Examples:
  metatable get /pricing page
  metatable get /blog post --json`,
		Args: recordArgs("metatable get /pricing page"),
		RunE: runGet,
	}

	cmd.Flags().Bool("json", false, "Output the record as JSON")
	cmd.Flags().Bool("yaml", false, "Output the record as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	key, typ := args[0], args[1]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := svc.Get(ctx, key, typ)
	if err != nil {
		return explain(err, key, typ)
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return table.PrintJSON(out, rec)
	case yamlOutput:
		return table.PrintYAML(out, rec)
	}
	printRecord(out, rec)
	return nil
}

// printRecord shows a record as an aligned list of fields.
func printRecord(w io.Writer, rec metadata.Record) {
	status := styles.SuccessText(string(metadata.StatusActive))
	if !rec.Live() {
		status = styles.ErrorText(string(metadata.StatusDeleted))
	}

	fmt.Fprintf(w, "%s %s\n", styles.Key(rec.Key), styles.Type("("+rec.Type+")"))
	fields := []struct{ name, value string }{
		{"Title", rec.Title},
		{"Description", rec.Description},
		{"Keywords", rec.Keywords},
		{"Version", strconv.FormatFloat(rec.Version, 'f', 1, 64)},
		{"Status", status},
		{"Created", fmt.Sprintf("%s %s", util.FormatDate(rec.CreatedAt), styles.Mutef("(%s)", util.RelativeTime(rec.CreatedAt)))},
		{"Updated", fmt.Sprintf("%s %s", util.FormatDate(rec.UpdatedAt), styles.Mutef("(%s)", util.RelativeTime(rec.UpdatedAt)))},
		{"ID", styles.Mute(rec.ID)},
	}
	for _, f := range fields {
		fmt.Fprintf(w, "  %-13s %s\n", f.name+":", f.value)
	}
}
