package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <key> <type>",
		Short: "Change the title, description or keywords of a record",
		Long: `Change the editable fields of a live metadata record. Fields without
a flag keep their value. Every change bumps the version by 0.1 and prints
what changed.

Example:
  metatable update /about page --title "About the team"`,
		Args: recordArgs("metatable update /about page --title \"About the team\""),
		RunE: runUpdate,
	}

	cmd.Flags().StringP("title", "t", "", "New title")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().StringP("keywords", "k", "", "New comma-separated keywords")

	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) error {
	key, typ := args[0], args[1]

	var patch metadata.Patch
	for name, dst := range map[string]**string{
		"title":       &patch.Title,
		"description": &patch.Description,
		"keywords":    &patch.Keywords,
	} {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetString(name)
			*dst = &v
		}
	}
	if patch.Empty() {
		return util.NewError("Nothing to update").
			WithMessage("Pass at least one of --title, --description or --keywords").
			WithSuggestions(fmt.Sprintf("metatable update %s %s --title \"New title\"", key, typ))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, changes, err := svc.Update(ctx, key, typ, patch)
	if err != nil {
		return explain(err, key, typ)
	}

	out := cmd.OutOrStdout()
	if len(changes) == 0 {
		fmt.Fprintln(out, styles.MutedMsg("No changes to "+recordName(key, typ)))
		return nil
	}

	fmt.Fprintln(out, styles.Successf("Updated %s %s", styles.Key(rec.Key), styles.Mutef("(%s, version %.1f)", rec.Type, rec.Version)))
	printChanges(out, changes)
	return nil
}

// printChanges shows one line per changed field with the edits marked.
func printChanges(w io.Writer, changes []metadata.FieldChange) {
	for _, c := range changes {
		var sb strings.Builder
		for _, s := range c.Segments {
			switch s.Op {
			case metadata.SegmentInsert:
				sb.WriteString(styles.Inserted(s.Text))
			case metadata.SegmentDelete:
				sb.WriteString(styles.Removed(s.Text))
			default:
				sb.WriteString(s.Text)
			}
		}
		fmt.Fprintf(w, "  %-13s %s\n", c.Field+":", sb.String())
	}
}
