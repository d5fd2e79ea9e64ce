package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/ui/styles"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <key> <type>",
		Short: "Create a metadata record",
		Long: `Create a metadata record. Keys start with a slash and contain only
letters, digits and underscores; keywords are a comma-separated list of
3 to 15 entries.

Example:
  metatable create /pricing page \
    --title "Pricing" \
    --description "Plans and prices for every team size" \
    --keywords "pricing, plans, billing"`,
		Args: recordArgs("metatable create /pricing page --title Pricing ..."),
		RunE: runCreate,
	}

	cmd.Flags().StringP("title", "t", "", "Page title (3-50 characters)")
	cmd.Flags().String("description", "", "Page description (10-250 characters)")
	cmd.Flags().StringP("keywords", "k", "", "Comma-separated keywords (3-15 entries)")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	in := metadata.Input{Key: args[0], Type: args[1]}
	in.Title, _ = cmd.Flags().GetString("title")
	in.Description, _ = cmd.Flags().GetString("description")
	in.Keywords, _ = cmd.Flags().GetString("keywords")

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := svc.Create(ctx, in)
	if err != nil {
		return explain(err, in.Key, in.Type)
	}

	fmt.Fprintln(cmd.OutOrStdout(), styles.Successf("Created %s %s", styles.Key(rec.Key), styles.Mutef("(%s, version %.1f)", rec.Type, rec.Version)))
	return nil
}
