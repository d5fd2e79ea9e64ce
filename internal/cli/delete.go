package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key> <type>",
		Short: "Soft-delete a metadata record",
		Long: `Mark a metadata record as deleted. Deleted records stay in the
database and are listed with --view 'status=deleted'; the key and type
become free for a new record.`,
		Aliases: []string{"rm"},
		Args:    recordArgs("metatable delete /old_page page"),
		RunE:    runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	key, typ := args[0], args[1]

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.Delete(ctx, key, typ); err != nil {
		return explain(err, key, typ)
	}

	fmt.Fprintln(cmd.OutOrStdout(), styles.Successf("Deleted %s", recordName(key, typ)))
	return nil
}

func newForceDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "force-delete <key> <type>",
		Short: "Permanently remove a metadata record",
		Long: `Permanently remove every record, live or deleted, with the given key
and type. This cannot be undone.`,
		Args: recordArgs("metatable force-delete /old_page page --yes"),
		RunE: runForceDelete,
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runForceDelete(cmd *cobra.Command, args []string) error {
	key, typ := args[0], args[1]
	yes, _ := cmd.Flags().GetBool("yes")

	if !yes && !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Permanently delete %s?", recordName(key, typ))) {
		return util.NewError("Aborted").
			WithMessage("Nothing was deleted").
			WithSuggestions(fmt.Sprintf("metatable force-delete %s %s --yes", key, typ))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.ForceDelete(ctx, key, typ); err != nil {
		return explain(err, key, typ)
	}

	fmt.Fprintln(cmd.OutOrStdout(), styles.Successf("Permanently deleted %s", recordName(key, typ)))
	return nil
}
