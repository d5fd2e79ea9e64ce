package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the metadata table",
		Long: `Create the metadata table and its indexes in the configured database.

Running init again is safe; existing records are kept.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := svc.Store().Init(ctx); err != nil {
		return util.NewError("Cannot create the metadata table").
			WithContext(util.RedactURL(current.dbURL)).
			WithCauses("The database user lacks CREATE privileges").
			Wrap(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), styles.Successf("Initialized metadata table in %s", styles.Cyan(util.RedactURL(current.dbURL))))
	return nil
}
