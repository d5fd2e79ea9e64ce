package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imgajeed76/metatable/internal/ui"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

// importTimeout covers a whole import, which may be thousands of records.
const importTimeout = 10 * time.Minute

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create or update records from a YAML file",
		Long: `Read a YAML list of records and create or update each one. A record
whose key and type already exist is updated when its fields differ.
Invalid records are reported and skipped. Use - to read stdin.

Example file:
  - key: /pricing
    type: page
    title: Pricing
    description: Plans and prices for every team size
    keywords: pricing, plans, billing`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return util.NewError("Cannot open import file").
				WithContext(args[0]).
				Wrap(err)
		}
		defer f.Close()
		in = f
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), importTimeout)
	defer cancel()

	svc, closeStore, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var progress *ui.Progress
	res, err := svc.Import(ctx, in, func(done, total int) {
		if progress == nil {
			progress = ui.NewProgress("Importing", total)
		}
		progress.Update(done)
	})
	if progress != nil {
		progress.Done()
	}
	if err != nil {
		return explain(err, "", "")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Successf("Imported %d created, %d updated, %d unchanged", res.Created, res.Updated, res.Unchanged))
	if len(res.Failed) == 0 {
		return nil
	}

	for _, f := range res.Failed {
		current.log.Warn("import failed", zap.Int("index", f.Index), zap.String("key", f.Key), zap.Error(f.Err))
		fmt.Fprintf(out, "  %s %s %s\n", styles.Errorf("#%d", f.Index+1), recordName(f.Key, f.Type), styles.Mute(f.Err.Error()))
	}
	return util.NewError(fmt.Sprintf("%d records failed to import", len(res.Failed))).
		WithMessage("The remaining records were imported").
		WithSuggestions("Fix the listed records and run the import again")
}
