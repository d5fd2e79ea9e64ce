package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/metadata"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and database health",
		Long: `Run diagnostics to check if metatable is properly configured.

This command checks:
  - Config file location
  - Database URL
  - Database connectivity
  - Metadata table presence and record counts`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Boldf("metatable doctor"))
	fmt.Fprintln(out)

	allOK := true

	fmt.Fprint(out, "Checking config file... ")
	path := current.cfg.Path()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(out, styles.Mute("NOT CREATED")+fmt.Sprintf(" (%s)", path))
		fmt.Fprintln(out, "  Defaults are in use until 'metatable config <key> <value>'")
	} else {
		fmt.Fprintln(out, styles.Successf("OK")+fmt.Sprintf(" (%s)", path))
	}

	fmt.Fprint(out, "Checking database URL... ")
	if current.dbURL == "" {
		fmt.Fprintln(out, styles.Errorf("NOT SET"))
		fmt.Fprintln(out, "  Run 'metatable config database.url sqlite://metadata.db'")
		printDoctorResult(cmd, false)
		return nil
	}
	fmt.Fprintln(out, styles.Successf("OK")+fmt.Sprintf(" (%s)", util.RedactURL(current.dbURL)))

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	fmt.Fprint(out, "Checking database connection... ")
	svc, closeStore, err := openService(ctx)
	if err != nil {
		fmt.Fprintln(out, styles.Errorf("FAILED"))
		fmt.Fprintf(out, "  Error: %v\n", errors.Unwrap(err))
		printDoctorResult(cmd, false)
		return nil
	}
	defer closeStore()
	fmt.Fprintln(out, styles.Successf("OK"))

	fmt.Fprint(out, "Checking metadata table... ")
	active, err := svc.List(ctx, metadata.ListOptions{Page: 1, Count: 1, Status: metadata.StatusActive})
	switch {
	case errors.Is(err, util.ErrSchemaMissing):
		fmt.Fprintln(out, styles.Warningf("NOT INITIALIZED"))
		fmt.Fprintln(out, "  Run 'metatable init' to create it")
		allOK = false
	case err != nil:
		fmt.Fprintln(out, styles.Errorf("FAILED"))
		fmt.Fprintf(out, "  Error: %v\n", err)
		allOK = false
	default:
		deleted, err := svc.List(ctx, metadata.ListOptions{Page: 1, Count: 1, Status: metadata.StatusDeleted})
		if err != nil {
			fmt.Fprintln(out, styles.Errorf("FAILED"))
			fmt.Fprintf(out, "  Error: %v\n", err)
			allOK = false
			break
		}
		fmt.Fprintln(out, styles.Successf("OK")+fmt.Sprintf(" (%d active, %d deleted)", active.TotalCount, deleted.TotalCount))
	}

	fmt.Fprintf(out, "Log file: %s\n", styles.Mute(current.cfg.LogFile()))

	printDoctorResult(cmd, allOK)
	return nil
}

func printDoctorResult(cmd *cobra.Command, ok bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	if ok {
		fmt.Fprintln(out, styles.Successf("All checks passed!"))
	} else {
		fmt.Fprintln(out, styles.Warningf("Some issues were found. See above for details."))
	}
}
