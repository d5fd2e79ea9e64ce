package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imgajeed76/metatable/internal/config"
	"github.com/imgajeed76/metatable/internal/logging"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// session is what the persistent pre-run prepares for every command.
type session struct {
	cfg   *config.Config
	log   *zap.Logger
	dbURL string
}

var current = &session{log: zap.NewNop()}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "metatable",
		Short: "Browse and manage page metadata in a paginated data table",
		Long: `metatable manages the SEO metadata records (key, type, title,
description, keywords) of a website and browses them in an interactive
data table with sorting, filtering, search, a date range and pagination.

The table state round-trips through a query string, so every view can be
shared and restored with --view:

  metatable browse --view 'sortBy=title&order=desc&page=2'

Records live in PostgreSQL (postgres://...) or SQLite (sqlite://path).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           Version,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = current.log.Sync()
		},
	}

	// Global flags
	root.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
	root.PersistentFlags().String("config", "", "Config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringP("database", "d", "", "Database URL (overrides config and $"+config.EnvDatabaseURL+")")

	root.SetVersionTemplate(fmt.Sprintf("metatable version %s\n  commit: %s\n  built:  %s\n", Version, CommitSHA, BuildDate))

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newConfigCmd(),
		newBrowseCmd(),
		newListCmd(),
		newGetCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newForceDeleteCmd(),
		newDoctorCmd(),
		newImportCmd(),
		newExportCmd(),
		newCompletionCmd(),
	)
	return root
}

var rootCmd = newRootCmd()

// Execute runs the command line and prints errors the way users see them.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		return err
	}
	return nil
}

func printError(err error) {
	var mtErr *util.MetatableError
	if errors.As(err, &mtErr) {
		fmt.Fprintln(os.Stderr, mtErr.Format())
		return
	}
	fmt.Fprintln(os.Stderr, styles.ErrorMsg(err.Error()))
}

// setup loads the config and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		styles.SetNoColor(true)
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return util.NewError("Cannot read config").
			WithContext(path).
			WithSuggestions("metatable config --list").
			Wrap(err)
	}
	dbURL := cfg.DatabaseURL()
	if url, _ := cmd.Flags().GetString("database"); url != "" {
		dbURL = url
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.LogFile(),
		Verbose: verbose && cmd.Annotations[annotationInteractive] == "",
	})
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}

	current = &session{
		cfg:   cfg,
		log:   log.With(zap.String("command", cmd.Name())),
		dbURL: dbURL,
	}
	current.log.Debug("config loaded", zap.String("path", cfg.Path()))
	return nil
}

// annotationInteractive marks commands that own the terminal; --verbose
// keeps their logs out of stderr.
const annotationInteractive = "interactive"

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for metatable.

To load completions:

Bash:
  $ source <(metatable completion bash)

Zsh:
  $ metatable completion zsh > "${fpath[1]}/_metatable"

Fish:
  $ metatable completion fish | source

PowerShell:
  PS> metatable completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Completion needs neither config nor logs.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "metatable version %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", CommitSHA)
			fmt.Fprintf(out, "  built:  %s\n", BuildDate)
		},
	}
}
