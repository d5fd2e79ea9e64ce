package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imgajeed76/metatable/internal/config"
	"github.com/imgajeed76/metatable/internal/ui/styles"
	"github.com/imgajeed76/metatable/internal/util"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get and set configuration options",
		Long: `Get and set options in the metatable config file.

Examples:
  metatable config                                   # Show all options
  metatable config database.url                      # Get value
  metatable config database.url sqlite://meta.db     # Set value
  metatable config table.page_size 25                # Set value
  metatable config --list                            # List current values`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}

	cmd.Flags().BoolP("list", "l", false, "List all configuration values")

	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	listAll, _ := cmd.Flags().GetBool("list")
	cfg := current.cfg
	out := cmd.OutOrStdout()

	if listAll {
		for _, key := range config.ListKeys() {
			value, _ := cfg.GetValue(key)
			fmt.Fprintf(out, "%s=%s\n", key, value)
		}
		return nil
	}

	switch len(args) {
	case 0:
		fmt.Fprintln(out, styles.SectionHeader("Config file: ")+styles.Cyan(cfg.Path()))
		fmt.Fprintln(out)
		fmt.Fprintln(out, config.GenerateHelpText())
		return nil

	case 1:
		value, ok := cfg.GetValue(args[0])
		if !ok {
			return unknownConfigKey(args[0])
		}
		fmt.Fprintln(out, value)
		return nil
	}

	key, value := args[0], args[1]
	if _, ok := cfg.GetValue(key); !ok {
		return unknownConfigKey(key)
	}
	if err := cfg.SetValue(key, value); err != nil {
		return util.NewError("Invalid config value").
			WithContext(key).
			WithMessage(err.Error())
	}
	if err := cfg.Save(); err != nil {
		return util.NewError("Cannot write config").
			WithContext(cfg.Path()).
			Wrap(err)
	}

	fmt.Fprintln(out, styles.Successf("Set %s = %s", key, value))
	return nil
}

func unknownConfigKey(key string) error {
	return util.NewError("Unknown config key").
		WithContext(key).
		WithSuggestions("metatable config --list")
}
