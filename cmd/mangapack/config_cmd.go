package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/BadgerOps/mangapack/internal/config"
)

var configInitForce bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage mangapack configuration. Subcommands allow viewing the effective
configuration and writing a default config file.`,
		Example: `  mangapack config show
  mangapack config init ~/.config/mangapack/mangapack.yaml`,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration in YAML format. If a config file
is loaded, shows the loaded configuration; otherwise the defaults.`,
		Example: `  mangapack config show
  mangapack config show --config ./mangapack.yaml`,
		RunE: configShowRun,
	}

	return cmd
}

func configShowRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	log.Debug("showing configuration")

	data, err := globalCfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "======================")
	fmt.Fprintln(out, string(data))

	return nil
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a default config file",
		Long: `Write the default configuration to PATH (mangapack.yaml in the current
directory if omitted). An existing file is left alone unless --force is given.`,
		Example: `  mangapack config init
  mangapack config init --force ./mangapack.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: configInitRun,
	}

	cmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	return cmd
}

func configInitRun(cmd *cobra.Command, args []string) error {
	path := "mangapack.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := config.DefaultConfig().Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := config.WriteFile(path, data); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
