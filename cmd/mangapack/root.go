package main

import (
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BadgerOps/mangapack/internal/config"
	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/host"
)

var (
	// Global flags
	cfgPath   string
	logLevel  string
	logFormat string
	quiet     bool
	globalCfg *config.Config
	logger    *slog.Logger

	// currentOS is the platform checked by the startup gate.
	currentOS = runtime.GOOS
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mangapack",
		Short: "Clean, classify and archive image collections",
		Long: `mangapack walks a tree of image collections, removes corrupted images and
non-image files, sorts each collection into a long, medium or short tier by
image count, and packs every collection into a zip archive. A plain-text
report summarizing the run is written next to the archives.`,
		Example: `  mangapack process D:\manga
  mangapack process D:\manga D:\packed 8
  mangapack config show`,
		Version: "0.1.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize logging
			setupLogging()

			// Skip the platform gate and config loading for commands that don't need it
			if shouldSkipConfig(cmd.Name()) {
				return nil
			}

			// Refuse to run on an unsupported platform before touching the filesystem
			if err := host.CheckPlatform(currentOS, host.SupportedPlatforms()); err != nil {
				return err
			}

			// Load config
			if cfgPath == "" {
				var err error
				cfgPath, err = config.FindConfigFile()
				if err != nil {
					logger.Debug("config file not found, using defaults", "error", err)
				}
			}

			if cfgPath != "" {
				var err error
				globalCfg, err = config.Load(cfgPath)
				if err != nil {
					return failure.Wrap(failure.KindConfig, "load", cfgPath, err)
				}
			} else {
				globalCfg = config.DefaultConfig()
			}

			// Config supplies logging defaults; explicit flags win
			flags := cmd.Flags()
			reconfigure := false
			if !flags.Changed("log-level") && globalCfg.Log.Level != "" {
				logLevel = globalCfg.Log.Level
				reconfigure = true
			}
			if !flags.Changed("log-format") && globalCfg.Log.Format != "" {
				logFormat = globalCfg.Log.Format
				reconfigure = true
			}
			if reconfigure {
				setupLogging()
			}

			logger.Debug("config loaded", "path", cfgPath, "extensions", globalCfg.Scan.Extensions)
			return nil
		},
	}

	// Add persistent flags
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (auto-discovered if not specified)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "hide the progress bar and summary output")

	// Add subcommands
	cmd.AddCommand(
		newProcessCmd(),
		newConfigCmd(),
	)

	return cmd
}

// setupLogging initializes the slog logger based on flags
func setupLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.ToLower(logFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// shouldSkipConfig checks if a command should skip config loading
func shouldSkipConfig(cmdName string) bool {
	skipConfigCmds := map[string]bool{
		"help":       true,
		"version":    true,
		"completion": true,
	}
	return skipConfigCmds[cmdName]
}
