// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"modswap/internal/config"
	"modswap/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// searchPaths overrides the configured module search paths
	searchPaths []string
	// distDir overrides the configured dist directory
	distDir string

	// cfg is the loaded configuration, populated by initRootConfig.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "modswap",
		Short: "Build and inspect swappable module distributions",
		Long: TitleStyle.Render("modswap") + SubtitleStyle.Render(" - swappable module distributions") + `

modswap manages logical modules that exist in three distribution
representations: a multi-file package directory, a single stitched
script, and a zip archive. The same module can be loaded, inspected,
and swapped between representations at runtime.

Modules are directories of CUE documents; built artifacts carry a
manifest so stale ones are detected automatically.

` + SubtitleStyle.Render("Examples:") + `
  modswap list                 List modules under the search paths
  modswap build calc           Build calc's stitched and archive artifacts
  modswap build calc --watch   Rebuild whenever calc's sources change
  modswap inspect calc         Show calc's variants and symbols`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/modswap/config.cue)")
	rootCmd.PersistentFlags().StringArrayVar(&searchPaths, "search-path", nil, "module search path (repeatable, overrides config)")
	rootCmd.PersistentFlags().StringVar(&distDir, "dist-dir", "", "artifact output directory (overrides config)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(listCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig loads the config file and installs the CLI's styled slog
// handler. Flag values override config values.
func initRootConfig() {
	loaded, err := config.NewProvider().Load(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		loaded = config.DefaultConfig()
	}
	cfg = loaded

	if !verbose {
		verbose = cfg.UI.Verbose
	}

	level := charmlog.WarnLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Prefix: "modswap",
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
}

// effectiveSearchPaths returns the search paths after flag overrides.
func effectiveSearchPaths() []string {
	if len(searchPaths) > 0 {
		return searchPaths
	}
	return cfg.SearchPaths
}

// effectiveDistDir returns the dist directory after flag overrides.
func effectiveDistDir() string {
	if distDir != "" {
		return distDir
	}
	return cfg.DistDir
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
