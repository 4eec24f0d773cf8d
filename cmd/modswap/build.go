// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"modswap/internal/issue"
	"modswap/internal/watch"
	"modswap/pkg/dist"
	"modswap/pkg/runtimemode"
)

var (
	buildWatch bool
	buildModes []string

	buildCmd = &cobra.Command{
		Use:   "build <module>",
		Short: "Build a module's distribution artifacts",
		Long: `Build the stitched script and zip archive for a module, along with the
manifests that let stale artifacts be detected.

With --watch, the module's sources are monitored and artifacts are
rebuilt after each editing burst.`,
		Args: cobra.ExactArgs(1),
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild when module sources change")
	buildCmd.Flags().StringSliceVar(&buildModes, "mode", nil, "artifact modes to build (stitched, archive; default both)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	name := args[0]

	moduleDir, err := findModuleDir(name)
	if err != nil {
		rendered, _ := issue.Get(issue.ModuleNotFoundId).Render("dark")
		fmt.Fprint(cmd.ErrOrStderr(), rendered)
		return err
	}

	modes, err := parseBuildModes(buildModes)
	if err != nil {
		return err
	}

	out := effectiveDistDir()
	rebuild := func() error {
		artifacts, err := dist.Build(moduleDir, out, modes...)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("build artifacts").
				WithResource(name).
				WithSuggestion("Make sure the module directory contains valid CUE sources").
				WithSuggestion("Check that the dist directory is writable").
				Wrap(err).
				BuildError()
		}
		for _, a := range artifacts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				SuccessStyle.Render("built"),
				ModuleStyle.Render(a.Module+" ("+a.Mode.String()+")"),
				VerboseStyle.Render(a.Path))
		}
		return nil
	}

	if err := rebuild(); err != nil {
		rendered, _ := issue.Get(issue.BuildFailedId).Render("dark")
		fmt.Fprint(cmd.ErrOrStderr(), rendered)
		return err
	}
	if !buildWatch {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
		SubtitleStyle.Render("watching"), ModuleStyle.Render(moduleDir))

	w, err := watch.New(watch.Config{
		BaseDir: moduleDir,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				SubtitleStyle.Render("changed"), strings.Join(changed, ", "))
			return rebuild()
		},
	})
	if err != nil {
		return err
	}
	return w.Run(cmd.Context())
}

// parseBuildModes converts --mode values, defaulting to both artifact modes.
func parseBuildModes(raw []string) ([]runtimemode.Mode, error) {
	if len(raw) == 0 {
		return []runtimemode.Mode{runtimemode.ModeStitched, runtimemode.ModeArchive}, nil
	}
	var modes []runtimemode.Mode
	for _, s := range raw {
		m, err := runtimemode.ParseMode(s)
		if err != nil {
			return nil, err
		}
		if m == runtimemode.ModePackage {
			return nil, fmt.Errorf("package is the source representation, not a build target")
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// findModuleDir locates a module's package directory under the effective
// search paths.
func findModuleDir(name string) (string, error) {
	roots := effectiveSearchPaths()
	for _, root := range roots {
		dir := filepath.Join(root, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() && hasCueSources(dir) {
			return dir, nil
		}
	}
	return "", issue.NewErrorContext().
		WithOperation("locate module").
		WithResource(name).
		WithSuggestion("Run 'modswap list' to see visible modules").
		WithSuggestion("Add the module's parent directory with --search-path").
		Wrap(fmt.Errorf("module %q not found under: %s", name, strings.Join(roots, ", "))).
		BuildError()
}

// hasCueSources reports whether dir contains at least one CUE file.
func hasCueSources(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries simply don't count
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".cue") {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}
