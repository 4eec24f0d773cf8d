// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"modswap/internal/issue"
	"modswap/pkg/dist"
	"modswap/pkg/registry"
	"modswap/pkg/runtimemode"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <module>",
	Short: "Show a module's variants, detected mode, and symbols",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	checker := dist.NewChecker(effectiveDistDir(), effectiveSearchPaths()...)
	reg := registry.New(
		registry.WithSearchPaths(effectiveSearchPaths()...),
		registry.WithArtifactSource(checker),
	)

	active, err := reg.GetActive(name)
	if err != nil {
		id := issue.ModuleParseErrorId
		var notFound *registry.ModuleNotFoundError
		if errors.As(err, &notFound) {
			id = issue.ModuleNotFoundId
		}
		rendered, _ := issue.Get(id).Render("dark")
		fmt.Fprint(cmd.ErrOrStderr(), rendered)
		return err
	}
	mode, err := runtimemode.Detect(active.Module)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", TitleStyle.Render(name))
	fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("active mode:"), mode)
	fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("location:"), VerboseStyle.Render(active.Module.Origin.Location))

	fmt.Fprintf(out, "  %s\n", SubtitleStyle.Render("artifacts:"))
	for _, m := range []runtimemode.Mode{runtimemode.ModeStitched, runtimemode.ModeArchive} {
		if path, ok := checker.Current(name, m); ok {
			fmt.Fprintf(out, "    %-8s %s %s\n", m, SuccessStyle.Render("current"), VerboseStyle.Render(path))
		} else {
			fmt.Fprintf(out, "    %-8s %s\n", m, WarningStyle.Render("missing or stale"))
		}
	}

	fmt.Fprintf(out, "  %s\n", SubtitleStyle.Render("symbols:"))
	for _, sym := range sortedSymbols(active.Module.Symbols, "") {
		fmt.Fprintf(out, "    %s\n", ModuleStyle.Render(sym))
	}
	return nil
}

// sortedSymbols flattens a symbol table into dotted names, recursing into
// nested namespaces.
func sortedSymbols(table map[string]any, prefix string) []string {
	var out []string
	for name, v := range table {
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		if nested, ok := v.(map[string]any); ok {
			out = append(out, sortedSymbols(nested, full)...)
			continue
		}
		out = append(out, full)
	}
	sort.Strings(out)
	return out
}
