// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules discovered under the search paths",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	found := discoverModules(effectiveSearchPaths())
	if len(found) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("no modules found"))
		return nil
	}
	for _, m := range found {
		fmt.Fprintf(out, "%s %s\n", ModuleStyle.Render(m.name), VerboseStyle.Render(m.dir))
	}
	return nil
}

type discoveredModule struct {
	name string
	dir  string
}

// discoverModules scans the search paths for directories holding CUE
// sources. Earlier search paths shadow later ones for the same name.
func discoverModules(roots []string) []discoveredModule {
	seen := make(map[string]bool)
	var out []discoveredModule
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || seen[e.Name()] {
				continue
			}
			dir := filepath.Join(root, e.Name())
			if !hasCueSources(dir) {
				continue
			}
			seen[e.Name()] = true
			out = append(out, discoveredModule{name: e.Name(), dir: dir})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
