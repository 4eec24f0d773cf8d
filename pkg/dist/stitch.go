// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"modswap/pkg/module"
)

var packageClause = regexp.MustCompile(`(?m)^[ \t]*package[ \t]+[A-Za-z_][A-Za-z0-9_]*[ \t]*\r?\n`)

// Stitch concatenates the module's sources into a single script at outPath,
// starting with the header marker the mode detector recognizes. Sources in
// subdirectories keep their namespace by being wrapped in a struct named
// after each directory segment. Package clauses are stripped: the stitched
// script is one self-contained document.
func Stitch(moduleDir, outPath string) error {
	sources, err := collectSources(moduleDir, false)
	if err != nil {
		return err
	}

	root := newStitchNode()
	for _, src := range sources {
		root.add(strings.Split(path.Dir(src.rel), "/"), src)
	}

	var b strings.Builder
	b.WriteString(module.StitchedHeader)
	b.WriteString("\n")
	root.render(&b, 0)

	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write stitched script: %w", err)
	}
	return nil
}

// stitchNode is one directory level of the module tree being flattened.
type stitchNode struct {
	files    []source
	children map[string]*stitchNode
}

func newStitchNode() *stitchNode {
	return &stitchNode{children: make(map[string]*stitchNode)}
}

func (n *stitchNode) add(dirs []string, src source) {
	if len(dirs) == 0 || dirs[0] == "." {
		n.files = append(n.files, src)
		return
	}
	child, ok := n.children[dirs[0]]
	if !ok {
		child = newStitchNode()
		n.children[dirs[0]] = child
	}
	child.add(dirs[1:], src)
}

func (n *stitchNode) render(b *strings.Builder, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, src := range n.files {
		body := strings.TrimRight(packageClause.ReplaceAllString(string(src.data), ""), "\n")
		b.WriteString("\n")
		fmt.Fprintf(b, "%s// source: %s\n", indent, src.rel)
		for _, line := range strings.Split(body, "\n") {
			if line == "" {
				b.WriteString("\n")
				continue
			}
			b.WriteString(indent)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("\n")
		fmt.Fprintf(b, "%s%s: {\n", indent, name)
		n.children[name].render(b, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	}
}
