// SPDX-License-Identifier: MPL-2.0

// Package module defines the in-process representation of a loaded module:
// its symbol table and the origin metadata that records how the module's
// source reached the process (directory, single stitched file, or archive
// entry). Origin is what runtime-mode classification operates on.
package module

import (
	"sort"
	"strings"
)

// ArchiveSeparator splits an archive path from the entry root inside it in
// an Origin location, e.g. "dist/calc.modpack!calc".
const ArchiveSeparator = "!"

// StitchedHeader is the build-time marker the stitcher writes as the first
// line of a single-file script. Loaders use it to set Origin.StitchedMarker.
const StitchedHeader = "// modswap:stitched"

// Origin describes where and how a module's source was loaded. It is fixed
// at load time and never mutated afterwards, which keeps mode classification
// a pure function of the module identity.
type Origin struct {
	// Location is the source location: a directory path, a file path, or an
	// archive path joined with ArchiveSeparator. Empty for synthetic modules
	// that were never materialized from a source location.
	Location string
	// SingleFile is true when the whole module came from one file.
	SingleFile bool
	// StitchedMarker is true when the single file carried the build-time
	// stitched header marker (see pkg/dist).
	StitchedMarker bool
	// FromArchive is true when the source was read out of a zip container.
	FromArchive bool
}

// InArchive reports whether the origin points inside an archive container,
// either via the flag or an archive boundary in the location path.
func (o Origin) InArchive() bool {
	return o.FromArchive || strings.Contains(o.Location, ArchiveSeparator)
}

// Module is one loaded identity of a logical module. Several Modules with
// the same Name may coexist in a process, one per distribution mode; the
// registry decides which one is active.
type Module struct {
	// Name is the logical (canonical import) name.
	Name string
	// Origin records the load source.
	Origin Origin
	// Symbols is the module's mutable attribute table. Values are arbitrary:
	// CUE-decoded data, nested namespaces (map[string]any), or natively
	// bound Go values such as functions.
	Symbols map[string]any
}

// Lookup returns the symbol bound to name, if present.
func (m *Module) Lookup(name string) (any, bool) {
	v, ok := m.Symbols[name]
	return v, ok
}

// Namespace walks a dotted relative name through nested symbol tables and
// returns the table it designates.
func (m *Module) Namespace(rel string) (map[string]any, bool) {
	table := m.Symbols
	if rel == "" {
		return table, true
	}
	for _, seg := range strings.Split(rel, ".") {
		v, ok := table[seg]
		if !ok {
			return nil, false
		}
		table, ok = v.(map[string]any)
		if !ok {
			return nil, false
		}
	}
	return table, true
}

// Namespaces returns the dotted relative names of all nested symbol tables,
// sorted. These are the canonical sub-module names a registry installs
// alongside the module itself.
func (m *Module) Namespaces() []string {
	var out []string
	collectNamespaces("", m.Symbols, &out)
	sort.Strings(out)
	return out
}

func collectNamespaces(prefix string, table map[string]any, out *[]string) {
	for name, v := range table {
		nested, ok := v.(map[string]any)
		if !ok {
			continue
		}
		full := name
		if prefix != "" {
			full = prefix + "." + name
		}
		*out = append(*out, full)
		collectNamespaces(full, nested, out)
	}
}
