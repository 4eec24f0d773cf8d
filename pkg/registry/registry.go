// SPDX-License-Identifier: MPL-2.0

// Package registry maintains the process-wide table of loaded module
// variants: for each logical name, the set of distribution variants resident
// in memory and the one that is currently active.
//
// The registry owns the canonical module cache — the single shared resource
// of the subsystem. Only SetActive (and the initial install on first load)
// mutates the cache table; symbol resolution and patching read through it and
// mutate attributes on objects reached through it, never the table itself.
//
// The registry is intentionally not safe for concurrent mutation: entries
// persist for the process lifetime and each test body is expected to own the
// process until it yields control back to the runner. Callers that run
// multiple logical threads of control must serialize access themselves.
package registry

import (
	"fmt"
	"log/slog"

	"modswap/pkg/module"
	"modswap/pkg/runtimemode"
)

// ArtifactSource answers whether a built distribution artifact for a logical
// module exists and is current. A stale artifact is treated exactly like a
// missing one.
type ArtifactSource interface {
	// Current returns the artifact path for (logicalName, mode) when the
	// artifact exists and is up to date with the module's package sources.
	Current(logicalName string, mode runtimemode.Mode) (path string, ok bool)
}

// Variant is one loaded distribution identity of a logical module.
type Variant struct {
	// LogicalName is the canonical import name.
	LogicalName string
	// Mode is the distribution representation this identity was loaded as.
	Mode runtimemode.Mode
	// Module is the loaded object graph.
	Module *module.Module
	// SearchLocation is where the loader found the source.
	SearchLocation string
}

// entry tracks all variants of one logical name. cached always contains
// active; a variant is added to cached exactly once per (name, mode) pair
// for the life of the process.
type entry struct {
	active *Variant
	cached map[runtimemode.Mode]*Variant
}

// Registry is the process-wide module variant table. Use New for isolated
// instances (tests) and Default for the shared process registry.
type Registry struct {
	searchPaths []string
	artifacts   ArtifactSource
	entries     map[string]*entry
	cache       map[string]*module.Module
	builtins    map[string]map[string]any
}

// Option configures a Registry.
type Option func(*Registry)

// WithSearchPaths sets the roots under which package directories are located.
func WithSearchPaths(paths ...string) Option {
	return func(r *Registry) { r.searchPaths = append([]string(nil), paths...) }
}

// WithArtifactSource sets the build/packaging collaborator consulted for
// stitched and archive artifacts.
func WithArtifactSource(src ArtifactSource) Option {
	return func(r *Registry) { r.artifacts = src }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:  make(map[string]*entry),
		cache:    make(map[string]*module.Module),
		builtins: make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry *Registry

// Configure replaces the process-wide default registry. Call once at process
// or test-session start, before anything resolves through Default; entries
// are never reset mid-run.
func Configure(opts ...Option) *Registry {
	defaultRegistry = New(opts...)
	return defaultRegistry
}

// Default returns the process-wide registry, creating an unconfigured one on
// first use.
func Default() *Registry {
	if defaultRegistry == nil {
		defaultRegistry = New()
	}
	return defaultRegistry
}

// RegisterBuiltins binds native Go symbols to a logical module. Builtins are
// merged into every variant at load time so each distribution representation
// carries the same native symbols; registering after a variant is already
// loaded also merges into the resident variants.
func (r *Registry) RegisterBuiltins(logicalName string, symbols map[string]any) {
	table := r.builtins[logicalName]
	if table == nil {
		table = make(map[string]any)
		r.builtins[logicalName] = table
	}
	for name, v := range symbols {
		table[name] = v
	}
	if e, ok := r.entries[logicalName]; ok {
		for _, variant := range e.cached {
			for name, v := range symbols {
				variant.Module.Symbols[name] = v
			}
		}
	}
}

// EnsureVariantLoaded loads the (logicalName, mode) variant if it is not
// already resident and returns it. The first variant ever loaded for a
// logical name becomes the initial active variant.
func (r *Registry) EnsureVariantLoaded(logicalName string, mode runtimemode.Mode) (*Variant, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("cannot load module %q: invalid mode %v", logicalName, mode)
	}
	e := r.entry(logicalName)
	if v, ok := e.cached[mode]; ok {
		return v, nil
	}

	v, err := r.load(logicalName, mode)
	if err != nil {
		return nil, err
	}
	e.cached[mode] = v
	slog.Debug("module variant loaded",
		"module", logicalName, "mode", mode.String(), "location", v.SearchLocation)

	if e.active == nil {
		e.active = v
		r.install(logicalName, v)
	}
	return v, nil
}

// GetActive returns the variant currently installed in the module cache for
// logicalName. If none has been swapped in yet, the natural package import
// counts as the initial active variant.
func (r *Registry) GetActive(logicalName string) (*Variant, error) {
	e := r.entry(logicalName)
	if e.active != nil {
		return e.active, nil
	}
	if _, err := r.EnsureVariantLoaded(logicalName, runtimemode.ModePackage); err != nil {
		return nil, err
	}
	return e.active, nil
}

// SetActive installs variant under the canonical import names covered by
// logicalName (including sub-namespace names) and returns the previously
// active variant.
//
// Blast radius: swapping a module whose sub-namespaces were already resolved
// and bound elsewhere does not retroactively change those bound references,
// only future lookups through the canonical path.
func (r *Registry) SetActive(logicalName string, variant *Variant) (*Variant, error) {
	if variant == nil {
		return nil, fmt.Errorf("cannot activate nil variant for module %q", logicalName)
	}
	if variant.LogicalName != logicalName {
		return nil, fmt.Errorf("variant belongs to module %q, not %q", variant.LogicalName, logicalName)
	}
	e := r.entry(logicalName)
	if cached, ok := e.cached[variant.Mode]; ok {
		if cached != variant {
			return nil, fmt.Errorf("a different %s variant of module %q is already registered",
				variant.Mode, logicalName)
		}
	} else {
		e.cached[variant.Mode] = variant
	}

	prev := e.active
	r.uninstall(logicalName, prev)
	r.install(logicalName, variant)
	e.active = variant
	return prev, nil
}

// Import returns the module installed under a canonical name, performing the
// natural package import when the name is not yet resident. Sub-namespace
// names (e.g. "calc.util") resolve only after their parent module is
// installed, or directly when a package directory of that exact name exists.
func (r *Registry) Import(name string) (*module.Module, error) {
	if m, ok := r.cache[name]; ok {
		return m, nil
	}
	v, err := r.GetActive(name)
	if err != nil {
		return nil, err
	}
	return v.Module, nil
}

// Cached returns the variants resident for logicalName, in mode order.
func (r *Registry) Cached(logicalName string) []*Variant {
	e, ok := r.entries[logicalName]
	if !ok {
		return nil
	}
	var out []*Variant
	for _, mode := range []runtimemode.Mode{runtimemode.ModePackage, runtimemode.ModeStitched, runtimemode.ModeArchive} {
		if v, ok := e.cached[mode]; ok {
			out = append(out, v)
		}
	}
	return out
}

// SearchPaths returns the configured package search roots.
func (r *Registry) SearchPaths() []string {
	return append([]string(nil), r.searchPaths...)
}

func (r *Registry) entry(logicalName string) *entry {
	e, ok := r.entries[logicalName]
	if !ok {
		e = &entry{cached: make(map[runtimemode.Mode]*Variant)}
		r.entries[logicalName] = e
	}
	return e
}

// install writes the variant's module (and a view per sub-namespace) into
// the canonical cache.
func (r *Registry) install(logicalName string, v *Variant) {
	r.cache[logicalName] = v.Module
	for _, ns := range v.Module.Namespaces() {
		table, ok := v.Module.Namespace(ns)
		if !ok {
			continue
		}
		canonical := logicalName + "." + ns
		r.cache[canonical] = &module.Module{
			Name:    canonical,
			Origin:  v.Module.Origin,
			Symbols: table,
		}
	}
}

// uninstall removes the previously-installed cache entries for a variant so
// stale sub-namespace names do not survive a swap.
func (r *Registry) uninstall(logicalName string, v *Variant) {
	if v == nil {
		return
	}
	for _, ns := range v.Module.Namespaces() {
		delete(r.cache, logicalName+"."+ns)
	}
	delete(r.cache, logicalName)
}
