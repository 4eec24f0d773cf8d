// SPDX-License-Identifier: MPL-2.0

// Package patch resolves dotted symbol paths against the active module
// variants of a registry and installs reversible, stack-ordered symbol
// replacements for the duration of a test scope.
package patch

import (
	"modswap/pkg/module"
	"modswap/pkg/registry"
	"modswap/pkg/sympath"
)

// Resolution is the read-only result of resolving a symbol path: the owning
// table, the final attribute name, and whether the attribute currently
// exists. Resolving mutates nothing.
type Resolution struct {
	// Module anchors the walk: the active variant whose canonical name was
	// the longest importable prefix of the path.
	Module *module.Module
	// Owner is the table holding (or not yet holding) the final attribute.
	Owner map[string]any
	// Attr is the final path segment, reported as a name, never dereferenced.
	Attr string
	// Present reports whether Owner currently has Attr.
	Present bool
	// Value is the current value when Present.
	Value any
}

// Resolve resolves a dotted path against the registry's currently active
// variants. The module/attribute boundary is found by probing the longest
// importable prefix, since a dotted path cannot statically distinguish a
// sub-module boundary from an attribute boundary. Results are never cached:
// the active variant can change between calls.
func Resolve(reg *registry.Registry, p sympath.Path) (Resolution, error) {
	if p.Len() < 2 {
		return Resolution{}, &ResolutionError{
			Path: p.String(),
			Kind: AttributeChainBroken,
			// A bare module name has no attribute segment to resolve.
			Segment: p.String(),
		}
	}

	var (
		anchor    *module.Module
		consumed  int
		importErr error
	)
	for k := p.Len() - 1; k >= 1; k-- {
		m, err := reg.Import(p.Prefix(k))
		if err == nil {
			anchor = m
			consumed = k
			break
		}
		if importErr == nil {
			importErr = err
		}
	}
	if anchor == nil {
		return Resolution{}, &ResolutionError{
			Path: p.String(),
			Kind: NoImportablePrefix,
			Err:  importErr,
		}
	}

	owner := anchor.Symbols
	tail := p.Tail(consumed)
	for _, seg := range tail[:len(tail)-1] {
		v, ok := owner[seg]
		if !ok {
			return Resolution{}, &ResolutionError{
				Path:    p.String(),
				Kind:    AttributeChainBroken,
				Segment: seg,
			}
		}
		owner, ok = v.(map[string]any)
		if !ok {
			return Resolution{}, &ResolutionError{
				Path:    p.String(),
				Kind:    AttributeChainBroken,
				Segment: seg,
			}
		}
	}

	attr := tail[len(tail)-1]
	value, present := owner[attr]
	return Resolution{
		Module:  anchor,
		Owner:   owner,
		Attr:    attr,
		Present: present,
		Value:   value,
	}, nil
}

// Lookup resolves a path and returns the value it currently designates.
// The attribute must exist.
func Lookup(reg *registry.Registry, pathStr string) (any, error) {
	p, err := sympath.Parse(pathStr)
	if err != nil {
		return nil, err
	}
	res, err := Resolve(reg, p)
	if err != nil {
		return nil, err
	}
	if !res.Present {
		return nil, &ResolutionError{
			Path:    pathStr,
			Kind:    AttributeChainBroken,
			Segment: res.Attr,
		}
	}
	return res.Value, nil
}
