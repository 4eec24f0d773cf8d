// SPDX-License-Identifier: MPL-2.0

package patch

import "fmt"

// ResolutionKind distinguishes the two unrecoverable resolution failures so
// callers know which fix to choose: a missing module needs a search-path or
// artifact fix, a broken attribute chain needs a path fix.
type ResolutionKind int

const (
	// NoImportablePrefix means no prefix of the path named an importable module.
	NoImportablePrefix ResolutionKind = iota
	// AttributeChainBroken means a module was found but an intermediate
	// attribute lookup failed before the final segment.
	AttributeChainBroken
)

// ResolutionError reports that a symbol path cannot be resolved. It is
// surfaced immediately and never retried.
type ResolutionError struct {
	// Path is the full dotted path that failed to resolve.
	Path string
	// Kind classifies the failure.
	Kind ResolutionKind
	// Segment is the segment at which the attribute chain broke
	// (AttributeChainBroken only).
	Segment string
	// Err is the underlying cause, when one exists.
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	switch e.Kind {
	case AttributeChainBroken:
		return fmt.Sprintf("cannot resolve %q: attribute chain broken at %q", e.Path, e.Segment)
	default:
		if e.Err != nil {
			return fmt.Sprintf("cannot resolve %q: no importable module prefix: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("cannot resolve %q: no importable module prefix", e.Path)
	}
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error { return e.Err }

// StackOrderError reports a release requested out of LIFO order. This is a
// programmer error in the calling test and is fatal to the current scope.
type StackOrderError struct {
	// Requested is the path of the record whose release was requested.
	Requested string
	// Expected is the path currently on top of the owner-scoped sub-stack,
	// i.e. the record that must be released first. Empty when the requested
	// record is not on the stack at all (already released or foreign).
	Expected string
}

// Error implements the error interface.
func (e *StackOrderError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("patch on %q is not on the stack (already released or foreign handle)", e.Requested)
	}
	return fmt.Sprintf("out-of-order release of patch on %q: %q must be released first", e.Requested, e.Expected)
}
