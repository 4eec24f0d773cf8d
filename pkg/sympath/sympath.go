// SPDX-License-Identifier: MPL-2.0

// Package sympath defines dotted symbol paths such as "calc.util.add".
//
// A symbol path names a value by logical module and attribute chain. The
// split between the module part and the attribute part is not static: it is
// decided at resolution time by probing the longest importable prefix (see
// pkg/patch). This package only validates the lexical shape of a path and
// provides segment/prefix accessors.
package sympath

import (
	"fmt"
	"strings"
)

// Path is a validated dotted symbol path. The zero value is invalid; use
// Parse to construct one.
type Path struct {
	raw      string
	segments []string
}

// InvalidPathError reports a lexically malformed symbol path.
type InvalidPathError struct {
	// Raw is the offending input string.
	Raw string
	// Reason describes why the input was rejected.
	Reason string
}

// Error implements the error interface.
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid symbol path %q: %s", e.Raw, e.Reason)
}

// Parse validates s and returns it as a Path. A valid path is a non-empty
// dot-separated sequence of identifiers (letter or underscore followed by
// letters, digits, or underscores).
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, &InvalidPathError{Raw: s, Reason: "path is empty"}
	}
	segments := strings.Split(s, ".")
	for i, seg := range segments {
		if seg == "" {
			return Path{}, &InvalidPathError{Raw: s, Reason: fmt.Sprintf("segment %d is empty", i+1)}
		}
		if !isIdentifier(seg) {
			return Path{}, &InvalidPathError{Raw: s, Reason: fmt.Sprintf("segment %q is not an identifier", seg)}
		}
	}
	return Path{raw: s, segments: segments}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// compile-time-constant paths.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original dotted form.
func (p Path) String() string { return p.raw }

// IsZero reports whether p is the zero (unparsed) value.
func (p Path) IsZero() bool { return p.raw == "" }

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segments) }

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Prefix returns the dotted join of the first n segments.
// It panics if n is out of range.
func (p Path) Prefix(n int) string {
	if n < 1 || n > len(p.segments) {
		panic(fmt.Sprintf("sympath: prefix length %d out of range for %q", n, p.raw))
	}
	return strings.Join(p.segments[:n], ".")
}

// Tail returns the segments after the first n.
func (p Path) Tail(n int) []string {
	if n < 0 || n > len(p.segments) {
		panic(fmt.Sprintf("sympath: tail offset %d out of range for %q", n, p.raw))
	}
	out := make([]string, len(p.segments)-n)
	copy(out, p.segments[n:])
	return out
}

// isIdentifier reports whether s is a letter/underscore followed by letters,
// digits, or underscores. ASCII only: logical module and symbol names come
// from file and CUE field names, which this toolkit restricts to ASCII.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
