// SPDX-License-Identifier: MPL-2.0

// Package runtimemode classifies loaded modules into their distribution
// representation: a multi-file package directory, a single stitched script,
// or a zip archive bundle.
//
// Classification is a pure function of a module's origin metadata, which is
// fixed at load time: calling Detect twice on the same module identity always
// yields the same mode.
package runtimemode

import "fmt"

// Mode is the closed set of distribution representations a logical module
// may be loaded as.
type Mode int

const (
	// ModePackage is the default multi-file, directory-based representation.
	ModePackage Mode = iota
	// ModeStitched is a single concatenated script produced by the stitcher.
	ModeStitched
	// ModeArchive is a zip bundle containing the module's sources.
	ModeArchive
)

// modeNames maps modes to their canonical string form, which is also what
// the test-marker mechanism and CLI flags accept.
var modeNames = map[Mode]string{
	ModePackage:  "package",
	ModeStitched: "stitched",
	ModeArchive:  "archive",
}

// String returns the canonical name of the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the three defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode converts a canonical mode name back into a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown runtime mode %q (expected package, stitched, or archive)", s)
}
