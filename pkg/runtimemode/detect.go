// SPDX-License-Identifier: MPL-2.0

package runtimemode

import (
	"fmt"

	"modswap/pkg/module"
)

// UnclassifiableModuleError indicates a module that carries no resolvable
// source location at all (e.g. a purely synthetic module). This is a defect
// in the caller's setup, not a recoverable runtime condition.
type UnclassifiableModuleError struct {
	// Name is the logical module name, when known.
	Name string
}

// Error implements the error interface.
func (e *UnclassifiableModuleError) Error() string {
	if e.Name == "" {
		return "module has no resolvable source location; cannot classify runtime mode"
	}
	return fmt.Sprintf("module %q has no resolvable source location; cannot classify runtime mode", e.Name)
}

// Detect classifies a loaded module into exactly one Mode.
//
// Checks are ordered and the first match wins:
//  1. single-file source carrying the stitched build marker -> ModeStitched
//  2. source location inside a zip container -> ModeArchive
//  3. anything else with a location -> ModePackage
func Detect(m *module.Module) (Mode, error) {
	return DetectOrigin(m.Name, m.Origin)
}

// DetectOrigin is Detect on bare origin metadata, for callers that hold a
// module identity handle rather than the module itself.
func DetectOrigin(name string, origin module.Origin) (Mode, error) {
	if origin.Location == "" {
		return 0, &UnclassifiableModuleError{Name: name}
	}
	if origin.SingleFile && origin.StitchedMarker {
		return ModeStitched, nil
	}
	if origin.InArchive() {
		return ModeArchive, nil
	}
	return ModePackage, nil
}
