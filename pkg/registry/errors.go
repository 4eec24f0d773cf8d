// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"
	"strings"

	"modswap/pkg/runtimemode"
)

// VariantUnavailableError reports that a requested distribution artifact is
// missing or stale. Callers are expected to recover by falling back to the
// always-available package representation (see pkg/swap); this condition is
// a warning, not a scope failure.
type VariantUnavailableError struct {
	// LogicalName is the module whose variant was requested.
	LogicalName string
	// Mode is the requested distribution mode.
	Mode runtimemode.Mode
	// Reason describes why the variant could not be loaded.
	Reason string
}

// Error implements the error interface.
func (e *VariantUnavailableError) Error() string {
	return fmt.Sprintf("%s variant of module %q unavailable: %s", e.Mode, e.LogicalName, e.Reason)
}

// ModuleNotFoundError reports that no package directory for a logical name
// exists under any configured search path.
type ModuleNotFoundError struct {
	// LogicalName is the module that was looked up.
	LogicalName string
	// SearchPaths are the roots that were searched.
	SearchPaths []string
}

// Error implements the error interface.
func (e *ModuleNotFoundError) Error() string {
	if len(e.SearchPaths) == 0 {
		return fmt.Sprintf("module %q not found: no search paths configured", e.LogicalName)
	}
	return fmt.Sprintf("module %q not found under search paths: %s",
		e.LogicalName, strings.Join(e.SearchPaths, ", "))
}
