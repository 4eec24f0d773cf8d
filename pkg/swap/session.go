// SPDX-License-Identifier: MPL-2.0

// Package swap installs an alternate distribution variant of a logical
// module for the duration of a session and restores the prior variant on
// exit. Sessions compose by nesting: each session restores exactly the
// variant that was active when it was entered.
package swap

import (
	"errors"
	"fmt"
	"log/slog"

	"modswap/pkg/module"
	"modswap/pkg/registry"
	"modswap/pkg/runtimemode"
)

// Session is one entered swap scope. It is single-owner like the registry
// it wraps: Enter and Exit must be called from the same logical thread of
// control.
type Session struct {
	reg         *registry.Registry
	logicalName string
	requested   runtimemode.Mode
	effective   runtimemode.Mode
	variant     *registry.Variant
	prev        *registry.Variant
	done        bool
}

// Enter loads the requested variant of logicalName, makes it the active
// variant, and returns a session whose Exit restores the previously active
// one.
//
// When the requested distribution artifact is missing or stale, the session
// degrades rather than fails: a warning is logged and the always-available
// package representation is activated instead. Resolution failures that the
// package representation cannot paper over (no such module at all, malformed
// sources) are returned as errors.
func Enter(reg *registry.Registry, logicalName string, mode runtimemode.Mode) (*Session, error) {
	requested := mode
	effective := mode

	v, err := reg.EnsureVariantLoaded(logicalName, mode)
	if err != nil {
		var unavailable *registry.VariantUnavailableError
		if !errors.As(err, &unavailable) {
			return nil, err
		}
		slog.Warn("requested variant unavailable, falling back to package sources",
			"module", logicalName, "mode", mode.String(), "reason", unavailable.Reason)
		effective = runtimemode.ModePackage
		v, err = reg.EnsureVariantLoaded(logicalName, runtimemode.ModePackage)
		if err != nil {
			return nil, err
		}
	}

	prev, err := reg.SetActive(logicalName, v)
	if err != nil {
		return nil, err
	}
	slog.Debug("swap session entered",
		"module", logicalName, "mode", effective.String(), "previous", prev.Mode.String())
	return &Session{
		reg:         reg,
		logicalName: logicalName,
		requested:   requested,
		effective:   effective,
		variant:     v,
		prev:        prev,
	}, nil
}

// Exit restores the variant that was active when the session was entered.
// Exiting a session twice is an error.
func (s *Session) Exit() error {
	if s.done {
		return fmt.Errorf("swap session for module %q already exited", s.logicalName)
	}
	if _, err := s.reg.SetActive(s.logicalName, s.prev); err != nil {
		return fmt.Errorf("cannot restore previous variant of module %q: %w", s.logicalName, err)
	}
	s.done = true
	slog.Debug("swap session exited",
		"module", s.logicalName, "restored", s.prev.Mode.String())
	return nil
}

// LogicalName returns the swapped module's logical name.
func (s *Session) LogicalName() string { return s.logicalName }

// Requested returns the mode the session was asked for.
func (s *Session) Requested() runtimemode.Mode { return s.requested }

// Effective returns the mode actually activated, which differs from
// Requested only after a fallback.
func (s *Session) Effective() runtimemode.Mode { return s.effective }

// FellBack reports whether the requested variant was unavailable and the
// package representation was activated instead.
func (s *Session) FellBack() bool { return s.requested != s.effective }

// Module returns the symbol table of the variant the session activated.
func (s *Session) Module() *module.Module { return s.variant.Module }
