// SPDX-License-Identifier: MPL-2.0

// Package modtest is the testing-facing surface of the module patching and
// swapping machinery. Every acquisition is scoped to the test through
// tb.Cleanup, so patches are released and swapped variants restored on every
// exit path, including failures.
package modtest

import (
	"fmt"
	"testing"

	"modswap/pkg/patch"
	"modswap/pkg/registry"
	"modswap/pkg/runtimemode"
	"modswap/pkg/swap"
)

// ModeMarkerKey is the opaque marker key carrying a requested runtime mode
// into a test scope.
const ModeMarkerKey = "modswap.mode"

// RequestedMode reads the runtime mode requested through a marker set, if
// any. Markers other than the mode key are ignored.
func RequestedMode(markers map[string]string) (runtimemode.Mode, bool, error) {
	raw, ok := markers[ModeMarkerKey]
	if !ok {
		return 0, false, nil
	}
	mode, err := runtimemode.ParseMode(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s marker: %w", ModeMarkerKey, err)
	}
	return mode, true, nil
}

// Harness binds the patch/swap machinery to one test and one registry. All
// operations fail the test on error rather than returning it, matching how
// fixture-style helpers are used.
type Harness struct {
	tb    testing.TB
	reg   *registry.Registry
	stack *patch.Stack
}

// New creates a harness over reg, wiring teardown into tb.Cleanup. Teardown
// releases any patches still held, in reverse application order.
func New(tb testing.TB, reg *registry.Registry) *Harness {
	tb.Helper()
	h := &Harness{tb: tb, reg: reg, stack: patch.NewStack(reg)}
	tb.Cleanup(func() {
		if err := h.stack.ReleaseAll(); err != nil {
			tb.Errorf("patch teardown failed: %v", err)
		}
	})
	return h
}

// Registry returns the registry the harness operates on.
func (h *Harness) Registry() *registry.Registry { return h.reg }

// Patch replaces the symbol at path for the remainder of the test. The
// returned release function may be called early to peel the patch off;
// otherwise teardown restores it.
func (h *Harness) Patch(path string, replacement any) func() {
	h.tb.Helper()
	handle, err := h.stack.Apply(path, replacement)
	if err != nil {
		h.tb.Fatalf("cannot patch %s: %v", path, err)
	}
	released := false
	return func() {
		h.tb.Helper()
		if released {
			return
		}
		if err := h.stack.Release(handle); err != nil {
			h.tb.Fatalf("cannot release patch on %s: %v", path, err)
		}
		released = true
	}
}

// Lookup resolves path against the currently active variants and returns its
// value, failing the test when the path does not resolve.
func (h *Harness) Lookup(path string) any {
	h.tb.Helper()
	v, err := patch.Lookup(h.reg, path)
	if err != nil {
		h.tb.Fatalf("cannot resolve %s: %v", path, err)
	}
	return v
}

// SwapRuntime activates the given variant of logicalName for the remainder
// of the test and restores the previous one at teardown. With no explicit
// mode, the harness honors the markers' requested mode and falls back to
// the package representation when no mode was requested. A missing or stale
// artifact degrades to the package representation with a warning rather
// than failing the test.
func (h *Harness) SwapRuntime(logicalName string, mode ...runtimemode.Mode) *swap.Session {
	h.tb.Helper()
	target := runtimemode.ModePackage
	if len(mode) > 0 {
		target = mode[0]
	}
	sess, err := swap.Enter(h.reg, logicalName, target)
	if err != nil {
		h.tb.Fatalf("cannot swap module %s to %s: %v", logicalName, target, err)
	}
	h.tb.Cleanup(func() {
		if err := sess.Exit(); err != nil {
			h.tb.Errorf("swap teardown for %s failed: %v", logicalName, err)
		}
	})
	return sess
}

// SwapRuntimeFromMarkers is SwapRuntime driven by a marker set: when the
// markers request a mode, that variant is activated, otherwise the package
// representation is.
func (h *Harness) SwapRuntimeFromMarkers(logicalName string, markers map[string]string) *swap.Session {
	h.tb.Helper()
	mode, ok, err := RequestedMode(markers)
	if err != nil {
		h.tb.Fatalf("cannot read requested mode for %s: %v", logicalName, err)
	}
	if !ok {
		return h.SwapRuntime(logicalName)
	}
	return h.SwapRuntime(logicalName, mode)
}

// DetectRuntimeMode reports the distribution mode of the currently active
// variant of logicalName.
func (h *Harness) DetectRuntimeMode(logicalName string) runtimemode.Mode {
	h.tb.Helper()
	v, err := h.reg.GetActive(logicalName)
	if err != nil {
		h.tb.Fatalf("cannot detect runtime mode of %s: %v", logicalName, err)
	}
	mode, err := runtimemode.Detect(v.Module)
	if err != nil {
		h.tb.Fatalf("cannot detect runtime mode of %s: %v", logicalName, err)
	}
	return mode
}

// defaultHarnesses memoizes one harness per test. All patches a test issues
// through the package-level helpers must flow through a single stack, or the
// release-order check could not see overlapping patches on the same symbol.
// No locking: like the registry, the calling test serializes access.
var defaultHarnesses = map[testing.TB]*Harness{}

func defaultHarness(tb testing.TB) *Harness {
	tb.Helper()
	if h, ok := defaultHarnesses[tb]; ok {
		return h
	}
	h := New(tb, registry.Default())
	defaultHarnesses[tb] = h
	tb.Cleanup(func() { delete(defaultHarnesses, tb) })
	return h
}

// Patch is the process-default-registry convenience form of Harness.Patch.
// All calls within one test share a harness, so release ordering is enforced
// across them.
func Patch(tb testing.TB, path string, replacement any) func() {
	tb.Helper()
	return defaultHarness(tb).Patch(path, replacement)
}

// SwapRuntime is the process-default-registry convenience form of
// Harness.SwapRuntime.
func SwapRuntime(tb testing.TB, logicalName string, mode ...runtimemode.Mode) *swap.Session {
	tb.Helper()
	return defaultHarness(tb).SwapRuntime(logicalName, mode...)
}

// DetectRuntimeMode is the process-default-registry convenience form of
// Harness.DetectRuntimeMode.
func DetectRuntimeMode(tb testing.TB, logicalName string) runtimemode.Mode {
	tb.Helper()
	return defaultHarness(tb).DetectRuntimeMode(logicalName)
}
