// SPDX-License-Identifier: MPL-2.0

package swap

import (
	"os"
	"path/filepath"
	"testing"

	"modswap/internal/testutil"
	"modswap/pkg/module"
	"modswap/pkg/registry"
	"modswap/pkg/runtimemode"
)

type staticArtifacts map[string]string

func (s staticArtifacts) Current(logicalName string, mode runtimemode.Mode) (string, bool) {
	p, ok := s[logicalName+"/"+mode.String()]
	return p, ok
}

// calcFixture builds a calc module with both a package tree and a stitched
// dist file, wired through a static artifact source.
func calcFixture(t *testing.T) *registry.Registry {
	t.Helper()
	root := t.TempDir()
	testutil.WriteModule(t, root, "calc", map[string]string{
		"calc.cue": `flavor: "package"`,
	})

	distDir := t.TempDir()
	stitched := filepath.Join(distDir, "calc.cue")
	content := module.StitchedHeader + "\n\nflavor: \"stitched\"\n"
	if err := os.WriteFile(stitched, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return registry.New(
		registry.WithSearchPaths(root),
		registry.WithArtifactSource(staticArtifacts{
			"calc/stitched": stitched,
		}),
	)
}

func activeFlavor(t *testing.T, reg *registry.Registry) string {
	t.Helper()
	m, err := reg.Import("calc")
	if err != nil {
		t.Fatal(err)
	}
	v, ok := m.Lookup("flavor")
	if !ok {
		t.Fatal("calc has no flavor symbol")
	}
	return v.(string)
}

func TestEnterExitRoundTrip(t *testing.T) {
	reg := calcFixture(t)

	if got := activeFlavor(t, reg); got != "package" {
		t.Fatalf("flavor = %q before session, want package", got)
	}

	sess, err := Enter(reg, "calc", runtimemode.ModeStitched)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if sess.FellBack() {
		t.Error("session reports fallback for an available variant")
	}
	if got := activeFlavor(t, reg); got != "stitched" {
		t.Errorf("flavor = %q inside session, want stitched", got)
	}

	if err := sess.Exit(); err != nil {
		t.Fatalf("Exit failed: %v", err)
	}
	if got := activeFlavor(t, reg); got != "package" {
		t.Errorf("flavor = %q after exit, want package", got)
	}
}

func TestFallbackKeepsPackageActive(t *testing.T) {
	root := t.TempDir()
	testutil.WriteModule(t, root, "calc", map[string]string{
		"calc.cue": `flavor: "package"`,
	})
	// No artifact source at all: every non-package variant is unavailable.
	reg := registry.New(registry.WithSearchPaths(root))

	sess, err := Enter(reg, "calc", runtimemode.ModeStitched)
	if err != nil {
		t.Fatalf("Enter should degrade, not fail: %v", err)
	}
	if !sess.FellBack() {
		t.Error("session does not report fallback")
	}
	if sess.Requested() != runtimemode.ModeStitched {
		t.Errorf("Requested = %v, want stitched", sess.Requested())
	}
	if sess.Effective() != runtimemode.ModePackage {
		t.Errorf("Effective = %v, want package", sess.Effective())
	}
	if got := activeFlavor(t, reg); got != "package" {
		t.Errorf("flavor = %q under fallback, want package", got)
	}
	if err := sess.Exit(); err != nil {
		t.Fatalf("Exit failed: %v", err)
	}
	if got := activeFlavor(t, reg); got != "package" {
		t.Errorf("flavor = %q after exit, want package", got)
	}
}

func TestEnterFailsWhenModuleMissingEntirely(t *testing.T) {
	reg := registry.New(registry.WithSearchPaths(t.TempDir()))
	if _, err := Enter(reg, "ghost", runtimemode.ModeStitched); err == nil {
		t.Fatal("Enter succeeded for a module with no sources at all")
	}
}

func TestNestedSessionsUnwind(t *testing.T) {
	reg := calcFixture(t)

	outer, err := Enter(reg, "calc", runtimemode.ModeStitched)
	if err != nil {
		t.Fatal(err)
	}
	inner, err := Enter(reg, "calc", runtimemode.ModePackage)
	if err != nil {
		t.Fatal(err)
	}
	if got := activeFlavor(t, reg); got != "package" {
		t.Errorf("flavor = %q inside inner session, want package", got)
	}

	if err := inner.Exit(); err != nil {
		t.Fatal(err)
	}
	if got := activeFlavor(t, reg); got != "stitched" {
		t.Errorf("flavor = %q after inner exit, want stitched", got)
	}
	if err := outer.Exit(); err != nil {
		t.Fatal(err)
	}
	if got := activeFlavor(t, reg); got != "package" {
		t.Errorf("flavor = %q after outer exit, want package", got)
	}
}

func TestDoubleExitFails(t *testing.T) {
	reg := calcFixture(t)
	sess, err := Enter(reg, "calc", runtimemode.ModeStitched)
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Exit(); err != nil {
		t.Fatal(err)
	}
	if err := sess.Exit(); err == nil {
		t.Fatal("second Exit succeeded")
	}
}

func TestSessionModuleMatchesActiveVariant(t *testing.T) {
	reg := calcFixture(t)
	sess, err := Enter(reg, "calc", runtimemode.ModeStitched)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := sess.Exit(); err != nil {
			t.Error(err)
		}
	}()

	imported, err := reg.Import("calc")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Module() != imported {
		t.Error("session module is not the one installed under the canonical name")
	}
	mode, err := runtimemode.Detect(sess.Module())
	if err != nil {
		t.Fatal(err)
	}
	if mode != runtimemode.ModeStitched {
		t.Errorf("detected mode = %v, want stitched", mode)
	}
}
