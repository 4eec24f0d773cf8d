// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"modswap/internal/testutil"
	"modswap/pkg/module"
	"modswap/pkg/registry"
	"modswap/pkg/runtimemode"
)

func writeCalc(t *testing.T, root string) string {
	t.Helper()
	return testutil.WriteModule(t, root, "calc", map[string]string{
		"modfile.cue":  "module: name: \"calc\"\nmodule: version: \"1.2.3\"\n",
		"calc.cue":     `greeting: "hello"`,
		"util/sub.cue": "package util\n\nmode: \"fast\"\n",
	})
}

func TestStitchProducesMarkedSingleFile(t *testing.T) {
	root := t.TempDir()
	dir := writeCalc(t, root)
	out := filepath.Join(t.TempDir(), "calc"+StitchedSuffix)

	if err := Stitch(dir, out); err != nil {
		t.Fatalf("Stitch failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, module.StitchedHeader) {
		t.Errorf("stitched script does not start with the header marker:\n%s", text)
	}
	if strings.Contains(text, "package util") {
		t.Error("package clause survived stitching")
	}
	if strings.Contains(text, "modfile") {
		t.Error("module manifest leaked into the stitched script")
	}
	if !strings.Contains(text, "util: {") {
		t.Error("subdirectory sources were not wrapped in a namespace struct")
	}
}

func TestBundleKeepsRelativeLayout(t *testing.T) {
	root := t.TempDir()
	dir := writeCalc(t, root)
	out := filepath.Join(t.TempDir(), "calc"+ArchiveSuffix)

	if err := Bundle(dir, out); err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{"calc.cue", "modfile.cue", "util/sub.cue"}
	if len(names) != len(want) {
		t.Fatalf("archive entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBuildArtifactsLoadAsVariants(t *testing.T) {
	root := t.TempDir()
	dir := writeCalc(t, root)
	distDir := t.TempDir()

	artifacts, err := Build(dir, distDir)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("got %d artifacts, want 2", len(artifacts))
	}

	reg := registry.New(
		registry.WithSearchPaths(root),
		registry.WithArtifactSource(NewChecker(distDir, root)),
	)
	for _, mode := range []runtimemode.Mode{runtimemode.ModeStitched, runtimemode.ModeArchive} {
		v, err := reg.EnsureVariantLoaded("calc", mode)
		if err != nil {
			t.Fatalf("loading %s variant failed: %v", mode, err)
		}
		detected, err := runtimemode.Detect(v.Module)
		if err != nil {
			t.Fatal(err)
		}
		if detected != mode {
			t.Errorf("detected mode = %v, want %v", detected, mode)
		}
		if got, ok := v.Module.Lookup("greeting"); !ok || got != "hello" {
			t.Errorf("%s greeting = %v, %v; want hello", mode, got, ok)
		}
		util, ok := v.Module.Namespace("util")
		if !ok {
			t.Fatalf("%s variant lost the util namespace", mode)
		}
		if got, ok := util["mode"]; !ok || got != "fast" {
			t.Errorf("%s util.mode = %v, %v; want fast", mode, got, ok)
		}
	}
}

func TestCheckerReportsStaleAsAbsent(t *testing.T) {
	root := t.TempDir()
	dir := writeCalc(t, root)
	distDir := t.TempDir()

	if _, err := Build(dir, distDir); err != nil {
		t.Fatal(err)
	}
	checker := NewChecker(distDir, root)

	if _, ok := checker.Current("calc", runtimemode.ModeStitched); !ok {
		t.Fatal("fresh stitched artifact reported absent")
	}
	if _, ok := checker.Current("calc", runtimemode.ModeArchive); !ok {
		t.Fatal("fresh archive artifact reported absent")
	}

	// Edit a source: both artifacts must now read as absent.
	testutil.WriteFile(t, filepath.Join(dir, "calc.cue"), `greeting: "changed"`)
	if _, ok := checker.Current("calc", runtimemode.ModeStitched); ok {
		t.Error("stale stitched artifact reported current")
	}
	if _, ok := checker.Current("calc", runtimemode.ModeArchive); ok {
		t.Error("stale archive artifact reported current")
	}

	// Rebuild: fresh again.
	if _, err := Build(dir, distDir); err != nil {
		t.Fatal(err)
	}
	if _, ok := checker.Current("calc", runtimemode.ModeStitched); !ok {
		t.Error("rebuilt stitched artifact reported absent")
	}
}

func TestCheckerPackageModeHasNoArtifact(t *testing.T) {
	checker := NewChecker(t.TempDir())
	if _, ok := checker.Current("calc", runtimemode.ModePackage); ok {
		t.Error("package mode reported an artifact")
	}
}

func TestCheckerMissingArtifact(t *testing.T) {
	checker := NewChecker(t.TempDir(), t.TempDir())
	if _, ok := checker.Current("calc", runtimemode.ModeStitched); ok {
		t.Error("missing artifact reported current")
	}
}

func TestModuleName(t *testing.T) {
	root := t.TempDir()
	dir := writeCalc(t, root)

	name, err := ModuleName(dir)
	if err != nil {
		t.Fatal(err)
	}
	if name != "calc" {
		t.Errorf("ModuleName = %q, want calc", name)
	}

	bare := testutil.WriteModule(t, root, "plain", map[string]string{
		"plain.cue": `x: "1"`,
	})
	name, err = ModuleName(bare)
	if err != nil {
		t.Fatal(err)
	}
	if name != "plain" {
		t.Errorf("ModuleName without manifest = %q, want plain", name)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	root := t.TempDir()
	dir := writeCalc(t, root)

	m, err := NewManifest("calc", runtimemode.ModeStitched, dir)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "calc.manifest.toml")
	if err := m.Write(p); err != nil {
		t.Fatal(err)
	}
	got, err := ReadManifest(p)
	if err != nil {
		t.Fatal(err)
	}
	if got.Module != "calc" || got.Mode != "stitched" {
		t.Errorf("manifest header = %q/%q, want calc/stitched", got.Module, got.Mode)
	}
	if len(got.Sources) != 2 {
		t.Errorf("stitched manifest digests %d sources, want 2 (manifest excluded)", len(got.Sources))
	}
	if _, ok := got.Sources["util/sub.cue"]; !ok {
		t.Error("manifest missing util/sub.cue digest")
	}
}

func TestManifestBuildTimestamp(t *testing.T) {
	root := t.TempDir()
	dir := writeCalc(t, root)

	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })

	m, err := NewManifest("calc", runtimemode.ModeArchive, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !m.BuiltAt.Equal(fixed) {
		t.Errorf("BuiltAt = %v, want %v", m.BuiltAt, fixed)
	}

	p := filepath.Join(t.TempDir(), "calc.manifest.toml")
	if err := m.Write(p); err != nil {
		t.Fatal(err)
	}
	got, err := ReadManifest(p)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BuiltAt.Equal(fixed) {
		t.Errorf("BuiltAt after round trip = %v, want %v", got.BuiltAt, fixed)
	}
}
