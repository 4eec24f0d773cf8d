// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"path/filepath"
	"testing"

	"modswap/internal/config"
	"modswap/internal/testutil"
	"modswap/pkg/runtimemode"
)

func withTestConfig(t *testing.T, paths []string, dist string) {
	t.Helper()
	origCfg, origPaths, origDist := cfg, searchPaths, distDir
	t.Cleanup(func() {
		cfg, searchPaths, distDir = origCfg, origPaths, origDist
	})
	cfg = &config.Config{SearchPaths: paths, DistDir: dist}
	searchPaths = nil
	distDir = ""
}

func TestParseBuildModes(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    []runtimemode.Mode
		wantErr bool
	}{
		{
			name: "default is both",
			raw:  nil,
			want: []runtimemode.Mode{runtimemode.ModeStitched, runtimemode.ModeArchive},
		},
		{
			name: "stitched only",
			raw:  []string{"stitched"},
			want: []runtimemode.Mode{runtimemode.ModeStitched},
		},
		{
			name:    "package rejected",
			raw:     []string{"package"},
			wantErr: true,
		},
		{
			name:    "unknown",
			raw:     []string{"zipapp"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBuildModes(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("modes = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("modes[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFindModuleDir(t *testing.T) {
	root := t.TempDir()
	dir := testutil.WriteModule(t, root, "calc", map[string]string{
		"calc.cue": `x: "1"`,
	})
	withTestConfig(t, []string{root}, t.TempDir())

	got, err := findModuleDir("calc")
	if err != nil {
		t.Fatalf("findModuleDir failed: %v", err)
	}
	if got != dir {
		t.Errorf("dir = %q, want %q", got, dir)
	}

	if _, err := findModuleDir("ghost"); err == nil {
		t.Error("findModuleDir succeeded for a missing module")
	}
}

func TestDiscoverModules(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	testutil.WriteModule(t, rootA, "calc", map[string]string{"calc.cue": `x: "1"`})
	testutil.WriteModule(t, rootA, "text", map[string]string{"text.cue": `y: "2"`})
	// Shadowed duplicate in a later root plus a dir without sources.
	testutil.WriteModule(t, rootB, "calc", map[string]string{"calc.cue": `x: "other"`})
	testutil.WriteFile(t, filepath.Join(rootB, "empty", "readme.md"), "not a module")

	found := discoverModules([]string{rootA, rootB})
	if len(found) != 2 {
		t.Fatalf("found %d modules, want 2: %+v", len(found), found)
	}
	if found[0].name != "calc" || found[1].name != "text" {
		t.Errorf("names = %v, %v", found[0].name, found[1].name)
	}
	if found[0].dir != filepath.Join(rootA, "calc") {
		t.Errorf("earlier root should shadow: %q", found[0].dir)
	}
}
