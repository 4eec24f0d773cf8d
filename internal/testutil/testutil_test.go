// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteModule(t *testing.T) {
	root := t.TempDir()
	dir := WriteModule(t, root, "calc", map[string]string{
		"calc.cue":     `greeting: "hello"`,
		"util/sub.cue": `mode: "fast"`,
	})

	if dir != filepath.Join(root, "calc") {
		t.Errorf("module dir = %q", dir)
	}
	for _, rel := range []string{"calc.cue", "util/sub.cue"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected file %s: %v", rel, err)
		}
	}
}

func TestMustSetenv(t *testing.T) {
	const key = "MODSWAP_TESTUTIL_PROBE"
	restore := MustSetenv(t, key, "one")
	if got := os.Getenv(key); got != "one" {
		t.Errorf("env = %q, want one", got)
	}
	restore()
	if _, ok := os.LookupEnv(key); ok {
		t.Error("env var not unset after restore")
	}
}

func TestMustChdir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	restore := MustChdir(t, dir)
	now, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if now == wd {
		t.Error("working directory unchanged")
	}
	restore()
	back, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if back != wd {
		t.Errorf("working directory = %q after restore, want %q", back, wd)
	}
}
