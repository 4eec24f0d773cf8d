// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"

	"modswap/internal/config"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestEffectiveOverrides(t *testing.T) {
	origCfg, origPaths, origDist := cfg, searchPaths, distDir
	t.Cleanup(func() {
		cfg, searchPaths, distDir = origCfg, origPaths, origDist
	})

	cfg = &config.Config{SearchPaths: []string{"from-config"}, DistDir: "config-dist"}
	searchPaths = nil
	distDir = ""

	if got := effectiveSearchPaths(); len(got) != 1 || got[0] != "from-config" {
		t.Errorf("effectiveSearchPaths() = %v", got)
	}
	if got := effectiveDistDir(); got != "config-dist" {
		t.Errorf("effectiveDistDir() = %q", got)
	}

	searchPaths = []string{"from-flag"}
	distDir = "flag-dist"
	if got := effectiveSearchPaths(); got[0] != "from-flag" {
		t.Errorf("flag override lost: %v", got)
	}
	if got := effectiveDistDir(); got != "flag-dist" {
		t.Errorf("flag override lost: %q", got)
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("boom")
	err := &ExitError{Code: 3, Err: inner}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped cause")
	}

	bare := &ExitError{Code: 3}
	if bare.Error() != "exit status 3" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
