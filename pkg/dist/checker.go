// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"modswap/pkg/runtimemode"
)

// Checker answers whether a current distribution artifact exists for a
// module/mode pair. A stale artifact (one whose recorded source digests no
// longer match the sources on disk) is reported the same as a missing one.
//
// Checker implements the registry's ArtifactSource.
type Checker struct {
	distDir     string
	searchPaths []string
}

// NewChecker creates a checker over distDir, locating module sources for
// freshness comparison under the given search paths.
func NewChecker(distDir string, searchPaths ...string) *Checker {
	return &Checker{distDir: distDir, searchPaths: searchPaths}
}

// Current returns the artifact path for (logicalName, mode) when the
// artifact exists and is up to date with the module's sources.
func (c *Checker) Current(logicalName string, mode runtimemode.Mode) (string, bool) {
	artifact, err := ArtifactPath(c.distDir, logicalName, mode)
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(artifact); err != nil {
		return "", false
	}

	manifest, err := ReadManifest(manifestPath(artifact))
	if err != nil {
		slog.Debug("artifact has no readable manifest, treating as stale",
			"module", logicalName, "mode", mode.String(), "err", err)
		return "", false
	}

	moduleDir, ok := c.locateSources(logicalName)
	if !ok {
		// Without sources there is nothing to be stale against.
		return artifact, true
	}
	current, err := SourceDigests(moduleDir, mode)
	if err != nil {
		return "", false
	}
	if !maps.Equal(manifest.Sources, current) {
		slog.Debug("artifact is stale", "module", logicalName, "mode", mode.String())
		return "", false
	}
	return artifact, true
}

func (c *Checker) locateSources(logicalName string) (string, bool) {
	for _, root := range c.searchPaths {
		dir := filepath.Join(root, logicalName)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, true
		}
	}
	return "", false
}
