// SPDX-License-Identifier: MPL-2.0

// Package dist builds the distribution artifacts of a logical module: the
// single-file stitched script and the .modpack zip archive. A TOML manifest
// written next to each artifact records the source digests it was built
// from, so freshness can be checked without rebuilding.
package dist

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"modswap/pkg/modfile"
	"modswap/pkg/runtimemode"
)

const (
	// StitchedSuffix is appended to the module name for stitched scripts.
	StitchedSuffix = ".stitched.cue"
	// ArchiveSuffix is appended to the module name for zip bundles.
	ArchiveSuffix = ".modpack"
)

// Artifact describes one built distribution artifact.
type Artifact struct {
	Module string
	Mode   runtimemode.Mode
	// Path is the absolute artifact location.
	Path string
}

// ArtifactPath returns the canonical artifact location for a module/mode
// pair under distDir. Package mode has no artifact.
func ArtifactPath(distDir, moduleName string, mode runtimemode.Mode) (string, error) {
	switch mode {
	case runtimemode.ModeStitched:
		return filepath.Join(distDir, moduleName+StitchedSuffix), nil
	case runtimemode.ModeArchive:
		return filepath.Join(distDir, moduleName+ArchiveSuffix), nil
	default:
		return "", fmt.Errorf("mode %s has no distribution artifact", mode)
	}
}

// Build produces the requested artifacts for the module rooted at moduleDir
// and writes them, with their manifests, under distDir. With no explicit
// modes both artifacts are built.
func Build(moduleDir, distDir string, modes ...runtimemode.Mode) ([]Artifact, error) {
	if len(modes) == 0 {
		modes = []runtimemode.Mode{runtimemode.ModeStitched, runtimemode.ModeArchive}
	}
	name, err := ModuleName(moduleDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dist directory: %w", err)
	}

	var artifacts []Artifact
	for _, mode := range modes {
		out, err := ArtifactPath(distDir, name, mode)
		if err != nil {
			return nil, err
		}
		switch mode {
		case runtimemode.ModeStitched:
			err = Stitch(moduleDir, out)
		case runtimemode.ModeArchive:
			err = Bundle(moduleDir, out)
		}
		if err != nil {
			return nil, err
		}
		manifest, err := NewManifest(name, mode, moduleDir)
		if err != nil {
			return nil, err
		}
		if err := manifest.Write(manifestPath(out)); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{Module: name, Mode: mode, Path: out})
	}
	return artifacts, nil
}

// ModuleName determines the logical name of the module rooted at dir: the
// manifest's declared name when one exists, the directory basename otherwise.
func ModuleName(dir string) (string, error) {
	mf, err := modfile.Load(dir)
	if err != nil {
		return "", err
	}
	if mf != nil {
		return mf.Module.Name, nil
	}
	return filepath.Base(filepath.Clean(dir)), nil
}

// source is one module source file with its slash-separated path relative to
// the module root.
type source struct {
	rel  string
	data []byte
}

// collectSources gathers the CUE sources under moduleDir in deterministic
// order. Hidden directories are skipped. The module manifest is included
// when withModfile is set (archives carry it, stitched scripts do not).
func collectSources(moduleDir string, withModfile bool) ([]source, error) {
	var out []source
	err := filepath.WalkDir(moduleDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != moduleDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".cue") {
			return nil
		}
		if d.Name() == modfile.Name && !withModfile {
			return nil
		}
		rel, err := filepath.Rel(moduleDir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read module source %s: %w", p, err)
		}
		out = append(out, source{rel: filepath.ToSlash(rel), data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect sources under %s: %w", moduleDir, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no module sources under %s", moduleDir)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, nil
}

func manifestPath(artifactPath string) string {
	return artifactPath + ".manifest.toml"
}

// now is stubbed in tests.
var now = time.Now
