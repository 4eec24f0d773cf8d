// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"modswap/pkg/runtimemode"
)

// Manifest records what an artifact was built from. Freshness is judged by
// comparing the recorded source digests against the sources on disk.
type Manifest struct {
	Module  string            `toml:"module"`
	Mode    string            `toml:"mode"`
	BuiltAt time.Time         `toml:"built_at"`
	Sources map[string]string `toml:"sources"`
}

// NewManifest digests the sources the given mode's artifact consumes and
// returns the manifest to write alongside it.
func NewManifest(moduleName string, mode runtimemode.Mode, moduleDir string) (*Manifest, error) {
	digests, err := SourceDigests(moduleDir, mode)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Module:  moduleName,
		Mode:    mode.String(),
		BuiltAt: now().UTC(),
		Sources: digests,
	}, nil
}

// SourceDigests maps each source file the mode's artifact consumes, by
// module-root-relative path, to its hex SHA-256 digest.
func SourceDigests(moduleDir string, mode runtimemode.Mode) (map[string]string, error) {
	sources, err := collectSources(moduleDir, mode == runtimemode.ModeArchive)
	if err != nil {
		return nil, err
	}
	digests := make(map[string]string, len(sources))
	for _, src := range sources {
		sum := sha256.Sum256(src.data)
		digests[src.rel] = hex.EncodeToString(sum[:])
	}
	return digests, nil
}

// Write marshals the manifest as TOML at path.
func (m *Manifest) Write(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest previously written by Write.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
