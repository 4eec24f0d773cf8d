// SPDX-License-Identifier: MPL-2.0

// Package modfile parses the optional per-module manifest.
//
// A module directory may carry a modfile.cue declaring the module's name,
// version, and description. The manifest is metadata only: it is excluded
// from the module's symbol table, and when present its name must match the
// logical name derived from the directory.
package modfile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"modswap/pkg/cueutil"
	"modswap/pkg/platform"
)

// Name is the manifest file name inside a module directory.
const Name = "modfile.cue"

//go:embed schema.cue
var schemaBytes []byte

// Modfile is the decoded manifest.
type Modfile struct {
	Module ModuleInfo `json:"module"`
}

// ModuleInfo identifies the module the manifest belongs to.
type ModuleInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte, filename string) (*Modfile, error) {
	res, err := cueutil.ParseAndDecode[Modfile](
		schemaBytes,
		data,
		"#Modfile",
		cueutil.WithFilename(filename),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}
	if res.Value.Module.Name == "" {
		return nil, fmt.Errorf("%s: module.name is required", filename)
	}
	// Module directories are named after the module, so a reserved device
	// name would make the checkout unusable on Windows.
	if platform.IsWindowsReservedName(res.Value.Module.Name) {
		return nil, fmt.Errorf("%s: module.name %q is a reserved filename on Windows", filename, res.Value.Module.Name)
	}
	return res.Value, nil
}

// Load reads and parses the manifest in dir. It returns (nil, nil) when the
// directory has no manifest, since the manifest is optional.
func Load(dir string) (*Modfile, error) {
	path := filepath.Join(dir, Name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}
