// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"modswap/pkg/cueutil"
	"modswap/pkg/modfile"
	"modswap/pkg/module"
	"modswap/pkg/runtimemode"
)

// sourceFile is one CUE source contributing to a module, addressed by its
// slash-separated path relative to the module root.
type sourceFile struct {
	rel  string
	data []byte
}

// load performs the mode-specific load procedure: ordinary directory import
// for Package, marker-checked single-file load for Stitched, and zip-entry
// load for Archive.
func (r *Registry) load(logicalName string, mode runtimemode.Mode) (*Variant, error) {
	var (
		m   *module.Module
		loc string
		err error
	)
	switch mode {
	case runtimemode.ModePackage:
		m, loc, err = r.loadPackage(logicalName)
	case runtimemode.ModeStitched:
		m, loc, err = r.loadStitched(logicalName)
	case runtimemode.ModeArchive:
		m, loc, err = r.loadArchive(logicalName)
	default:
		err = fmt.Errorf("invalid mode %v", mode)
	}
	if err != nil {
		return nil, err
	}

	for name, v := range r.builtins[logicalName] {
		m.Symbols[name] = v
	}

	return &Variant{
		LogicalName:    logicalName,
		Mode:           mode,
		Module:         m,
		SearchLocation: loc,
	}, nil
}

func (r *Registry) loadPackage(logicalName string) (*module.Module, string, error) {
	dir, err := r.locatePackageDir(logicalName)
	if err != nil {
		return nil, "", err
	}

	if mf, err := modfile.Load(dir); err != nil {
		return nil, "", err
	} else if mf != nil && mf.Module.Name != logicalName {
		return nil, "", fmt.Errorf("manifest in %s declares module %q, expected %q",
			dir, mf.Module.Name, logicalName)
	}

	files, err := collectDirSources(dir)
	if err != nil {
		return nil, "", err
	}
	symbols, err := buildSymbols(files)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load package module %q: %w", logicalName, err)
	}
	return &module.Module{
		Name:    logicalName,
		Origin:  module.Origin{Location: dir},
		Symbols: symbols,
	}, dir, nil
}

func (r *Registry) loadStitched(logicalName string) (*module.Module, string, error) {
	path, ok := r.artifactPath(logicalName, runtimemode.ModeStitched)
	if !ok {
		return nil, "", &VariantUnavailableError{
			LogicalName: logicalName,
			Mode:        runtimemode.ModeStitched,
			Reason:      "artifact missing or stale",
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read stitched script %s: %w", path, err)
	}
	if !bytes.HasPrefix(data, []byte(module.StitchedHeader)) {
		return nil, "", fmt.Errorf("stitched script %s lacks the %q marker", path, module.StitchedHeader)
	}
	symbols, err := buildSymbols([]sourceFile{{rel: filepath.Base(path), data: data}})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load stitched module %q: %w", logicalName, err)
	}
	return &module.Module{
		Name: logicalName,
		Origin: module.Origin{
			Location:       path,
			SingleFile:     true,
			StitchedMarker: true,
		},
		Symbols: symbols,
	}, path, nil
}

func (r *Registry) loadArchive(logicalName string) (*module.Module, string, error) {
	archivePath, ok := r.artifactPath(logicalName, runtimemode.ModeArchive)
	if !ok {
		return nil, "", &VariantUnavailableError{
			LogicalName: logicalName,
			Mode:        runtimemode.ModeArchive,
			Reason:      "artifact missing or stale",
		}
	}
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	var files []sourceFile
	for _, entry := range zr.File {
		name := path.Clean(entry.Name)
		if entry.FileInfo().IsDir() || !strings.HasSuffix(name, ".cue") {
			continue
		}
		if path.Base(name) == modfile.Name {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, "", fmt.Errorf("failed to open archive entry %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("failed to read archive entry %s: %w", name, err)
		}
		files = append(files, sourceFile{rel: name, data: data})
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("archive %s contains no module sources", archivePath)
	}

	symbols, err := buildSymbols(files)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load archive module %q: %w", logicalName, err)
	}
	location := archivePath + module.ArchiveSeparator + logicalName
	return &module.Module{
		Name: logicalName,
		Origin: module.Origin{
			Location:    location,
			FromArchive: true,
		},
		Symbols: symbols,
	}, location, nil
}

// locatePackageDir finds the first search path containing a directory named
// after the logical module with at least one CUE source in it.
func (r *Registry) locatePackageDir(logicalName string) (string, error) {
	for _, root := range r.searchPaths {
		dir := filepath.Join(root, logicalName)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if hasCueSources(dir) {
			return dir, nil
		}
	}
	return "", &ModuleNotFoundError{LogicalName: logicalName, SearchPaths: r.SearchPaths()}
}

func (r *Registry) artifactPath(logicalName string, mode runtimemode.Mode) (string, bool) {
	if r.artifacts == nil {
		return "", false
	}
	return r.artifacts.Current(logicalName, mode)
}

func hasCueSources(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".cue") {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// collectDirSources gathers the CUE sources of a package directory, relative
// slash paths, manifest excluded.
func collectDirSources(dir string) ([]sourceFile, error) {
	var files []sourceFile
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".cue") || d.Name() == modfile.Name {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, sourceFile{rel: filepath.ToSlash(rel), data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read module directory %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("module directory %s contains no CUE sources", dir)
	}
	return files, nil
}

// buildSymbols turns a module's source set into its symbol table. Sources in
// subdirectories become nested namespace tables keyed by the directory name.
func buildSymbols(files []sourceFile) (map[string]any, error) {
	var rootFiles []sourceFile
	groups := make(map[string][]sourceFile)

	for _, f := range files {
		dir, rest, found := strings.Cut(f.rel, "/")
		if !found {
			rootFiles = append(rootFiles, f)
			continue
		}
		groups[dir] = append(groups[dir], sourceFile{rel: rest, data: f.data})
	}

	symbols, err := decodeUnified(rootFiles)
	if err != nil {
		return nil, err
	}

	subdirs := make([]string, 0, len(groups))
	for dir := range groups {
		subdirs = append(subdirs, dir)
	}
	sort.Strings(subdirs)

	for _, dir := range subdirs {
		if _, exists := symbols[dir]; exists {
			return nil, fmt.Errorf("namespace %q collides with a symbol of the same name", dir)
		}
		nested, err := buildSymbols(groups[dir])
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", dir, err)
		}
		symbols[dir] = nested
	}
	return symbols, nil
}

// decodeUnified compiles and unifies a set of sibling CUE sources and
// decodes the result into a mutable symbol table.
func decodeUnified(files []sourceFile) (map[string]any, error) {
	if len(files) == 0 {
		return map[string]any{}, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })

	ctx := cuecontext.New()
	unified := ctx.CompileString("{}")
	for _, f := range files {
		v := ctx.CompileBytes(f.data, cue.Filename(f.rel))
		if v.Err() != nil {
			return nil, cueutil.FormatError(v.Err(), f.rel)
		}
		unified = unified.Unify(v)
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueutil.FormatError(err, files[0].rel)
	}

	var symbols map[string]any
	if err := unified.Decode(&symbols); err != nil {
		return nil, cueutil.FormatError(err, files[0].rel)
	}
	if symbols == nil {
		symbols = map[string]any{}
	}
	return symbols, nil
}
