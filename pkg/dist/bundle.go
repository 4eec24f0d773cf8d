// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"archive/zip"
	"fmt"
	"os"
)

// Bundle packs the module's sources into a .modpack zip archive at outPath.
// Entries keep their module-root-relative paths so the archive loader can
// reconstruct the namespace layout, and the module manifest rides along for
// inspection.
func Bundle(moduleDir, outPath string) error {
	sources, err := collectSources(moduleDir, true)
	if err != nil {
		return err
	}

	zipFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer zipFile.Close()

	zw := zip.NewWriter(zipFile)
	for _, src := range sources {
		header := &zip.FileHeader{
			Name:   src.rel,
			Method: zip.Deflate,
		}
		header.SetMode(0o644)
		w, err := zw.CreateHeader(header)
		if err != nil {
			zw.Close()
			os.Remove(outPath)
			return fmt.Errorf("failed to create archive entry %s: %w", src.rel, err)
		}
		if _, err := w.Write(src.data); err != nil {
			zw.Close()
			os.Remove(outPath)
			return fmt.Errorf("failed to write archive entry %s: %w", src.rel, err)
		}
	}
	if err := zw.Close(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}
