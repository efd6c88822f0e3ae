package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

// Package zips every file under dir into zipPath, skipping raw read files
// by extension so multi-gigabyte sequencing inputs never end up in the
// artifact. Archive names are relative to dir with forward slashes. Returns
// the number of files packaged.
func Package(dir, zipPath string) (int, error) {
	f, err := os.Create(zipPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	count := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || isRawRead(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			return err
		}
		count++
		return nil
	})

	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := f.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if walkErr != nil {
		return count, fmt.Errorf("failed to package results: %w", walkErr)
	}
	return count, nil
}

// isRawRead reports whether a file name carries one of the sequencing read
// extensions excluded from packaging.
func isRawRead(name string) bool {
	for _, ext := range readExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
