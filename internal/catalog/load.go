package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Options control which stars Load keeps.
type Options struct {
	// Galaxy filters rows. For stellab files, which carry no galaxy column,
	// it is assigned to every star instead.
	Galaxy string
	// Require drops Reichert rows without a log-eps for this element.
	Require string
}

// Load reads a catalog, choosing the parser by extension: .csv for the
// catalog CSV, .dat for the Reichert fixed-width table, anything else as a
// stellab table. It never returns an empty catalog without an error.
func Load(path string, opts Options) ([]Star, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingCatalogFile, path)
		}
		return nil, err
	}
	defer f.Close()

	var stars []Star
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		stars, err = ReadCSV(f)
		stars = Filter(stars, opts.Galaxy)
	case ".dat":
		stars, err = ParseReichert(f, opts.Galaxy, opts.Require)
	default:
		stars, err = ParseStellab(f, opts.Galaxy)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if len(stars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCatalog, path)
	}
	return stars, nil
}

// Convert reads a Reichert table and writes the Fornax catalog CSV. It returns
// the number of stars written.
func Convert(src, dst string, opts Options) (int, error) {
	stars, err := Load(src, opts)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	if err := WriteCSV(out, stars); err != nil {
		return 0, err
	}
	return len(stars), out.Close()
}
