// Package ingest enumerates candidate note images for the
// recognition stage.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/melodyhei/handwriten2md/constants"
)

// ListImages lists dir non-recursively and returns the names of
// recognizable image files, sorted lexicographically so candidate
// order is reproducible across runs. Hidden files are skipped. A
// missing directory is fatal for the run.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || IsHidden(e.Name()) {
			continue
		}
		if constants.IsImageExt(filepath.Ext(e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
