package voice

import (
	"os"
	"path/filepath"
)

// probeRoots resolves path against an ordered list of root directories and
// returns the first candidate that exists as an absolute path. An absolute
// input is only checked as-is. The same probe serves alias paths, discovered
// paths, and raw identifiers.
func probeRoots(path string, roots []string) (string, bool) {
	if filepath.IsAbs(path) {
		if fileExists(path) {
			return path, true
		}
		return "", false
	}
	for _, root := range roots {
		if root == "" {
			continue
		}
		candidate := filepath.Join(root, path)
		if fileExists(candidate) {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				continue
			}
			return abs, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
