package voice

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// audioExtensions is the allow-list of speaker reference formats.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
}

// discover scans the configured directories for audio files and maps each
// basename-without-extension to its path. The first directory to claim an
// identifier wins; later directories never overwrite it. Files whose name
// contains "emo_" are emotion references, not speaker voices, and are skipped.
// Paths are stored relative to root when possible so they stay portable.
func (r *Registry) discover() map[string]string {
	found := make(map[string]string)

	for _, dir := range r.dirs {
		full, ok := r.resolveDir(dir)
		if !ok {
			continue
		}

		entries, err := os.ReadDir(full)
		if err != nil {
			slog.Warn("voice directory scan failed", "dir", full, "error", err)
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			lower := strings.ToLower(name)
			if !audioExtensions[filepath.Ext(lower)] {
				continue
			}
			if strings.Contains(lower, "emo_") {
				continue
			}

			id := strings.TrimSuffix(name, filepath.Ext(name))
			if _, taken := found[id]; taken {
				continue
			}
			found[id] = r.storablePath(filepath.Join(full, name))
		}
	}

	return found
}

// resolveDir turns a configured directory name into an existing absolute path,
// trying it as given, under the project root, and under the legacy directory.
func (r *Registry) resolveDir(dir string) (string, bool) {
	if filepath.IsAbs(dir) {
		if dirExists(dir) {
			return dir, true
		}
		return "", false
	}
	if full := filepath.Join(r.root, dir); dirExists(full) {
		return full, true
	}
	if r.legacyDir != "" {
		if full := filepath.Join(r.root, r.legacyDir, dir); dirExists(full) {
			return full, true
		}
	}
	return "", false
}

func (r *Registry) storablePath(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
