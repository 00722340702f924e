// Package voice resolves free-form voice identifiers — explicit aliases,
// filenames discovered on disk, or raw paths — to existing speaker reference
// audio files. Aliases are authoritative over discovery, and all relative
// paths are probed across the project root, the working directory, and a
// legacy fallback directory in that order.
package voice

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/voicekit/indextts-server/internal/config"
)

// ErrVoiceNotFound reports an identifier that matched neither a known mapping
// nor an existing file.
var ErrVoiceNotFound = errors.New("voice not found")

// Info describes one resolvable voice for listing endpoints.
type Info struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FilePath string `json:"file_path"`
	IsPreset bool   `json:"is_preset"`
}

// Registry holds the alias mapping and discovery settings. It is constructed
// once at startup and read-only afterwards; discovery itself re-reads the
// filesystem on every call, so voices added at runtime become visible without
// a restart.
type Registry struct {
	root      string
	legacyDir string
	dirs      []string
	aliases   map[string]string
	presets   map[string]bool
}

// NewRegistry builds a registry rooted at root from the voice configuration.
// When the mappings file loads successfully its keys become the preset set;
// otherwise the built-in OpenAI-compatible presets apply.
func NewRegistry(cfg config.VoiceConfig, root string) *Registry {
	r := &Registry{
		root:      root,
		legacyDir: cfg.LegacyDir,
		dirs:      cfg.Directories,
	}
	r.Reload(cfg.MappingsFile)
	return r
}

// Reload re-reads the alias mappings file, resetting the preset set to match.
func (r *Registry) Reload(mappingsFile string) {
	aliases, warning := loadAliases(mappingsFile, r.root)
	if warning != "" {
		slog.Warn("voice mappings unavailable", "warning", warning)
	}
	if aliases == nil {
		aliases = presetVoices
	}

	r.aliases = aliases
	r.presets = make(map[string]bool, len(aliases))
	for id := range aliases {
		r.presets[id] = true
	}
}

// IsPreset reports whether id came from the alias mapping rather than
// directory discovery.
func (r *Registry) IsPreset(id string) bool {
	return r.presets[id]
}

// Mappings returns the merged identifier mapping: everything discovery found,
// with alias entries taking precedence on overlap.
func (r *Registry) Mappings() map[string]string {
	merged := r.discover()
	for id, path := range r.aliases {
		merged[id] = path
	}
	return merged
}

// Resolve turns an identifier into an absolute path to an existing file.
// Known mappings are tried first; failing that the identifier itself is
// probed as a path. ErrVoiceNotFound is returned when no candidate exists.
func (r *Registry) Resolve(id string) (string, error) {
	roots := r.probeOrder()

	if stored, ok := r.Mappings()[id]; ok {
		if path, found := probeRoots(stored, roots); found {
			return path, nil
		}
	}
	if path, found := probeRoots(id, roots); found {
		return path, nil
	}
	return "", fmt.Errorf("%w: %q", ErrVoiceNotFound, id)
}

// List returns every known voice sorted with presets first.
func (r *Registry) List() []Info {
	merged := r.Mappings()

	out := make([]Info, 0, len(merged))
	for id, path := range merged {
		name := id
		if !r.presets[id] {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		out = append(out, Info{
			ID:       id,
			Name:     name,
			FilePath: path,
			IsPreset: r.presets[id],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPreset != out[j].IsPreset {
			return out[i].IsPreset
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) probeOrder() []string {
	roots := []string{r.root}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	if r.legacyDir != "" {
		roots = append(roots, filepath.Join(r.root, r.legacyDir))
	}
	return roots
}
