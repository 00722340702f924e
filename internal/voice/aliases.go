package voice

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// presetVoices is the built-in OpenAI-compatible alias map, used when no
// mappings file is present on disk.
var presetVoices = map[string]string{
	"alloy":    "examples/voice_01.wav",
	"echo":     "examples/voice_02.wav",
	"fable":    "examples/voice_03.wav",
	"onyx":     "examples/voice_04.wav",
	"nova":     "examples/voice_05.wav",
	"shimmer":  "examples/voice_06.wav",
	"voice_07": "examples/voice_07.wav",
	"voice_08": "examples/voice_08.wav",
	"voice_09": "examples/voice_09.wav",
	"voice_10": "examples/voice_10.wav",
	"voice_11": "examples/voice_11.wav",
	"voice_12": "examples/voice_12.wav",
}

// loadAliases reads the JSON mappings file, looking under root first and then
// the working directory. Every key of a successfully parsed file becomes a
// preset identifier. A missing, unreadable, or non-object file is never fatal:
// the returned warning describes the problem and the mapping comes back empty.
func loadAliases(file, root string) (map[string]string, string) {
	if file == "" {
		return nil, ""
	}

	candidates := []string{file}
	if !filepath.IsAbs(file) {
		candidates = []string{filepath.Join(root, file)}
		if cwd, err := os.Getwd(); err == nil {
			candidates = append(candidates, filepath.Join(cwd, file))
		}
	}

	var path string
	for _, c := range candidates {
		if fileExists(c) {
			path = c
			break
		}
	}
	if path == "" {
		return nil, ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Sprintf("read voice mappings %s: %v", path, err)
	}

	aliases := make(map[string]string)
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Sprintf("parse voice mappings %s: %v", path, err)
	}
	return aliases, ""
}
