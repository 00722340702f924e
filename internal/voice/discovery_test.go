package voice_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicekit/indextts-server/internal/config"
)

func TestDiscoveryFirstDirectoryWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "examples", "x.wav"), "first")
	writeFile(t, filepath.Join(root, "prompts", "x.wav"), "second")

	r := newRegistry(t, root, config.VoiceConfig{Directories: []string{"examples", "prompts"}})

	assert.Equal(t, filepath.Join("examples", "x.wav"), r.Mappings()["x"])
}

func TestDiscoveryExcludesEmotionReferences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "examples", "emo_hate.wav"), "RIFF")
	writeFile(t, filepath.Join(root, "examples", "Emo_Sad.WAV"), "RIFF")
	writeFile(t, filepath.Join(root, "examples", "voice_emo_mix.wav"), "RIFF")
	writeFile(t, filepath.Join(root, "examples", "calm.wav"), "RIFF")

	r := newRegistry(t, root, config.VoiceConfig{Directories: []string{"examples"}})

	m := r.Mappings()
	assert.Contains(t, m, "calm")
	assert.NotContains(t, m, "emo_hate")
	assert.NotContains(t, m, "Emo_Sad")
	assert.NotContains(t, m, "voice_emo_mix")
}

func TestDiscoveryExtensionAllowList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "examples", "a.wav"), "RIFF")
	writeFile(t, filepath.Join(root, "examples", "b.MP3"), "ID3")
	writeFile(t, filepath.Join(root, "examples", "c.opus"), "Ogg")
	writeFile(t, filepath.Join(root, "examples", "readme.txt"), "nope")
	writeFile(t, filepath.Join(root, "examples", "model.onnx"), "nope")

	r := newRegistry(t, root, config.VoiceConfig{Directories: []string{"examples"}})

	m := r.Mappings()
	assert.Contains(t, m, "a")
	assert.Contains(t, m, "b")
	assert.Contains(t, m, "c")
	assert.NotContains(t, m, "readme")
	assert.NotContains(t, m, "model")
}

func TestDiscoveryIsNonRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "examples", "nested", "deep.wav"), "RIFF")
	writeFile(t, filepath.Join(root, "examples", "top.wav"), "RIFF")

	r := newRegistry(t, root, config.VoiceConfig{Directories: []string{"examples"}})

	m := r.Mappings()
	assert.Contains(t, m, "top")
	assert.NotContains(t, m, "deep")
}

func TestDiscoverySkipsMissingDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "prompts", "solo.flac"), "fLaC")

	r := newRegistry(t, root, config.VoiceConfig{Directories: []string{"does-not-exist", "prompts"}})

	assert.Contains(t, r.Mappings(), "solo")
}

func TestDiscoveryLegacyDirectoryFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index-tts", "examples", "legacy.wav"), "RIFF")

	r := newRegistry(t, root, config.VoiceConfig{Directories: []string{"examples"}})

	assert.Contains(t, r.Mappings(), "legacy")
}

func TestDiscoveryAbsoluteDirectory(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "external.ogg"), "Ogg")

	r := newRegistry(t, root, config.VoiceConfig{Directories: []string{other}})

	// Paths outside the root stay absolute.
	assert.Equal(t, filepath.Join(other, "external.ogg"), r.Mappings()["external"])
}
