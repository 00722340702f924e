package audio_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicekit/indextts-server/internal/audio"
)

func TestMediaTypes(t *testing.T) {
	tests := map[string]string{
		"wav":  "audio/wav",
		"mp3":  "audio/mpeg",
		"opus": "audio/opus",
		"aac":  "audio/aac",
		"flac": "audio/flac",
		"pcm":  "audio/pcm",
		"MP3":  "audio/mpeg",
	}
	for format, want := range tests {
		got, ok := audio.MediaType(format)
		require.True(t, ok, format)
		assert.Equal(t, want, got)
	}

	_, ok := audio.MediaType("ogg")
	assert.False(t, ok)
}

func TestConvertWavPassthrough(t *testing.T) {
	c := audio.NewConverter()
	in := filepath.Join(t.TempDir(), "speech.wav")

	out, mediaType, err := c.Convert(context.Background(), in, "wav", 1.0)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "audio/wav", mediaType)
}

func TestConvertUnsupportedFormat(t *testing.T) {
	c := audio.NewConverter()

	_, _, err := c.Convert(context.Background(), "speech.wav", "ogg", 1.0)
	assert.Error(t, err)
}

func TestConvertMissingFFmpeg(t *testing.T) {
	c := &audio.Converter{FFmpegPath: filepath.Join(t.TempDir(), "no-such-ffmpeg")}

	_, _, err := c.Convert(context.Background(), "speech.wav", "mp3", 1.0)
	assert.Error(t, err)
}
