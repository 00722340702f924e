// Package audio converts synthesized WAV output into the delivery formats of
// the OpenAI speech API by shelling out to ffmpeg.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var mediaTypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"opus": "audio/opus",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"pcm":  "audio/pcm",
}

// MediaType returns the MIME type for a supported response format.
func MediaType(format string) (string, bool) {
	mt, ok := mediaTypes[strings.ToLower(format)]
	return mt, ok
}

// Converter runs ffmpeg to transcode WAV files and apply speed adjustment.
type Converter struct {
	FFmpegPath string // default: "ffmpeg"
}

// NewConverter creates a Converter with defaults applied.
func NewConverter() *Converter {
	return &Converter{FFmpegPath: "ffmpeg"}
}

// Convert transcodes wavPath into format, applying the speed multiplier when
// it differs from 1.0. It returns the output path and its media type. WAV at
// normal speed passes through untouched. Callers treat conversion failure as
// non-fatal and fall back to the original WAV.
func (c *Converter) Convert(ctx context.Context, wavPath, format string, speed float64) (string, string, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = "wav"
	}
	mediaType, ok := mediaTypes[format]
	if !ok {
		return "", "", fmt.Errorf("unsupported format %q", format)
	}

	if speed <= 0 {
		speed = 1.0
	}
	if format == "wav" && speed == 1.0 {
		return wavPath, mediaType, nil
	}

	outPath := strings.TrimSuffix(wavPath, ".wav") + "." + format
	if outPath == wavPath {
		outPath = wavPath + "." + format
	}

	args := []string{"-y", "-i", wavPath}
	if speed != 1.0 {
		args = append(args, "-filter:a", atempoChain(speed))
	}
	switch format {
	case "mp3":
		args = append(args, "-codec:a", "libmp3lame")
	case "opus":
		args = append(args, "-codec:a", "libopus")
	case "aac":
		args = append(args, "-codec:a", "aac")
	case "pcm":
		args = append(args, "-f", "s16le", "-codec:a", "pcm_s16le")
	}
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, c.ffmpeg(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", "", fmt.Errorf("ffmpeg failed: %w (stderr: %s)", err, stderr.String())
	}
	return outPath, mediaType, nil
}

func (c *Converter) ffmpeg() string {
	if c.FFmpegPath == "" {
		return "ffmpeg"
	}
	return c.FFmpegPath
}

// atempoChain builds an ffmpeg atempo filter for the given speed. A single
// atempo stage only covers 0.5–2.0, so factors outside that range are chained.
func atempoChain(speed float64) string {
	var stages []string
	for speed > 2.0 {
		stages = append(stages, "atempo=2.0")
		speed /= 2.0
	}
	for speed < 0.5 {
		stages = append(stages, "atempo=0.5")
		speed /= 0.5
	}
	stages = append(stages, "atempo="+strconv.FormatFloat(speed, 'f', -1, 64))
	return strings.Join(stages, ",")
}
