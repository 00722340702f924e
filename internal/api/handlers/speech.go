package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/voicekit/indextts-server/internal/audio"
	"github.com/voicekit/indextts-server/internal/engine"
	"github.com/voicekit/indextts-server/internal/voice"
)

// SpeechHandler serves the OpenAI-compatible /v1/audio/speech endpoint.
type SpeechHandler struct {
	registry     *voice.Registry
	eng          engine.Engine
	conv         *audio.Converter
	defaultVoice string
}

// NewSpeechHandler wires the handler from its collaborators.
func NewSpeechHandler(registry *voice.Registry, eng engine.Engine, conv *audio.Converter, defaultVoice string) *SpeechHandler {
	return &SpeechHandler{
		registry:     registry,
		eng:          eng,
		conv:         conv,
		defaultVoice: defaultVoice,
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Create synthesizes speech for an OpenAI-style request. Voice resolution
// falls back to the configured default before rejecting the request.
func (h *SpeechHandler) Create(w http.ResponseWriter, r *http.Request) {
	req := speechRequest{
		Voice:          h.defaultVoice,
		ResponseFormat: "mp3",
		Speed:          1.0,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input cannot be empty")
		return
	}
	if _, ok := audio.MediaType(req.ResponseFormat); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported response_format %q", req.ResponseFormat))
		return
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}
	if err := validateRange("speed", req.Speed, 0.25, 4.0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	voiceID := req.Voice
	if voiceID == "" {
		voiceID = h.defaultVoice
	}
	speakerPath, err := h.registry.Resolve(voiceID)
	if errors.Is(err, voice.ErrVoiceNotFound) && voiceID != h.defaultVoice {
		voiceID = h.defaultVoice
		speakerPath, err = h.registry.Resolve(voiceID)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("voice %q not found; use /v1/voices to list available voices", req.Voice))
		return
	}

	tmpDir, err := os.MkdirTemp("", "tts-speech-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create temp dir: "+err.Error())
		return
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, fmt.Sprintf("tts_%s.wav", uuid.NewString()))
	inferReq := engine.NewInferRequest(strings.TrimSpace(req.Input), speakerPath, outPath)
	inferReq.VoiceID = voiceID
	inferReq.EmotionAlpha = 1.0

	if _, err := h.eng.Infer(r.Context(), inferReq); err != nil {
		writeError(w, http.StatusInternalServerError, "synthesis failed: "+err.Error())
		return
	}

	format := strings.ToLower(req.ResponseFormat)
	resultPath, mediaType, err := h.conv.Convert(r.Context(), outPath, format, req.Speed)
	if err != nil {
		slog.Warn("format conversion failed, returning wav", "format", format, "error", err)
		resultPath, mediaType, format = outPath, "audio/wav", "wav"
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read audio: "+err.Error())
		return
	}
	writeAudio(w, mediaType, "speech."+format, data)
}
