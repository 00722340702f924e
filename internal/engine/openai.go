package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngineConfig holds configuration for the OpenAI-compatible fallback
// backend.
type OpenAIEngineConfig struct {
	APIKey  string
	BaseURL string // optional; any /v1/audio/speech-compatible server
	Model   string // default: "tts-1"
}

// OpenAIEngine synthesizes speech through an OpenAI-compatible speech API.
// It has no voice cloning: the speaker reference audio is ignored and the
// request's VoiceID picks one of the named voices instead.
type OpenAIEngine struct {
	cfg    OpenAIEngineConfig
	client *openai.Client
}

// NewOpenAIEngine creates an OpenAIEngine with defaults applied.
func NewOpenAIEngine(cfg OpenAIEngineConfig) *OpenAIEngine {
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIEngine{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (e *OpenAIEngine) Name() string { return "openai-speech" }

var openaiVoices = map[string]openai.SpeechVoice{
	"alloy":   openai.VoiceAlloy,
	"echo":    openai.VoiceEcho,
	"fable":   openai.VoiceFable,
	"onyx":    openai.VoiceOnyx,
	"nova":    openai.VoiceNova,
	"shimmer": openai.VoiceShimmer,
}

// Infer requests WAV audio from the speech API and writes it to
// req.OutputPath. Unknown voice identifiers fall back to alloy.
func (e *OpenAIEngine) Infer(ctx context.Context, req InferRequest) (*InferResult, error) {
	voice, ok := openaiVoices[req.VoiceID]
	if !ok {
		voice = openai.VoiceAlloy
	}

	resp, err := e.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(e.cfg.Model),
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Close()

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	n, err := io.Copy(out, resp)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write output file: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("speech API produced no audio for %q", req.OutputPath)
	}

	return &InferResult{OutputPath: req.OutputPath}, nil
}

// Info reports static details; there is no local model to inspect.
func (e *OpenAIEngine) Info(ctx context.Context) (*Info, error) {
	return &Info{Device: "api", ModelVersion: e.cfg.Model, Loaded: true}, nil
}
