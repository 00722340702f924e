package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// HTTPEngineConfig holds configuration for the inference sidecar backend.
type HTTPEngineConfig struct {
	BaseURL string        // e.g. "http://localhost:9878"
	Timeout time.Duration // per-request; default 5 minutes
}

// HTTPEngine talks to the IndexTTS2 inference sidecar over local HTTP. The
// sidecar shares a filesystem with this process, so requests carry file paths
// and the response body is the synthesized WAV.
type HTTPEngine struct {
	cfg        HTTPEngineConfig
	httpClient *http.Client
}

// NewHTTPEngine creates an HTTPEngine with defaults applied.
func NewHTTPEngine(cfg HTTPEngineConfig) *HTTPEngine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &HTTPEngine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (e *HTTPEngine) Name() string { return "indextts-http" }

type inferPayload struct {
	Text                    string           `json:"text"`
	SpkAudioPrompt          string           `json:"spk_audio_prompt"`
	EmoAudioPrompt          string           `json:"emo_audio_prompt,omitempty"`
	EmoAlpha                float64          `json:"emo_alpha"`
	EmoVector               []float64        `json:"emo_vector,omitempty"`
	UseEmoText              bool             `json:"use_emo_text"`
	EmoText                 string           `json:"emo_text,omitempty"`
	UseRandom               bool             `json:"use_random"`
	IntervalSilence         int              `json:"interval_silence"`
	MaxTextTokensPerSegment int              `json:"max_text_tokens_per_segment"`
	Generation              GenerationParams `json:"generation"`
}

// Infer posts the synthesis request to the sidecar and writes the returned
// audio to req.OutputPath.
func (e *HTTPEngine) Infer(ctx context.Context, req InferRequest) (*InferResult, error) {
	payload := inferPayload{
		Text:                    req.Text,
		SpkAudioPrompt:          req.SpeakerAudio,
		EmoAudioPrompt:          req.EmotionAudio,
		EmoAlpha:                req.EmotionAlpha,
		EmoVector:               req.EmotionVector,
		UseEmoText:              req.UseEmotionText,
		EmoText:                 req.EmotionText,
		UseRandom:               req.UseRandom,
		IntervalSilence:         req.IntervalSilence,
		MaxTextTokensPerSegment: req.MaxTextTokensPerSegment,
		Generation:              req.Generation,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal infer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/infer", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("infer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("engine returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write output file: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("engine produced no audio for %q", req.OutputPath)
	}

	return &InferResult{OutputPath: req.OutputPath}, nil
}

// Info queries the sidecar for its device and model version.
func (e *HTTPEngine) Info(ctx context.Context) (*Info, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.BaseURL+"/info", nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine returned %d", resp.StatusCode)
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}
	return &info, nil
}
