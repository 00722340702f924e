// Package engine abstracts the IndexTTS2 inference backend behind a single
// Infer contract. The default backend is an HTTP sidecar running the neural
// pipeline; an OpenAI-compatible backend is available as a fallback.
package engine

import "context"

// GenerationParams are the sampling knobs forwarded to the model.
type GenerationParams struct {
	DoSample          bool    `json:"do_sample"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	Temperature       float64 `json:"temperature"`
	NumBeams          int     `json:"num_beams"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	LengthPenalty     float64 `json:"length_penalty"`
	MaxMelTokens      int     `json:"max_mel_tokens"`
}

// DefaultGenerationParams returns the model's recommended sampling settings.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		DoSample:          true,
		TopP:              0.8,
		TopK:              30,
		Temperature:       0.8,
		NumBeams:          3,
		RepetitionPenalty: 10.0,
		LengthPenalty:     0.0,
		MaxMelTokens:      1500,
	}
}

// InferRequest holds one synthesis job. SpeakerAudio and OutputPath are local
// filesystem paths shared with the backend.
type InferRequest struct {
	Text         string
	SpeakerAudio string
	OutputPath   string

	// VoiceID is the identifier SpeakerAudio was resolved from, when known.
	// Backends without voice cloning use it to pick a named voice.
	VoiceID string

	EmotionAudio   string
	EmotionAlpha   float64
	EmotionVector  []float64
	UseEmotionText bool
	EmotionText    string
	UseRandom      bool

	IntervalSilence         int
	MaxTextTokensPerSegment int
	Generation              GenerationParams
}

// NewInferRequest returns a request with the documented defaults applied.
func NewInferRequest(text, speakerAudio, outputPath string) InferRequest {
	return InferRequest{
		Text:                    text,
		SpeakerAudio:            speakerAudio,
		OutputPath:              outputPath,
		EmotionAlpha:            0.65,
		IntervalSilence:         200,
		MaxTextTokensPerSegment: 120,
		Generation:              DefaultGenerationParams(),
	}
}

// InferResult reports a completed synthesis.
type InferResult struct {
	OutputPath string
	SampleRate int
}

// Info describes the loaded model behind the backend.
type Info struct {
	Device       string `json:"device"`
	ModelVersion string `json:"model_version"`
	Loaded       bool   `json:"loaded"`
}

// Engine is the inference backend contract. Infer writes a WAV file to
// req.OutputPath on success; an absent or empty output file is a failure even
// when the backend reported none.
type Engine interface {
	Infer(ctx context.Context, req InferRequest) (*InferResult, error)
	Info(ctx context.Context) (*Info, error)
	Name() string
}
