package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/voicekit/indextts-server/internal/engine"
)

const maxUploadBytes = 64 << 20

// TTSHandler serves the native synthesis endpoints with full control over
// emotion references and generation parameters.
type TTSHandler struct {
	eng engine.Engine
}

// NewTTSHandler wires the handler to the inference engine.
func NewTTSHandler(eng engine.Engine) *TTSHandler {
	return &TTSHandler{eng: eng}
}

// Synthesize handles the multipart endpoint: text plus an uploaded speaker
// reference and an optional emotion reference.
func (h *TTSHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}

	spkFile, spkHeader, err := r.FormFile("spk_audio_prompt")
	if err != nil {
		writeError(w, http.StatusBadRequest, "spk_audio_prompt file is required")
		return
	}
	defer spkFile.Close()
	if ct := spkHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "audio/") {
		writeError(w, http.StatusBadRequest, "spk_audio_prompt must be an audio file")
		return
	}

	tmpDir, err := os.MkdirTemp("", "tts-upload-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create temp dir: "+err.Error())
		return
	}
	defer os.RemoveAll(tmpDir)

	spkPath := filepath.Join(tmpDir, fmt.Sprintf("spk_%s.wav", uuid.NewString()))
	if err := saveUpload(spkFile, spkPath); err != nil {
		writeError(w, http.StatusInternalServerError, "save speaker audio: "+err.Error())
		return
	}

	emoPath := ""
	if emoFile, _, ferr := r.FormFile("emo_audio_prompt"); ferr == nil {
		defer emoFile.Close()
		emoPath = filepath.Join(tmpDir, fmt.Sprintf("emo_%s.wav", uuid.NewString()))
		if err := saveUpload(emoFile, emoPath); err != nil {
			writeError(w, http.StatusInternalServerError, "save emotion audio: "+err.Error())
			return
		}
	}

	outPath := filepath.Join(tmpDir, fmt.Sprintf("tts_%s.wav", uuid.NewString()))
	req := engine.NewInferRequest(text, spkPath, outPath)
	req.EmotionAudio = emoPath

	if err := applyFormParams(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.run(w, r, req)
}

// ttsJSONRequest is the JSON-body variant, referencing server-side file paths
// instead of uploads.
type ttsJSONRequest struct {
	Text                    string    `json:"text"`
	SpkAudioPrompt          string    `json:"spk_audio_prompt"`
	EmoAudioPrompt          string    `json:"emo_audio_prompt"`
	EmoAlpha                float64   `json:"emo_alpha"`
	EmoVector               []float64 `json:"emo_vector"`
	UseEmoText              bool      `json:"use_emo_text"`
	EmoText                 string    `json:"emo_text"`
	UseRandom               bool      `json:"use_random"`
	MaxTextTokensPerSegment int       `json:"max_text_tokens_per_segment"`
	IntervalSilence         int       `json:"interval_silence"`

	DoSample          bool    `json:"do_sample"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	Temperature       float64 `json:"temperature"`
	NumBeams          int     `json:"num_beams"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	LengthPenalty     float64 `json:"length_penalty"`
	MaxMelTokens      int     `json:"max_mel_tokens"`
}

// SynthesizeJSON handles the JSON endpoint. Absent fields keep the documented
// defaults because decoding happens over a pre-filled request.
func (h *TTSHandler) SynthesizeJSON(w http.ResponseWriter, r *http.Request) {
	defaults := engine.NewInferRequest("", "", "")
	body := ttsJSONRequest{
		EmoAlpha:                defaults.EmotionAlpha,
		MaxTextTokensPerSegment: defaults.MaxTextTokensPerSegment,
		IntervalSilence:         defaults.IntervalSilence,
		DoSample:                defaults.Generation.DoSample,
		TopP:                    defaults.Generation.TopP,
		TopK:                    defaults.Generation.TopK,
		Temperature:             defaults.Generation.Temperature,
		NumBeams:                defaults.Generation.NumBeams,
		RepetitionPenalty:       defaults.Generation.RepetitionPenalty,
		LengthPenalty:           defaults.Generation.LengthPenalty,
		MaxMelTokens:            defaults.Generation.MaxMelTokens,
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}
	if body.SpkAudioPrompt == "" || !regularFileExists(body.SpkAudioPrompt) {
		writeError(w, http.StatusBadRequest, "spk_audio_prompt file path does not exist")
		return
	}
	if body.EmoAudioPrompt != "" && !regularFileExists(body.EmoAudioPrompt) {
		writeError(w, http.StatusBadRequest, "emo_audio_prompt file path does not exist")
		return
	}

	tmpDir, err := os.MkdirTemp("", "tts-json-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create temp dir: "+err.Error())
		return
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, fmt.Sprintf("tts_%s.wav", uuid.NewString()))
	req := engine.NewInferRequest(strings.TrimSpace(body.Text), body.SpkAudioPrompt, outPath)
	req.EmotionAudio = body.EmoAudioPrompt
	req.EmotionAlpha = body.EmoAlpha
	req.EmotionVector = body.EmoVector
	req.UseEmotionText = body.UseEmoText
	req.EmotionText = body.EmoText
	req.UseRandom = body.UseRandom
	req.MaxTextTokensPerSegment = body.MaxTextTokensPerSegment
	req.IntervalSilence = body.IntervalSilence
	req.Generation = engine.GenerationParams{
		DoSample:          body.DoSample,
		TopP:              body.TopP,
		TopK:              body.TopK,
		Temperature:       body.Temperature,
		NumBeams:          body.NumBeams,
		RepetitionPenalty: body.RepetitionPenalty,
		LengthPenalty:     body.LengthPenalty,
		MaxMelTokens:      body.MaxMelTokens,
	}

	if err := validateInferRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.run(w, r, req)
}

// run executes the inference and streams back the WAV result.
func (h *TTSHandler) run(w http.ResponseWriter, r *http.Request, req engine.InferRequest) {
	if _, err := h.eng.Infer(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "synthesis failed: "+err.Error())
		return
	}

	data, err := os.ReadFile(req.OutputPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read audio: "+err.Error())
		return
	}
	writeAudio(w, "audio/wav", filepath.Base(req.OutputPath), data)
}

// applyFormParams overlays multipart form fields onto the defaulted request.
func applyFormParams(r *http.Request, req *engine.InferRequest) error {
	var err error
	if req.EmotionAlpha, err = formFloat(r, "emo_alpha", req.EmotionAlpha); err != nil {
		return err
	}
	if v := r.FormValue("emo_vector"); v != "" {
		vec, perr := parseEmotionVector(v)
		if perr != nil {
			return perr
		}
		req.EmotionVector = vec
	}
	req.UseEmotionText = formBool(r, "use_emo_text", req.UseEmotionText)
	req.EmotionText = r.FormValue("emo_text")
	req.UseRandom = formBool(r, "use_random", req.UseRandom)
	if req.MaxTextTokensPerSegment, err = formInt(r, "max_text_tokens_per_segment", req.MaxTextTokensPerSegment); err != nil {
		return err
	}
	if req.IntervalSilence, err = formInt(r, "interval_silence", req.IntervalSilence); err != nil {
		return err
	}

	g := &req.Generation
	g.DoSample = formBool(r, "do_sample", g.DoSample)
	if g.TopP, err = formFloat(r, "top_p", g.TopP); err != nil {
		return err
	}
	if g.TopK, err = formInt(r, "top_k", g.TopK); err != nil {
		return err
	}
	if g.Temperature, err = formFloat(r, "temperature", g.Temperature); err != nil {
		return err
	}
	if g.NumBeams, err = formInt(r, "num_beams", g.NumBeams); err != nil {
		return err
	}
	if g.RepetitionPenalty, err = formFloat(r, "repetition_penalty", g.RepetitionPenalty); err != nil {
		return err
	}
	if g.LengthPenalty, err = formFloat(r, "length_penalty", g.LengthPenalty); err != nil {
		return err
	}
	if g.MaxMelTokens, err = formInt(r, "max_mel_tokens", g.MaxMelTokens); err != nil {
		return err
	}

	return validateInferRequest(req)
}

// validateInferRequest enforces the documented parameter ranges.
func validateInferRequest(req *engine.InferRequest) error {
	if err := validateRange("emo_alpha", req.EmotionAlpha, 0.0, 1.0); err != nil {
		return err
	}
	if req.EmotionVector != nil && len(req.EmotionVector) != 8 {
		return fmt.Errorf("emo_vector must have exactly 8 elements, got %d", len(req.EmotionVector))
	}
	if req.MaxTextTokensPerSegment < 20 {
		return fmt.Errorf("max_text_tokens_per_segment must be at least 20")
	}
	if req.IntervalSilence < 0 {
		return fmt.Errorf("interval_silence must not be negative")
	}

	g := req.Generation
	if err := validateRange("top_p", g.TopP, 0.0, 1.0); err != nil {
		return err
	}
	if g.TopK < 0 {
		return fmt.Errorf("top_k must not be negative")
	}
	if err := validateRange("temperature", g.Temperature, 0.1, 2.0); err != nil {
		return err
	}
	if g.NumBeams < 1 || g.NumBeams > 10 {
		return fmt.Errorf("num_beams must be between 1 and 10")
	}
	if err := validateRange("repetition_penalty", g.RepetitionPenalty, 0.1, 20.0); err != nil {
		return err
	}
	if err := validateRange("length_penalty", g.LengthPenalty, -2.0, 2.0); err != nil {
		return err
	}
	if g.MaxMelTokens < 50 {
		return fmt.Errorf("max_mel_tokens must be at least 50")
	}
	return nil
}

// parseEmotionVector parses a comma-separated 8-element emotion vector.
func parseEmotionVector(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 8 {
		return nil, fmt.Errorf("emo_vector must have exactly 8 elements, got %d", len(parts))
	}
	vec := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid emo_vector element %q", strings.TrimSpace(p))
		}
		vec[i] = f
	}
	return vec, nil
}

func formFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.FormValue(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return f, nil
}

func formInt(r *http.Request, name string, def int) (int, error) {
	v := r.FormValue(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}

// formBool follows the environment convention: "true" (case-insensitive) is
// true, anything else false.
func formBool(r *http.Request, name string, def bool) bool {
	v := r.FormValue(name)
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true")
}

func saveUpload(src multipart.File, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

func regularFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
