// Package workers implements the asynq task handlers run by cmd/worker.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/voicekit/indextts-server/internal/audio"
	"github.com/voicekit/indextts-server/internal/engine"
	"github.com/voicekit/indextts-server/internal/queue"
	"github.com/voicekit/indextts-server/internal/voice"
)

// jobStore is the slice of jobs.Store the worker needs.
type jobStore interface {
	SetProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, audio []byte, mediaType string) error
	Fail(ctx context.Context, id, msg string) error
}

// SynthesisWorker processes queued synthesis jobs end to end: voice
// resolution, inference, format conversion, result storage.
type SynthesisWorker struct {
	registry     *voice.Registry
	eng          engine.Engine
	conv         *audio.Converter
	store        jobStore
	defaultVoice string
}

// NewSynthesisWorker wires a worker from its collaborators.
func NewSynthesisWorker(registry *voice.Registry, eng engine.Engine, conv *audio.Converter, store jobStore, defaultVoice string) *SynthesisWorker {
	return &SynthesisWorker{
		registry:     registry,
		eng:          eng,
		conv:         conv,
		store:        store,
		defaultVoice: defaultVoice,
	}
}

// ProcessTask handles one queue.TypeSynthesize task.
func (w *SynthesisWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.SynthesizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("processing synthesis job", "job_id", payload.JobID, "voice", payload.Voice)
	if err := w.store.SetProcessing(ctx, payload.JobID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	data, mediaType, err := w.synthesize(ctx, payload)
	if err != nil {
		if ferr := w.store.Fail(ctx, payload.JobID, err.Error()); ferr != nil {
			slog.Error("record job failure", "job_id", payload.JobID, "error", ferr)
		}
		return fmt.Errorf("job %s: %w", payload.JobID, err)
	}

	if err := w.store.Complete(ctx, payload.JobID, data, mediaType); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	slog.Info("synthesis job completed", "job_id", payload.JobID, "bytes", len(data))
	return nil
}

func (w *SynthesisWorker) synthesize(ctx context.Context, payload queue.SynthesizePayload) ([]byte, string, error) {
	voiceID := payload.Voice
	speakerPath, err := w.registry.Resolve(voiceID)
	if errors.Is(err, voice.ErrVoiceNotFound) && voiceID != w.defaultVoice {
		voiceID = w.defaultVoice
		speakerPath, err = w.registry.Resolve(voiceID)
	}
	if err != nil {
		return nil, "", err
	}

	tmpDir, err := os.MkdirTemp("", "tts-job-")
	if err != nil {
		return nil, "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outPath := filepath.Join(tmpDir, fmt.Sprintf("tts_%s.wav", uuid.NewString()))
	req := engine.NewInferRequest(payload.Input, speakerPath, outPath)
	req.VoiceID = voiceID
	req.EmotionAlpha = 1.0

	if _, err := w.eng.Infer(ctx, req); err != nil {
		return nil, "", fmt.Errorf("inference: %w", err)
	}

	resultPath, mediaType, err := w.conv.Convert(ctx, outPath, payload.Format, payload.Speed)
	if err != nil {
		// Conversion is best-effort; deliver the WAV instead.
		slog.Warn("format conversion failed, returning wav", "job_id", payload.JobID, "error", err)
		resultPath, mediaType = outPath, "audio/wav"
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, "", fmt.Errorf("read result: %w", err)
	}
	return data, mediaType, nil
}
