package workers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicekit/indextts-server/internal/audio"
	"github.com/voicekit/indextts-server/internal/config"
	"github.com/voicekit/indextts-server/internal/engine"
	"github.com/voicekit/indextts-server/internal/queue"
	"github.com/voicekit/indextts-server/internal/voice"
)

type fakeEngine struct {
	lastReq engine.InferRequest
	fail    bool
}

func (f *fakeEngine) Infer(ctx context.Context, req engine.InferRequest) (*engine.InferResult, error) {
	f.lastReq = req
	if f.fail {
		return nil, assert.AnError
	}
	if err := os.WriteFile(req.OutputPath, []byte("RIFFfake"), 0o644); err != nil {
		return nil, err
	}
	return &engine.InferResult{OutputPath: req.OutputPath}, nil
}

func (f *fakeEngine) Info(ctx context.Context) (*engine.Info, error) {
	return &engine.Info{Loaded: true}, nil
}

func (f *fakeEngine) Name() string { return "fake" }

type fakeStore struct {
	statuses  []string
	audio     []byte
	mediaType string
	failMsg   string
}

func (s *fakeStore) SetProcessing(ctx context.Context, id string) error {
	s.statuses = append(s.statuses, "processing")
	return nil
}

func (s *fakeStore) Complete(ctx context.Context, id string, audio []byte, mediaType string) error {
	s.statuses = append(s.statuses, "completed")
	s.audio = audio
	s.mediaType = mediaType
	return nil
}

func (s *fakeStore) Fail(ctx context.Context, id, msg string) error {
	s.statuses = append(s.statuses, "failed")
	s.failMsg = msg
	return nil
}

func newTask(t *testing.T, payload queue.SynthesizePayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeSynthesize, data)
}

func voiceRegistry(t *testing.T) *voice.Registry {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "examples"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "examples", "voice_01.wav"), []byte("RIFF"), 0o644))
	return voice.NewRegistry(config.VoiceConfig{
		Directories: []string{"examples"},
		LegacyDir:   "index-tts",
	}, root)
}

func TestProcessTaskCompletesJob(t *testing.T) {
	eng := &fakeEngine{}
	store := &fakeStore{}
	w := NewSynthesisWorker(voiceRegistry(t), eng, audio.NewConverter(), store, "alloy")

	err := w.ProcessTask(context.Background(), newTask(t, queue.SynthesizePayload{
		JobID:  "job-1",
		Input:  "hello",
		Voice:  "alloy",
		Format: "wav",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"processing", "completed"}, store.statuses)
	assert.Equal(t, []byte("RIFFfake"), store.audio)
	assert.Equal(t, "audio/wav", store.mediaType)
	assert.Equal(t, "alloy", eng.lastReq.VoiceID)
	assert.Equal(t, "hello", eng.lastReq.Text)
}

func TestProcessTaskFallsBackToDefaultVoice(t *testing.T) {
	eng := &fakeEngine{}
	store := &fakeStore{}
	w := NewSynthesisWorker(voiceRegistry(t), eng, audio.NewConverter(), store, "alloy")

	err := w.ProcessTask(context.Background(), newTask(t, queue.SynthesizePayload{
		JobID:  "job-2",
		Input:  "hello",
		Voice:  "missing-voice",
		Format: "wav",
	}))
	require.NoError(t, err)
	assert.Equal(t, "alloy", eng.lastReq.VoiceID)
}

func TestProcessTaskRecordsFailure(t *testing.T) {
	eng := &fakeEngine{fail: true}
	store := &fakeStore{}
	w := NewSynthesisWorker(voiceRegistry(t), eng, audio.NewConverter(), store, "alloy")

	err := w.ProcessTask(context.Background(), newTask(t, queue.SynthesizePayload{
		JobID: "job-3",
		Input: "hello",
		Voice: "alloy",
	}))
	require.Error(t, err)
	assert.Equal(t, []string{"processing", "failed"}, store.statuses)
	assert.NotEmpty(t, store.failMsg)
}
