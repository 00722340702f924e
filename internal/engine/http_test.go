package engine_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicekit/indextts-server/internal/engine"
)

func TestHTTPEngineInferWritesOutput(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/infer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFFfakewav"))
	}))
	defer srv.Close()

	e := engine.NewHTTPEngine(engine.HTTPEngineConfig{BaseURL: srv.URL})

	out := filepath.Join(t.TempDir(), "out.wav")
	req := engine.NewInferRequest("hello world", "/voices/alloy.wav", out)
	res, err := e.Infer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, out, res.OutputPath)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFfakewav"), data)

	// Request carries the wire field names and defaults.
	assert.Equal(t, "hello world", captured["text"])
	assert.Equal(t, "/voices/alloy.wav", captured["spk_audio_prompt"])
	assert.InDelta(t, 0.65, captured["emo_alpha"], 1e-9)
	assert.EqualValues(t, 200, captured["interval_silence"])
	assert.EqualValues(t, 120, captured["max_text_tokens_per_segment"])

	gen, ok := captured["generation"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.8, gen["top_p"], 1e-9)
	assert.EqualValues(t, 30, gen["top_k"])
	assert.EqualValues(t, 3, gen["num_beams"])
	assert.EqualValues(t, 1500, gen["max_mel_tokens"])
}

func TestHTTPEngineInferErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := engine.NewHTTPEngine(engine.HTTPEngineConfig{BaseURL: srv.URL})

	out := filepath.Join(t.TempDir(), "out.wav")
	_, err := e.Infer(context.Background(), engine.NewInferRequest("hi", "spk.wav", out))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
	assert.NoFileExists(t, out)
}

func TestHTTPEngineInferEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := engine.NewHTTPEngine(engine.HTTPEngineConfig{BaseURL: srv.URL})

	out := filepath.Join(t.TempDir(), "out.wav")
	_, err := e.Infer(context.Background(), engine.NewInferRequest("hi", "spk.wav", out))
	assert.Error(t, err)
}

func TestHTTPEngineInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/info", r.URL.Path)
		json.NewEncoder(w).Encode(engine.Info{Device: "cuda:0", ModelVersion: "2.0", Loaded: true})
	}))
	defer srv.Close()

	e := engine.NewHTTPEngine(engine.HTTPEngineConfig{BaseURL: srv.URL})

	info, err := e.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cuda:0", info.Device)
	assert.Equal(t, "2.0", info.ModelVersion)
	assert.True(t, info.Loaded)
}

func TestHTTPEngineInfoUnreachable(t *testing.T) {
	e := engine.NewHTTPEngine(engine.HTTPEngineConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := e.Info(context.Background())
	assert.Error(t, err)
}
