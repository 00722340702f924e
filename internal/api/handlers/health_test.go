package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicekit/indextts-server/internal/config"
	"github.com/voicekit/indextts-server/internal/engine"
)

func TestHealthLoaded(t *testing.T) {
	eng := &fakeEngine{info: engine.Info{Device: "cuda", ModelVersion: "2.0", Loaded: true}}
	h := NewHealthHandler(eng, config.ModelConfig{}, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["model_loaded"])
	assert.Equal(t, "cuda", resp["device"])
}

func TestHealthEngineDown(t *testing.T) {
	eng := &fakeEngine{infoErr: errors.New("connection refused")}
	h := NewHealthHandler(eng, config.ModelConfig{}, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestHealthNotLoaded(t *testing.T) {
	eng := &fakeEngine{info: engine.Info{Loaded: false}}
	h := NewHealthHandler(eng, config.ModelConfig{}, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestModelInfo(t *testing.T) {
	eng := &fakeEngine{info: engine.Info{Device: "cuda", ModelVersion: "2.0", Loaded: true}}
	h := NewHealthHandler(eng, config.ModelConfig{UseFP16: true, UseCUDAKernel: true}, nil)

	rec := httptest.NewRecorder()
	h.ModelInfo(rec, httptest.NewRequest(http.MethodGet, "/model/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp modelInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.ModelVersion)
	assert.Equal(t, "fake", resp.Engine)
	assert.True(t, resp.UseFP16)
	assert.True(t, resp.UseCUDAKernel)
	assert.False(t, resp.UseDeepSpeed)
}

func TestModelInfoEngineDown(t *testing.T) {
	eng := &fakeEngine{infoErr: errors.New("connection refused")}
	h := NewHealthHandler(eng, config.ModelConfig{}, nil)

	rec := httptest.NewRecorder()
	h.ModelInfo(rec, httptest.NewRequest(http.MethodGet, "/model/info", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRootIndex(t *testing.T) {
	h := NewHealthHandler(&fakeEngine{}, config.ModelConfig{}, nil)

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/v1/audio/speech")
}
