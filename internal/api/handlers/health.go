package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voicekit/indextts-server/internal/config"
	"github.com/voicekit/indextts-server/internal/engine"
)

// HealthHandler serves service info, health, and model info endpoints.
type HealthHandler struct {
	eng   engine.Engine
	model config.ModelConfig
	redis *redis.Client
}

// NewHealthHandler wires the handler from its collaborators. redis may be nil
// when async synthesis is disabled.
func NewHealthHandler(eng engine.Engine, model config.ModelConfig, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{eng: eng, model: model, redis: rdb}
}

// Root serves the API index.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "IndexTTS Gateway",
		"description": "REST API for IndexTTS2 text-to-speech",
		"endpoints": map[string]string{
			"health":     "/health",
			"model_info": "/model/info",
			"tts":        "/api/v1/tts",
			"speech":     "/v1/audio/speech",
			"voices":     "/v1/voices",
		},
	})
}

type healthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	Device       string `json:"device,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
	Checks       map[string]string `json:"checks,omitempty"`
}

// Health reports whether the inference engine is reachable and loaded.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "unhealthy", Checks: map[string]string{}}

	info, err := h.eng.Info(ctx)
	if err != nil {
		resp.Checks["engine"] = "unhealthy: " + err.Error()
	} else {
		resp.Checks["engine"] = "ok"
		resp.ModelLoaded = info.Loaded
		resp.Device = info.Device
		resp.ModelVersion = info.ModelVersion
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			resp.Checks["redis"] = "unhealthy: " + err.Error()
		} else {
			resp.Checks["redis"] = "ok"
		}
	}

	status := http.StatusServiceUnavailable
	if resp.ModelLoaded {
		resp.Status = "healthy"
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

type modelInfoResponse struct {
	ModelVersion    string `json:"model_version"`
	Device          string `json:"device"`
	Engine          string `json:"engine"`
	UseFP16         bool   `json:"use_fp16"`
	UseCUDAKernel   bool   `json:"use_cuda_kernel"`
	UseDeepSpeed    bool   `json:"use_deepspeed"`
	UseAccel        bool   `json:"use_accel"`
	UseTorchCompile bool   `json:"use_torch_compile"`
}

// ModelInfo reports engine details and the configured runtime flags.
func (h *HealthHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	info, err := h.eng.Info(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "model not loaded: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, modelInfoResponse{
		ModelVersion:    info.ModelVersion,
		Device:          info.Device,
		Engine:          h.eng.Name(),
		UseFP16:         h.model.UseFP16,
		UseCUDAKernel:   h.model.UseCUDAKernel,
		UseDeepSpeed:    h.model.UseDeepSpeed,
		UseAccel:        h.model.UseAccel,
		UseTorchCompile: h.model.UseTorchCompile,
	})
}
