package handlers

import (
	"net/http"

	"github.com/voicekit/indextts-server/internal/voice"
)

// VoicesHandler lists the resolvable voices.
type VoicesHandler struct {
	registry *voice.Registry
}

// NewVoicesHandler wires the handler to the voice registry.
func NewVoicesHandler(registry *voice.Registry) *VoicesHandler {
	return &VoicesHandler{registry: registry}
}

type voicesResponse struct {
	Object string       `json:"object"`
	Data   []voice.Info `json:"data"`
}

// List returns every preset and discovered voice.
func (h *VoicesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voicesResponse{
		Object: "list",
		Data:   h.registry.List(),
	})
}
