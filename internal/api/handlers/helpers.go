// Package handlers implements the HTTP endpoints of the TTS gateway: the
// native synthesis API, the OpenAI-compatible speech API, voice listings,
// async jobs, and health.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeAudio(w http.ResponseWriter, mediaType, filename string, data []byte) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func validateRange(name string, v, min, max float64) error {
	if v < min || v > max {
		return fmt.Errorf("%s must be between %g and %g", name, min, max)
	}
	return nil
}
