package handlers

import "net/http"

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
	Root    string `json:"root"`
}

// Models serves the OpenAI-compatible model listing. The ids exist for SDK
// compatibility only; synthesis always runs the configured engine.
func Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []modelEntry{
			{ID: "tts-1", Object: "model", Created: 1677610602, OwnedBy: "indextts", Root: "tts-1"},
			{ID: "tts-1-hd", Object: "model", Created: 1677610602, OwnedBy: "indextts", Root: "tts-1-hd"},
		},
	})
}
