package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voicekit/indextts-server/internal/audio"
	"github.com/voicekit/indextts-server/internal/jobs"
	"github.com/voicekit/indextts-server/internal/queue"
)

// JobsHandler serves async synthesis: submit a job, poll it, fetch the audio.
// Both collaborators are nil when Redis is unavailable, in which case every
// endpoint answers 503 while the synchronous API keeps working.
type JobsHandler struct {
	queue *queue.Client
	store *jobs.Store
}

// NewJobsHandler wires the handler; pass nils to disable async synthesis.
func NewJobsHandler(qc *queue.Client, store *jobs.Store) *JobsHandler {
	return &JobsHandler{queue: qc, store: store}
}

func (h *JobsHandler) available(w http.ResponseWriter) bool {
	if h.queue == nil || h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "async synthesis unavailable: redis not configured")
		return false
	}
	return true
}

type createJobRequest struct {
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Create enqueues a synthesis job and returns its id.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	req := createJobRequest{ResponseFormat: "wav", Speed: 1.0}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input cannot be empty")
		return
	}
	if _, ok := audio.MediaType(req.ResponseFormat); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported response_format %q", req.ResponseFormat))
		return
	}

	job := &jobs.Job{
		ID:     uuid.NewString(),
		Voice:  req.Voice,
		Format: strings.ToLower(req.ResponseFormat),
	}
	if err := h.store.Create(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "create job: "+err.Error())
		return
	}

	err := h.queue.EnqueueSynthesize(queue.SynthesizePayload{
		JobID:  job.ID,
		Input:  strings.TrimSpace(req.Input),
		Voice:  req.Voice,
		Format: job.Format,
		Speed:  req.Speed,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue job: "+err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// Get returns the job record.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	job, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, jobs.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Audio streams the completed job's audio.
func (h *JobsHandler) Audio(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	id := chi.URLParam(r, "id")
	data, mediaType, err := h.store.Audio(r.Context(), id)
	if errors.Is(err, jobs.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	ext := "wav"
	if job, jerr := h.store.Get(r.Context(), id); jerr == nil && job.Format != "" {
		ext = job.Format
	}
	writeAudio(w, mediaType, "speech."+ext, data)
}
