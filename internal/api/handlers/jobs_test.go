package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobsUnavailableWithoutRedis(t *testing.T) {
	h := NewJobsHandler(nil, nil)

	endpoints := []struct {
		name string
		call func(w http.ResponseWriter, r *http.Request)
		req  *http.Request
	}{
		{"create", h.Create, httptest.NewRequest(http.MethodPost, "/api/v1/tts/jobs", strings.NewReader(`{"input":"hi"}`))},
		{"get", h.Get, httptest.NewRequest(http.MethodGet, "/api/v1/tts/jobs/abc", nil)},
		{"audio", h.Audio, httptest.NewRequest(http.MethodGet, "/api/v1/tts/jobs/abc/audio", nil)},
	}
	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ep.call(rec, ep.req)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Contains(t, rec.Body.String(), "redis not configured")
		})
	}
}

func TestModelsList(t *testing.T) {
	rec := httptest.NewRecorder()
	Models(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tts-1"`)
	assert.Contains(t, rec.Body.String(), `"tts-1-hd"`)
}
