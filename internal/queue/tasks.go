// Package queue enqueues asynchronous synthesis work onto a Redis-backed
// asynq queue consumed by cmd/worker.
package queue

// TypeSynthesize is the asynq task type for one synthesis job.
const TypeSynthesize = "tts:synthesize"

// SynthesizePayload carries a queued synthesis request. It mirrors the
// OpenAI-compatible speech request plus the job id assigned at enqueue time.
type SynthesizePayload struct {
	JobID  string  `json:"job_id"`
	Input  string  `json:"input"`
	Voice  string  `json:"voice"`
	Format string  `json:"format"`
	Speed  float64 `json:"speed,omitempty"`
}
