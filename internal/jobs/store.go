// Package jobs tracks asynchronous synthesis jobs in Redis: their status and,
// once completed, the generated audio.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrJobNotFound reports an unknown or expired job id.
var ErrJobNotFound = errors.New("job not found")

// Status is the lifecycle state of a synthesis job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is the persisted job record.
type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Voice     string    `json:"voice,omitempty"`
	Format    string    `json:"format,omitempty"`
	MediaType string    `json:"media_type,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists jobs and their audio with a TTL so abandoned results expire
// on their own.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a Store retaining jobs for one hour.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: time.Hour}
}

func jobKey(id string) string   { return "tts:job:" + id }
func audioKey(id string) string { return "tts:job:" + id + ":audio" }

// Create persists a new pending job.
func (s *Store) Create(ctx context.Context, job *Job) error {
	now := time.Now().UTC()
	job.Status = StatusPending
	job.CreatedAt = now
	job.UpdatedAt = now
	return s.put(ctx, job)
}

// SetProcessing marks the job as picked up by a worker.
func (s *Store) SetProcessing(ctx context.Context, id string) error {
	return s.update(ctx, id, func(job *Job) {
		job.Status = StatusProcessing
		job.Error = ""
	})
}

// Complete stores the generated audio and marks the job completed.
func (s *Store) Complete(ctx context.Context, id string, audio []byte, mediaType string) error {
	if err := s.rdb.Set(ctx, audioKey(id), audio, s.ttl).Err(); err != nil {
		return fmt.Errorf("store audio for %s: %w", id, err)
	}
	return s.update(ctx, id, func(job *Job) {
		job.Status = StatusCompleted
		job.MediaType = mediaType
	})
}

// Fail records a terminal failure.
func (s *Store) Fail(ctx context.Context, id, msg string) error {
	return s.update(ctx, id, func(job *Job) {
		job.Status = StatusFailed
		job.Error = msg
	})
}

// Get returns the job record for id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	val, err := s.rdb.Get(ctx, jobKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Audio returns the completed job's audio and media type.
func (s *Store) Audio(ctx context.Context, id string) ([]byte, string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if job.Status != StatusCompleted {
		return nil, "", fmt.Errorf("job %s is %s, not completed", id, job.Status)
	}

	data, err := s.rdb.Get(ctx, audioKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, "", fmt.Errorf("%w: audio for %q expired", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get audio %s: %w", id, err)
	}
	return data, job.MediaType, nil
}

func (s *Store) put(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.rdb.Set(ctx, jobKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, id string, mutate func(*Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	mutate(job)
	job.UpdatedAt = time.Now().UTC()
	return s.put(ctx, job)
}
