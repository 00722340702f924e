// Package api assembles the HTTP router of the TTS gateway.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/voicekit/indextts-server/internal/api/handlers"
	"github.com/voicekit/indextts-server/internal/api/middleware"
	"github.com/voicekit/indextts-server/internal/audio"
	"github.com/voicekit/indextts-server/internal/config"
	"github.com/voicekit/indextts-server/internal/engine"
	"github.com/voicekit/indextts-server/internal/jobs"
	"github.com/voicekit/indextts-server/internal/queue"
	"github.com/voicekit/indextts-server/internal/voice"
)

// Router holds the wired collaborators of the HTTP layer.
type Router struct {
	cfg      *config.Config
	registry *voice.Registry
	eng      engine.Engine
	conv     *audio.Converter
	redis    *redis.Client
	queue    *queue.Client
	jobs     *jobs.Store
}

// NewRouter wires the router. redis, queue, and jobs may be nil when async
// synthesis is disabled.
func NewRouter(cfg *config.Config, registry *voice.Registry, eng engine.Engine, conv *audio.Converter, rdb *redis.Client, qc *queue.Client, store *jobs.Store) *Router {
	return &Router{
		cfg:      cfg,
		registry: registry,
		eng:      eng,
		conv:     conv,
		redis:    rdb,
		queue:    qc,
		jobs:     store,
	}
}

// Setup builds the handler chain and route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	rl := middleware.NewRateLimiter(rt.cfg.Server.RateLimitRPS, rt.cfg.Server.RateLimitBurst)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.eng, rt.cfg.Model, rt.redis)
	r.Get("/", health.Root)
	r.Get("/health", health.Health)
	r.Get("/model/info", health.ModelInfo)

	auth := middleware.NewAuth(rt.cfg.Server.APIKeys, rt.cfg.Server.JWTSecret)
	voicesH := handlers.NewVoicesHandler(rt.registry)
	speechH := handlers.NewSpeechHandler(rt.registry, rt.eng, rt.conv, rt.cfg.Voice.DefaultVoice)
	ttsH := handlers.NewTTSHandler(rt.eng)
	jobsH := handlers.NewJobsHandler(rt.queue, rt.jobs)

	// OpenAI-compatible surface.
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/audio/speech", speechH.Create)
		r.Get("/audio/voices", voicesH.List)
		r.Get("/voices", voicesH.List)
		r.Get("/models", handlers.Models)
	})

	// Native surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/tts", ttsH.Synthesize)
		r.Post("/tts/json", ttsH.SynthesizeJSON)
		r.Get("/voices", voicesH.List)

		r.Route("/tts/jobs", func(r chi.Router) {
			r.Post("/", jobsH.Create)
			r.Get("/{id}", jobsH.Get)
			r.Get("/{id}/audio", jobsH.Audio)
		})
	})

	return r
}
