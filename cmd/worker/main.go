package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/voicekit/indextts-server/internal/audio"
	"github.com/voicekit/indextts-server/internal/config"
	"github.com/voicekit/indextts-server/internal/engine"
	"github.com/voicekit/indextts-server/internal/jobs"
	"github.com/voicekit/indextts-server/internal/queue"
	"github.com/voicekit/indextts-server/internal/queue/workers"
	"github.com/voicekit/indextts-server/internal/voice"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := projectRoot()
	cfg := config.Load(config.DefaultPath(root)).Config

	var eng engine.Engine
	if strings.ToLower(cfg.Model.Engine) == "openai" {
		eng = engine.NewOpenAIEngine(engine.OpenAIEngineConfig{
			APIKey:  cfg.Model.OpenAIKey,
			BaseURL: cfg.Model.OpenAIBaseURL,
		})
	} else {
		eng = engine.NewHTTPEngine(engine.HTTPEngineConfig{BaseURL: cfg.Model.EngineURL})
	}

	registry := voice.NewRegistry(cfg.Voice, root)
	conv := audio.NewConverter()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Server.RedisAddr,
		Password: cfg.Server.RedisPassword,
		DB:       cfg.Server.RedisDB,
	})
	defer rdb.Close()
	store := jobs.NewStore(rdb)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Server.RedisAddr,
			Password: cfg.Server.RedisPassword,
			DB:       cfg.Server.RedisDB,
		},
		asynq.Config{
			// Synthesis saturates the inference backend, so low concurrency
			// keeps tasks from piling onto it.
			Concurrency: 2,
		},
	)

	mux := asynq.NewServeMux()
	worker := workers.NewSynthesisWorker(registry, eng, conv, store, cfg.Voice.DefaultVoice)
	mux.HandleFunc(queue.TypeSynthesize, worker.ProcessTask)

	slog.Info("starting synthesis worker", "engine", eng.Name(), "redis", cfg.Server.RedisAddr)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

func projectRoot() string {
	if r := os.Getenv("INDEXTTS_ROOT"); r != "" {
		if abs, err := filepath.Abs(r); err == nil {
			return abs
		}
		return r
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
