package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/voicekit/indextts-server/internal/api"
	"github.com/voicekit/indextts-server/internal/audio"
	"github.com/voicekit/indextts-server/internal/checkpoint"
	"github.com/voicekit/indextts-server/internal/config"
	"github.com/voicekit/indextts-server/internal/engine"
	"github.com/voicekit/indextts-server/internal/jobs"
	"github.com/voicekit/indextts-server/internal/queue"
	"github.com/voicekit/indextts-server/internal/voice"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := projectRoot()

	res := config.Load(config.DefaultPath(root))
	cfg := res.Config
	if res.Created {
		slog.Info("wrote default config", "path", res.Path)
	}
	if res.Warning != "" {
		slog.Warn("config degraded", "warning", res.Warning)
	}

	ctx := context.Background()

	modelDir := cfg.Model.ModelDir
	if !filepath.IsAbs(modelDir) {
		modelDir = filepath.Join(root, modelDir)
	}

	var eng engine.Engine
	switch strings.ToLower(cfg.Model.Engine) {
	case "openai":
		eng = engine.NewOpenAIEngine(engine.OpenAIEngineConfig{
			APIKey:  cfg.Model.OpenAIKey,
			BaseURL: cfg.Model.OpenAIBaseURL,
		})
	default:
		// The sidecar loads checkpoints from disk, so they must exist before
		// it can serve anything.
		if ok, missing := checkpoint.Check(modelDir); !ok {
			if !cfg.AutoDownload.Enabled {
				slog.Error("model checkpoints missing and auto-download disabled",
					"model_dir", modelDir, "missing", missing)
				os.Exit(1)
			}
			slog.Info("downloading missing checkpoints",
				"repo", cfg.AutoDownload.HFRepo, "missing", missing)
			dl := checkpoint.NewDownloader(cfg.AutoDownload.HFRepo, cfg.AutoDownload.Endpoint)
			if err := dl.Ensure(ctx, modelDir); err != nil {
				slog.Error("checkpoint download failed", "error", err)
				os.Exit(1)
			}
		}
		eng = engine.NewHTTPEngine(engine.HTTPEngineConfig{BaseURL: cfg.Model.EngineURL})
	}
	slog.Info("engine configured", "engine", eng.Name())

	registry := voice.NewRegistry(cfg.Voice, root)
	conv := audio.NewConverter()

	// Redis connection (optional — async synthesis degrades without it).
	var (
		qc       *queue.Client
		jobStore *jobs.Store
	)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Server.RedisAddr,
		Password: cfg.Server.RedisPassword,
		DB:       cfg.Server.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without async synthesis", "error", err)
		_ = rdb.Close()
		rdb = nil
	} else {
		qc = queue.NewClient(cfg.Server)
		jobStore = jobs.NewStore(rdb)
		defer rdb.Close()
		defer qc.Close()
	}

	router := api.NewRouter(cfg, registry, eng, conv, rdb, qc, jobStore)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute, // synthesis responses stream slowly
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting TTS server", "addr", cfg.Addr(), "root", root)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// projectRoot resolves the directory that voice directories, the mappings
// file, and the model dir are relative to: INDEXTTS_ROOT when set, else the
// working directory.
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
