// Package config loads the service configuration from a YAML file, layering
// environment variable overrides on top of file values on top of hardcoded
// defaults. Loading never fails: malformed or missing files degrade to the
// defaults with a warning carried on the result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Model        ModelConfig        `yaml:"model"`
	AutoDownload AutoDownloadConfig `yaml:"auto_download"`
	Voice        VoiceConfig        `yaml:"voice"`
	Server       ServerConfig       `yaml:"server"`
}

// ModelConfig describes how to reach the inference engine and which runtime
// flags the sidecar should run with.
type ModelConfig struct {
	ModelDir        string `yaml:"model_dir"`
	Engine          string `yaml:"engine"`     // "http" or "openai"
	EngineURL       string `yaml:"engine_url"` // base URL of the inference sidecar
	OpenAIKey       string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	UseFP16         bool   `yaml:"use_fp16"`
	UseCUDAKernel   bool   `yaml:"use_cuda_kernel"`
	UseDeepSpeed    bool   `yaml:"use_deepspeed"`
	UseAccel        bool   `yaml:"use_accel"`
	UseTorchCompile bool   `yaml:"use_torch_compile"`
}

// AutoDownloadConfig controls checkpoint fetching at startup.
type AutoDownloadConfig struct {
	Enabled  bool   `yaml:"enabled"`
	HFRepo   string `yaml:"hf_repo"`
	Endpoint string `yaml:"hf_endpoint"`
}

// VoiceConfig controls voice alias loading and directory discovery.
type VoiceConfig struct {
	Directories  []string `yaml:"directories"`
	DefaultVoice string   `yaml:"default_voice"`
	MappingsFile string   `yaml:"mappings_file"`
	LegacyDir    string   `yaml:"legacy_dir"`
}

// ServerConfig holds network, auth, and rate limit settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	RedisAddr      string   `yaml:"redis_addr"`
	RedisPassword  string   `yaml:"redis_password"`
	RedisDB        int      `yaml:"redis_db"`
	APIKeys        []string `yaml:"api_keys"`
	JWTSecret      string   `yaml:"jwt_secret"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

// Default returns the hardcoded configuration defaults.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			ModelDir:     "checkpoints",
			Engine:       "http",
			EngineURL:    "http://localhost:9878",
			UseFP16:      true,
			UseDeepSpeed: true,
		},
		AutoDownload: AutoDownloadConfig{
			Enabled:  true,
			HFRepo:   "IndexTeam/IndexTTS-2",
			Endpoint: "https://huggingface.co",
		},
		Voice: VoiceConfig{
			Directories:  []string{"examples", "prompts"},
			DefaultVoice: "alloy",
			MappingsFile: "voice_mappings.json",
			LegacyDir:    "index-tts",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           9877,
			RedisAddr:      "localhost:6379",
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   100,
			RateLimitBurst: 200,
		},
	}
}

// DefaultPath returns the config file location relative to root, honoring the
// INDEXTTS_CFG_PATH override.
func DefaultPath(root string) string {
	if p, ok := os.LookupEnv("INDEXTTS_CFG_PATH"); ok && p != "" {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	return filepath.Join(root, "checkpoints", "config.yaml")
}

// LoadResult carries the loaded configuration plus any degradation that
// happened along the way, so callers can log or assert on it without the load
// itself ever failing.
type LoadResult struct {
	Config  *Config
	Path    string
	Created bool   // a default config file was written to Path
	Warning string // non-empty when the loader fell back to defaults
}

// Load reads the YAML config at path, deep-merges it over the defaults, and
// applies environment overrides. A missing file is synthesized from defaults
// and persisted best-effort; a malformed file falls back to defaults. Both
// cases surface through LoadResult rather than an error.
func Load(path string) *LoadResult {
	res := &LoadResult{Path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var overrides map[string]any
		if uerr := yaml.Unmarshal(data, &overrides); uerr != nil {
			res.Warning = fmt.Sprintf("parse %s: %v; using defaults", path, uerr)
			res.Config = Default()
		} else {
			merged := Merge(defaultMap(), overrides)
			cfg, derr := decode(merged)
			if derr != nil {
				res.Warning = fmt.Sprintf("decode %s: %v; using defaults", path, derr)
				cfg = Default()
			}
			res.Config = cfg
		}
	case os.IsNotExist(err):
		res.Config = Default()
		if werr := writeDefault(path); werr != nil {
			res.Warning = fmt.Sprintf("write default config to %s: %v", path, werr)
		} else {
			res.Created = true
		}
	default:
		res.Warning = fmt.Sprintf("read %s: %v; using defaults", path, err)
		res.Config = Default()
	}

	applyEnv(res.Config)
	return res
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaultMap() map[string]any {
	data, err := yaml.Marshal(Default())
	if err != nil {
		panic(fmt.Sprintf("config: marshal defaults: %v", err))
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return m
}

func decode(m map[string]any) (*Config, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnv overlays INDEXTTS_* environment variables, the highest-precedence
// layer. Variable names match the original deployment scheme.
func applyEnv(c *Config) {
	envStr("INDEXTTS_MODEL_DIR", &c.Model.ModelDir)
	envStr("INDEXTTS_ENGINE", &c.Model.Engine)
	envStr("INDEXTTS_ENGINE_URL", &c.Model.EngineURL)
	envStr("INDEXTTS_OPENAI_API_KEY", &c.Model.OpenAIKey)
	if c.Model.OpenAIKey == "" {
		envStr("OPENAI_API_KEY", &c.Model.OpenAIKey)
	}
	envStr("INDEXTTS_OPENAI_BASE_URL", &c.Model.OpenAIBaseURL)
	envBool("INDEXTTS_USE_FP16", &c.Model.UseFP16)
	envBool("INDEXTTS_USE_CUDA_KERNEL", &c.Model.UseCUDAKernel)
	envBool("INDEXTTS_USE_DEEPSPEED", &c.Model.UseDeepSpeed)
	envBool("INDEXTTS_USE_ACCEL", &c.Model.UseAccel)
	envBool("INDEXTTS_USE_TORCH_COMPILE", &c.Model.UseTorchCompile)

	envBool("INDEXTTS_AUTO_DOWNLOAD", &c.AutoDownload.Enabled)
	envStr("INDEXTTS_HF_REPO", &c.AutoDownload.HFRepo)
	envStr("INDEXTTS_HF_ENDPOINT", &c.AutoDownload.Endpoint)

	envList("INDEXTTS_VOICE_DIRECTORIES", &c.Voice.Directories)
	envStr("INDEXTTS_DEFAULT_VOICE", &c.Voice.DefaultVoice)
	envStr("INDEXTTS_VOICE_MAPPINGS", &c.Voice.MappingsFile)
	envStr("INDEXTTS_LEGACY_DIR", &c.Voice.LegacyDir)

	envStr("INDEXTTS_HOST", &c.Server.Host)
	envInt("INDEXTTS_PORT", &c.Server.Port)
	envStr("INDEXTTS_REDIS_ADDR", &c.Server.RedisAddr)
	envStr("INDEXTTS_REDIS_PASSWORD", &c.Server.RedisPassword)
	envInt("INDEXTTS_REDIS_DB", &c.Server.RedisDB)
	envList("INDEXTTS_API_KEYS", &c.Server.APIKeys)
	envStr("INDEXTTS_JWT_SECRET", &c.Server.JWTSecret)
	envList("INDEXTTS_CORS_ORIGINS", &c.Server.CORSOrigins)
}

func envStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// envBool treats "true" (case-insensitive) as true and anything else as false.
func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.EqualFold(v, "true")
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envList(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
