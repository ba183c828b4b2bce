// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/prompt"
	"github.com/alexanderramin/barnlog/internal/ratelimit"
)

// Config is the full process configuration.
type Config struct {
	DBPath    string `env:"BARNLOG_DB"`
	Addr      string `env:"BARNLOG_ADDR" envDefault:":8080" validate:"required,hostname_port"`
	JWTSecret string `env:"BARNLOG_JWT_SECRET"`
	LogLevel  string `env:"BARNLOG_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	LLM     LLM
	Prompts Prompts
	Rate    Rate
}

// LLM configures the completion and transcription client.
type LLM struct {
	APIKey          string `env:"OPENAI_API_KEY"`
	BaseURL         string `env:"OPENAI_BASE_URL" validate:"omitempty,url"`
	SummaryModel    string `env:"BARNLOG_LLM_SUMMARY_MODEL" envDefault:"gpt-4o-mini" validate:"required"`
	VoiceModel      string `env:"BARNLOG_LLM_VOICE_MODEL" envDefault:"gpt-4o-mini" validate:"required"`
	TranscribeModel string `env:"BARNLOG_LLM_TRANSCRIBE_MODEL" envDefault:"whisper-1" validate:"required"`
	TimeoutMs       int    `env:"BARNLOG_LLM_TIMEOUT_MS" envDefault:"30000" validate:"gt=0"`
	LogCalls        bool   `env:"BARNLOG_LLM_LOG_CALLS" envDefault:"true"`
}

// Prompts selects the prompt versions in use.
type Prompts struct {
	SummaryVersion string `env:"BARNLOG_PROMPT_SUMMARY_VERSION" envDefault:"v2" validate:"oneof=v1 v2"`
	VoiceVersion   string `env:"BARNLOG_PROMPT_VOICE_VERSION" envDefault:"v2" validate:"oneof=v1 v2"`
}

// Rate overrides the stock rate-limit buckets.
type Rate struct {
	ReadPerMin    int    `env:"BARNLOG_RATE_READ_PER_MIN" envDefault:"120" validate:"gt=0"`
	WritePerMin   int    `env:"BARNLOG_RATE_WRITE_PER_MIN" envDefault:"60" validate:"gt=0"`
	AuthPerMin    int    `env:"BARNLOG_RATE_AUTH_PER_MIN" envDefault:"10" validate:"gt=0"`
	AIBurstPerMin int    `env:"BARNLOG_RATE_AI_BURST_PER_MIN" envDefault:"5" validate:"gt=0"`
	AIDaily       int    `env:"BARNLOG_RATE_AI_DAILY" envDefault:"50" validate:"gt=0"`
	SweepSpec     string `env:"BARNLOG_RATE_SWEEP" envDefault:"@every 5m" validate:"required"`
}

var validate = validator.New()

// Load reads envFiles (default ".env", skipped when absent) into the
// process environment without overriding variables already set, then
// parses and validates the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotenv(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".barnlog", "barnlog.db")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// LLMConfig converts the LLM section into an llm.Config.
func (c *Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	out.APIKey = c.LLM.APIKey
	out.BaseURL = c.LLM.BaseURL
	out.TimeoutMs = c.LLM.TimeoutMs
	out.LogCalls = c.LLM.LogCalls
	out = out.WithModel(llm.TaskSummary, c.LLM.SummaryModel)
	out = out.WithModel(llm.TaskVoiceParse, c.LLM.VoiceModel)
	return out.WithModel(llm.TaskTranscribe, c.LLM.TranscribeModel)
}

// Buckets converts the Rate section into limiter buckets.
func (c *Config) Buckets() ratelimit.Buckets {
	b := ratelimit.DefaultBuckets()
	b.Read.Limit = c.Rate.ReadPerMin
	b.Write.Limit = c.Rate.WritePerMin
	b.Auth.Limit = c.Rate.AuthPerMin
	b.AIBurst.Limit = c.Rate.AIBurstPerMin
	b.AIDaily.Limit = c.Rate.AIDaily
	return b
}

// SummaryVersion returns the configured summary prompt version.
func (c *Config) SummaryVersion() prompt.SummaryVersion {
	v, err := prompt.ParseSummaryVersion(c.Prompts.SummaryVersion)
	if err != nil {
		return prompt.LatestSummary
	}
	return v
}

// VoiceVersion returns the configured voice prompt version.
func (c *Config) VoiceVersion() prompt.VoiceVersion {
	v, err := prompt.ParseVoiceVersion(c.Prompts.VoiceVersion)
	if err != nil {
		return prompt.LatestVoice
	}
	return v
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LLMTimeout is the per-call completion timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutMs) * time.Millisecond
}
