package llm

import "time"

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskSummary    TaskType = "summary"
	TaskVoiceParse TaskType = "voice_parse"
	TaskTranscribe TaskType = "transcribe"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// Config holds all configuration for the LLM subsystem. An empty APIKey
// leaves the client unconfigured.
type Config struct {
	APIKey    string
	BaseURL   string
	TimeoutMs int
	LogCalls  bool
	Tasks     map[TaskType]TaskConfig
}

// DefaultConfig returns a Config with sensible defaults and no API key.
func DefaultConfig() Config {
	return Config{
		TimeoutMs: 30000,
		Tasks: map[TaskType]TaskConfig{
			TaskSummary:    {Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 700},
			TaskVoiceParse: {Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 500},
			TaskTranscribe: {Model: "whisper-1", TimeoutMs: 60000},
		},
	}
}

// Configured reports whether an API key is present.
func (c Config) Configured() bool {
	return c.APIKey != ""
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c Config) TaskTimeout(task TaskType) time.Duration {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return time.Duration(tc.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ModelFor resolves the model for a task. A non-empty override wins.
func (c Config) ModelFor(task TaskType, override string) string {
	if override != "" {
		return override
	}
	return c.Tasks[task].Model
}

// WithModel returns a copy of c with the model for task replaced.
func (c Config) WithModel(task TaskType, model string) Config {
	tasks := make(map[TaskType]TaskConfig, len(c.Tasks))
	for k, v := range c.Tasks {
		tasks[k] = v
	}
	tc := tasks[task]
	tc.Model = model
	tasks[task] = tc
	c.Tasks = tasks
	return c
}
