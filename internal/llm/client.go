package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Schema is a named JSON schema the model is constrained to in strict mode.
type Schema struct {
	Name       string
	Definition jsonschema.Definition
}

// CompletionRequest holds the parameters for one completion call.
type CompletionRequest struct {
	Task         TaskType
	Model        string // empty uses the task default
	SystemPrompt string
	UserMessage  string
	// Corrections are sent as extra system messages after SystemPrompt.
	Corrections []string
	// Schema switches the call to strict json_schema output when non-nil.
	Schema *Schema
}

// Usage is the token accounting reported by the service.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add returns the element-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}

// Completion is the raw result of a completion call. Content is returned
// as-is even in strict mode; callers validate it.
type Completion struct {
	Content   string
	Model     string
	Usage     Usage
	LatencyMs int64
}

// Audio is an uploaded recording to transcribe.
type Audio struct {
	Filename string
	Data     []byte
}

// Completer sends a prompt to a chat-completion model.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// Transcriber turns speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Client implements Completer and Transcriber against an
// OpenAI-compatible API. It never retries.
type Client struct {
	cfg      Config
	api      *openai.Client
	observer Observer
}

// NewClient creates a Client. With no API key the client is still usable
// but every call fails with ErrNotConfigured.
func NewClient(cfg Config, observer Observer) *Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	c := &Client{cfg: cfg, observer: observer}
	if cfg.Configured() {
		apiCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			apiCfg.BaseURL = cfg.BaseURL
		}
		apiCfg.HTTPClient = &http.Client{}
		c.api = openai.NewClientWithConfig(apiCfg)
	}
	return c
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	start := time.Now()
	model := c.cfg.ModelFor(req.Task, req.Model)

	if c.api == nil {
		c.report(req.Task, model, start, Usage{}, ErrNotConfigured)
		return nil, ErrNotConfigured
	}

	ctx, cancel := c.withTimeout(ctx, req.Task)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, c.chatRequest(model, req))
	if err != nil {
		err = upstreamError(ctx, err)
		c.report(req.Task, model, start, Usage{}, err)
		return nil, err
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if len(resp.Choices) == 0 {
		err = fmt.Errorf("%w: no choices returned", ErrUpstream)
		c.report(req.Task, model, start, usage, err)
		return nil, err
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		err = fmt.Errorf("%w: empty content (finish_reason=%s)", ErrUpstream, resp.Choices[0].FinishReason)
		c.report(req.Task, model, start, usage, err)
		return nil, err
	}

	if resp.Model != "" {
		model = resp.Model
	}
	latency := c.report(req.Task, model, start, usage, nil)
	return &Completion{
		Content:   content,
		Model:     model,
		Usage:     usage,
		LatencyMs: latency,
	}, nil
}

func (c *Client) Transcribe(ctx context.Context, audio Audio) (string, error) {
	start := time.Now()
	model := c.cfg.ModelFor(TaskTranscribe, "")

	if c.api == nil {
		c.report(TaskTranscribe, model, start, Usage{}, ErrNotConfigured)
		return "", ErrNotConfigured
	}

	ctx, cancel := c.withTimeout(ctx, TaskTranscribe)
	defer cancel()

	filename := audio.Filename
	if filename == "" {
		filename = "audio.webm"
	}
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio.Data),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		err = upstreamError(ctx, err)
		c.report(TaskTranscribe, model, start, Usage{}, err)
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		err = fmt.Errorf("%w: empty transcript", ErrUpstream)
		c.report(TaskTranscribe, model, start, Usage{}, err)
		return "", err
	}
	c.report(TaskTranscribe, model, start, Usage{}, nil)
	return text, nil
}

func (c *Client) chatRequest(model string, req CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2+len(req.Corrections))
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	for _, correction := range req.Corrections {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: correction})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserMessage})

	taskCfg := c.cfg.Tasks[req.Task]
	out := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: taskCfg.Temperature,
	}
	if taskCfg.MaxTokens > 0 {
		out.MaxCompletionTokens = taskCfg.MaxTokens
	}
	if req.Schema != nil {
		def := req.Schema.Definition
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: &def,
				Strict: true,
			},
		}
	}
	return out
}

func (c *Client) withTimeout(ctx context.Context, task TaskType) (context.Context, context.CancelFunc) {
	if d := c.cfg.TaskTimeout(task); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (c *Client) report(task TaskType, model string, start time.Time, usage Usage, err error) int64 {
	latency := time.Since(start).Milliseconds()
	c.observer.OnCallComplete(CallEvent{
		Task:      task,
		Model:     model,
		LatencyMs: latency,
		Success:   err == nil,
		ErrorCode: errorCode(err),
		Usage:     usage,
	})
	return latency
}

// upstreamError wraps a transport or API failure. Deadline overruns also
// carry ErrTimeout.
func upstreamError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUpstream, ErrTimeout)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d: %v", ErrUpstream, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return "NOT_CONFIGURED"
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	case errors.Is(err, ErrUpstream):
		return "UPSTREAM"
	default:
		return "UNKNOWN"
	}
}
