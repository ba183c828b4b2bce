package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/barnlog/internal/auth"
	"github.com/alexanderramin/barnlog/internal/intelligence"
	"github.com/alexanderramin/barnlog/internal/llm"
	"github.com/alexanderramin/barnlog/internal/ratelimit"
	"github.com/alexanderramin/barnlog/internal/repository"
	"github.com/alexanderramin/barnlog/internal/service"
)

// GenericFailureMessage is the only text a client sees for configuration
// and upstream failures.
const GenericFailureMessage = "Something went wrong generating this. Please try again."

const (
	CodeMissingAudio      = "missing_audio"
	CodeMissingContext    = "missing_context"
	CodeInvalidRequest    = "invalid_request"
	CodeUnauthorized      = "unauthorized"
	CodeInvalidCredential = "invalid_credential"
	CodeNotFound          = "not_found"
	CodeRateLimited       = "rate_limited"
	CodeGenerationFailed  = "generation_failed"
	CodeInternal          = "internal_error"
)

// BadInputError is a malformed request rejected before any work is done.
type BadInputError struct {
	Code    string
	Message string
}

func (e *BadInputError) Error() string { return e.Code + ": " + e.Message }

func badInput(code, message string) *BadInputError {
	return &BadInputError{Code: code, Message: message}
}

type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Bucket     string `json:"bucket,omitempty"`
	Remaining  *int   `json:"remaining,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// respond writes err as a JSON error and aborts the chain. Anything not
// recognised is logged in full and reported with the generic message.
func respond(c *gin.Context, logger *slog.Logger, err error) {
	status, body := classify(err)
	if status == http.StatusTooManyRequests && body.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(body.RetryAfter))
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorBody) {
	var (
		exceeded *ratelimit.ExceededError
		pre      *intelligence.PreconditionError
		bad      *BadInputError
	)
	switch {
	case errors.As(err, &exceeded):
		remaining := exceeded.Remaining
		return http.StatusTooManyRequests, errorBody{
			Error:      CodeRateLimited,
			Message:    "Too many requests. Please wait and try again.",
			Bucket:     exceeded.Bucket,
			Remaining:  &remaining,
			RetryAfter: exceeded.RetryAfter,
		}
	case errors.As(err, &pre):
		return http.StatusBadRequest, errorBody{Error: pre.Code, Message: pre.Message, RetryAfter: pre.RetryAfterSeconds()}
	case errors.As(err, &bad):
		return http.StatusBadRequest, errorBody{Error: bad.Code, Message: bad.Message}
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Error: CodeInvalidRequest, Message: err.Error()}
	case errors.Is(err, auth.ErrMissingCredential):
		return http.StatusUnauthorized, errorBody{Error: CodeUnauthorized, Message: "Sign in to continue."}
	case errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized, errorBody{Error: CodeInvalidCredential, Message: "Your session is invalid or has expired."}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: CodeNotFound, Message: "Not found."}
	case errors.Is(err, llm.ErrUpstream), errors.Is(err, llm.ErrNotConfigured):
		return http.StatusInternalServerError, errorBody{Error: CodeGenerationFailed, Message: GenericFailureMessage}
	default:
		return http.StatusInternalServerError, errorBody{Error: CodeInternal, Message: GenericFailureMessage}
	}
}
