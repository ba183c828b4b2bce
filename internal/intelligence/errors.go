package intelligence

import (
	"fmt"
	"math"
	"time"
)

// Precondition codes returned to callers when a summary cannot be generated.
const (
	CodeInsufficientSessions = "insufficient_sessions"
	CodeNotStale             = "not_stale"
	CodeCooldownActive       = "cooldown_active"
)

// PreconditionError is an expected refusal, not a failure. Handlers map it
// to a 400 with Code and Message.
type PreconditionError struct {
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (e *PreconditionError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(e.RetryAfter.Seconds()))
}
