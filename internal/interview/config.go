package interview

import "time"

// Defaults for the session configuration. The total turn ceiling mirrors the
// 50 round safety bound the interview flow was designed around.
const (
	DefaultMaxTotalTurns = 50
	DefaultContextWindow = 20
	DefaultEngineRetries = 3
	DefaultEngineTimeout = 90 * time.Second
	DefaultRetryBackoff  = 500 * time.Millisecond
	DefaultMaxLogLength  = 200
)

// Config is the frozen settings value the core consumes at session start.
type Config struct {
	// MaxInterviewerTurns bounds interviewer messages in the interview loop.
	MaxInterviewerTurns int
	// MaxTotalTurns is the global ceiling across all messages; reaching it
	// during the interview loop forces evaluation.
	MaxTotalTurns int
	// ContextWindow is the number of trailing transcript messages supplied to
	// the interviewer and the evaluator.
	ContextWindow int
	// EngineRetries is the number of attempts per reasoning engine call.
	EngineRetries int
	// EngineTimeout bounds a single engine call.
	EngineTimeout time.Duration
	// RetryBackoff is the base delay between engine attempts; it doubles per
	// retry.
	RetryBackoff time.Duration
	// Temperatures overrides per-role sampling temperatures.
	Temperatures map[RoleID]float32
	// MaxTokens caps engine output length per call.
	MaxTokens int32
	// MaxLogLength truncates prompt and response previews in debug logs.
	MaxLogLength int
}

func (c Config) withDefaults() Config {
	if c.MaxInterviewerTurns <= 0 {
		c.MaxInterviewerTurns = DefaultMaxInterviewerTurns
	}
	if c.MaxTotalTurns <= 0 {
		c.MaxTotalTurns = DefaultMaxTotalTurns
	}
	if c.ContextWindow <= 0 {
		c.ContextWindow = DefaultContextWindow
	}
	if c.EngineRetries <= 0 {
		c.EngineRetries = DefaultEngineRetries
	}
	if c.EngineTimeout <= 0 {
		c.EngineTimeout = DefaultEngineTimeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = DefaultMaxLogLength
	}
	return c
}
