package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nuance/pkg/nuancetypes"
)

// OutcomeKind classifies a single generation attempt.
type OutcomeKind int

// Outcome kinds. Empty and Transient are retryable; Fatal is not.
const (
	OutcomeOK OutcomeKind = iota
	OutcomeEmpty
	OutcomeTransient
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeTransient:
		return "transient"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of one generation attempt. Text is trimmed and set only for OutcomeOK.
type Outcome struct {
	Text string
	Kind OutcomeKind
	Err  error
}

// Retryable reports whether another attempt may succeed.
func (o Outcome) Retryable() bool {
	return o.Kind == OutcomeEmpty || o.Kind == OutcomeTransient
}

// Classify turns a generator's return values into an Outcome.
func Classify(text string, err error) Outcome {
	if err == nil {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return Outcome{Kind: OutcomeEmpty, Err: ErrEmptyResponse}
		}
		return Outcome{Text: trimmed, Kind: OutcomeOK}
	}

	switch {
	case errors.Is(err, ErrEmptyResponse):
		return Outcome{Kind: OutcomeEmpty, Err: err}
	case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrPromptRender), errors.Is(err, context.Canceled):
		return Outcome{Kind: OutcomeFatal, Err: err}
	default:
		return Outcome{Kind: OutcomeTransient, Err: err}
	}
}

// Attempt runs one generation bounded by timeout (0 means no bound).
// Cancellation of ctx itself is Fatal; an expired per-attempt deadline is Transient.
func Attempt(ctx context.Context, gen nuancetypes.Generator, vars map[string]string, timeout time.Duration) Outcome {
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	text, err := gen.Generate(attemptCtx, vars)
	outcome := Classify(text, err)
	if outcome.Kind != OutcomeOK && ctx.Err() != nil {
		return Outcome{Kind: OutcomeFatal, Err: ctx.Err()}
	}
	return outcome
}
