package generate

import (
	"errors"
	"fmt"
	"time"

	"storyroom/pkg/extract"
	"storyroom/pkg/inference"
)

// ErrExhausted is matched by the error returned when every provider and attempt failed.
var ErrExhausted = errors.New("generate: all providers exhausted")

// Attempt records one provider call within an orchestrated generation.
type Attempt struct {
	Provider string        `json:"provider"`
	Index    int           `json:"index"`
	Delay    time.Duration `json:"delay"`
	Latency  time.Duration `json:"latency"`
	Outcome  string        `json:"outcome"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

const (
	OutcomeOK               = "ok"
	OutcomeProviderError    = "provider_error"
	OutcomeParseFailed      = "parse_failed"
	OutcomeValidationFailed = "validation_failed"
)

func outcomeOf(err error) string {
	var pe *inference.ProviderError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &pe):
		return OutcomeProviderError
	case extract.IsParseError(err):
		return OutcomeParseFailed
	case extract.IsValidationError(err):
		return OutcomeValidationFailed
	default:
		return OutcomeProviderError
	}
}

// ExhaustedError is the only error a generation returns besides context cancellation.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "generate: no providers configured"
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("generate: all providers exhausted after %d attempts (last %s attempt %d: %v)",
		len(e.Attempts), last.Provider, last.Index+1, last.Err)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}
