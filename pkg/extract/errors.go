package extract

import (
	"errors"
	"fmt"
	"strings"

	"storyroom/pkg/utils"
)

// StrategyError is the failure of a single parse strategy.
type StrategyError struct {
	Strategy string
	Err      error
}

// ParseError is returned by Parse when no strategy produced a JSON container.
type ParseError struct {
	Input    string
	Failures []StrategyError
}

func (e *ParseError) Error() string {
	if len(e.Failures) == 0 {
		return "extract: no JSON found in model output"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Strategy+": "+f.Err.Error())
	}
	return fmt.Sprintf("extract: no strategy produced valid JSON (%s)", strings.Join(parts, "; "))
}

func (e *ParseError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

func newParseError(input string, failures []StrategyError) *ParseError {
	return &ParseError{Input: utils.LimitStr(input, 512), Failures: failures}
}

// ValidationError lists every problem found while checking a parsed value
// against its schema. Paths are dotted with array indexes, e.g. "suggestions[1].venueName".
type ValidationError struct {
	Schema     string
	Missing    []string
	Mismatched []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("extract: ")
	if e.Schema != "" {
		b.WriteString(e.Schema + " ")
	}
	b.WriteString("validation failed")
	if len(e.Missing) > 0 {
		b.WriteString(": missing required field(s): " + strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatched) > 0 {
		if len(e.Missing) > 0 {
			b.WriteString(";")
		} else {
			b.WriteString(":")
		}
		b.WriteString(" mismatched: " + strings.Join(e.Mismatched, ", "))
	}
	return b.String()
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Mismatched) == 0
}

// IsParseError reports whether err carries a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
