package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

// Request is a single text-generation call.
type Request struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int64

	// Temperature is left to the provider's default when nil.
	Temperature *float64

	// JSON asks for a JSON-only response where the provider supports it.
	JSON bool
	// Schema, when set, is sent as a structured-output constraint to providers that accept one.
	Schema     *jsonschema.Schema
	SchemaName string
}

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 { return &v }

type Response struct {
	Content string
	Model   string
}

// Provider is a hosted text-generation service.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// ProviderError is a failed call to a provider: network, auth, quota or an empty completion.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

var (
	ErrEmptyCompletion = errors.New("empty completion content")
	ErrNoChoices       = errors.New("no choices returned")
)

// Wrap turns any error from a provider call into a *ProviderError, keeping the
// HTTP status of OpenAI-compatible API errors.
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	out := &ProviderError{Provider: provider, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		out.StatusCode = apiErr.StatusCode
	}
	return out
}
