// Package generate turns prompts into validated values by calling text
// providers in order, retrying each on a fixed backoff table, and running every
// response through the extract pipeline.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyroom/pkg/extract"
	"storyroom/pkg/inference"
	"storyroom/pkg/retry"
)

// Spec is the shape and post-processing of one kind of generated content.
type Spec[T any] struct {
	Schema      *extract.Schema[T]
	PostProcess func(T) T
}

type Orchestrator struct {
	// Providers are tried in order; each gets Policy.Attempts calls.
	Providers []inference.Provider
	Policy    retry.Policy
	Observer  Observer
}

func (o *Orchestrator) emit(e Event) {
	if o.Observer != nil {
		o.Observer.Observe(e)
	}
}

// Generate asks each provider in turn for req until one returns output that
// parses and validates against spec. Provider failures, unparseable output and
// invalid output are all retried alike. When every attempt on every provider
// has failed it returns an *ExhaustedError; a value is never returned unless it
// passed validation.
func Generate[T any](ctx context.Context, o *Orchestrator, req inference.Request, spec Spec[T]) (T, error) {
	var zero T
	if spec.Schema == nil {
		return zero, errors.New("generate: spec has no schema")
	}
	if req.Schema == nil {
		req.Schema = spec.Schema.JSONSchema()
		req.SchemaName = spec.Schema.Name
	}

	policy := o.Policy.WithDefaults()
	attempts := make([]Attempt, 0, len(o.Providers)*policy.Attempts)

	for _, p := range o.Providers {
		var value T
		err := retry.Do(ctx, policy, func(ctx context.Context, i int) error {
			a := Attempt{Provider: p.Name(), Index: i}
			if i > 0 {
				a.Delay = policy.Delay(i - 1)
			}
			o.emit(Event{State: Requesting, Provider: a.Provider, Attempt: i})

			start := time.Now()
			v, err := attempt(ctx, p, req, spec)
			a.Latency = time.Since(start)
			a.Outcome = outcomeOf(err)
			if err != nil {
				a.Err, a.Error = err, err.Error()
			}
			attempts = append(attempts, a)

			if err != nil {
				ev := Event{State: Retrying, Provider: a.Provider, Attempt: i, Latency: a.Latency, Err: err, Delay: policy.Delay(i)}
				if i == policy.Attempts-1 {
					ev.State, ev.Delay = ProviderExhausted, 0
				}
				o.emit(ev)
				return err
			}

			value = v
			o.emit(Event{State: Success, Provider: a.Provider, Attempt: i, Latency: a.Latency})
			return nil
		})
		if err == nil {
			o.emit(Event{State: Done, Provider: p.Name()})
			return value, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("generate: %w", ctxErr)
		}
	}

	o.emit(Event{State: AllProvidersExhausted, Attempt: len(attempts)})
	return zero, &ExhaustedError{Attempts: attempts}
}

func attempt[T any](ctx context.Context, p inference.Provider, req inference.Request, spec Spec[T]) (T, error) {
	var zero T

	resp, err := p.Generate(ctx, req)
	if err != nil {
		return zero, inference.Wrap(p.Name(), err)
	}

	out := extract.Extract(resp.Content, spec.Schema)
	if out.Kind != extract.Ok {
		return zero, out.Err
	}

	v := out.Value
	if spec.PostProcess != nil {
		v = spec.PostProcess(v)
	}
	return v, nil
}
