package generate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"storyroom/pkg/extract"
	"storyroom/pkg/inference"
	"storyroom/pkg/pricing"
	"storyroom/pkg/retry"
	"storyroom/pkg/schema"
)

// stubProvider answers from a fixed script; once exhausted it repeats the last entry.
type stubProvider struct {
	name   string
	script []stubReply

	mu      sync.Mutex
	calls   int
	prompts []string
}

type stubReply struct {
	content string
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(ctx context.Context, req inference.Request) (inference.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.script)-1)
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)
	r := s.script[i]
	if r.err != nil {
		return inference.Response{}, r.err
	}
	return inference.Response{Content: r.content, Model: s.name}, nil
}

func (s *stubProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func failing(name string) *stubProvider {
	return &stubProvider{name: name, script: []stubReply{{err: errors.New("503 service unavailable")}}}
}

func replying(name string, content ...string) *stubProvider {
	p := &stubProvider{name: name}
	for _, c := range content {
		p.script = append(p.script, stubReply{content: c})
	}
	return p
}

func noWait(ctx context.Context, d time.Duration) error { return ctx.Err() }

func testPolicy(attempts int) retry.Policy {
	return retry.Policy{Attempts: attempts, Delays: []time.Duration{time.Second, 2 * time.Second}, Sleep: noWait}
}

var locationSpec = Spec[schema.LocationSuggestions]{
	Schema:      schema.LocationSuggestionsSchema,
	PostProcess: pricing.Backfill,
}

const loftResponse = "Here is the data:\n```json\n{\"suggestions\":[{\"venueName\":\"Loft A\",\"estimatedCost\":0}]}\n```"

func TestGenerateLoftScenario(t *testing.T) {
	o := &Orchestrator{Providers: []inference.Provider{replying("stub", loftResponse)}, Policy: testPolicy(3)}

	got, err := Generate(context.Background(), o, inference.Request{Prompt: "loft"}, locationSpec)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got.Suggestions) != 1 {
		t.Fatalf("suggestions = %+v", got.Suggestions)
	}
	if c := got.Suggestions[0].Cost(); c <= 0 {
		t.Errorf("estimatedCost = %v, want > 0", c)
	}
	if !got.Suggestions[0].CostEstimated {
		t.Error("CostEstimated = false, want true")
	}
}

func TestGenerateRetryBound(t *testing.T) {
	providers := []*stubProvider{failing("a"), failing("b"), failing("c")}
	o := &Orchestrator{Policy: testPolicy(3)}
	for _, p := range providers {
		o.Providers = append(o.Providers, p)
	}

	_, err := Generate(context.Background(), o, inference.Request{Prompt: "x"}, locationSpec)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Generate() error = %v, want ErrExhausted", err)
	}

	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("error type = %T, want *ExhaustedError", err)
	}
	if len(ex.Attempts) != 9 {
		t.Errorf("attempts = %d, want 9", len(ex.Attempts))
	}

	for _, p := range providers {
		if p.Calls() != 3 {
			t.Errorf("provider %s calls = %d, want 3", p.name, p.Calls())
		}
	}

	wantOrder := []string{"a", "a", "a", "b", "b", "b", "c", "c", "c"}
	for i, a := range ex.Attempts {
		if a.Provider != wantOrder[i] {
			t.Errorf("attempts[%d].Provider = %s, want %s", i, a.Provider, wantOrder[i])
		}
		if a.Outcome != OutcomeProviderError {
			t.Errorf("attempts[%d].Outcome = %s, want %s", i, a.Outcome, OutcomeProviderError)
		}
	}
	if ex.Attempts[1].Delay != time.Second || ex.Attempts[2].Delay != 2*time.Second {
		t.Errorf("delays = %v, %v", ex.Attempts[1].Delay, ex.Attempts[2].Delay)
	}
}

func TestGenerateFallsBackAfterBadOutput(t *testing.T) {
	bad := replying("bad", "I cannot do that.", `{"suggestions":[{"description":"no name"}]}`)
	good := replying("good", loftResponse)
	o := &Orchestrator{Providers: []inference.Provider{bad, good}, Policy: testPolicy(2)}

	got, err := Generate(context.Background(), o, inference.Request{Prompt: "x"}, locationSpec)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Suggestions[0].VenueName != "Loft A" {
		t.Errorf("got %+v", got)
	}
	if bad.Calls() != 2 || good.Calls() != 1 {
		t.Errorf("calls bad=%d good=%d, want 2 and 1", bad.Calls(), good.Calls())
	}
}

func TestGenerateRecordsOutcomes(t *testing.T) {
	p := replying("p", "no json here", `{"suggestions":[{}]}`)
	o := &Orchestrator{Providers: []inference.Provider{p}, Policy: testPolicy(2)}

	_, err := Generate(context.Background(), o, inference.Request{}, locationSpec)
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("error = %v", err)
	}
	if ex.Attempts[0].Outcome != OutcomeParseFailed || ex.Attempts[1].Outcome != OutcomeValidationFailed {
		t.Errorf("outcomes = %s, %s", ex.Attempts[0].Outcome, ex.Attempts[1].Outcome)
	}
	if !extract.IsValidationError(err) {
		t.Error("exhausted error should unwrap to the validation failure")
	}
}

func TestGenerateRetriesSameProviderUntilValid(t *testing.T) {
	p := replying("p", "garbage", loftResponse)
	o := &Orchestrator{Providers: []inference.Provider{p}, Policy: testPolicy(3)}

	if _, err := Generate(context.Background(), o, inference.Request{}, locationSpec); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if p.Calls() != 2 {
		t.Errorf("calls = %d, want 2", p.Calls())
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a, b := failing("a"), failing("b")
	o := &Orchestrator{
		Providers: []inference.Provider{a, b},
		Policy: retry.Policy{Attempts: 3, Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}},
	}

	_, err := Generate(ctx, o, inference.Request{}, locationSpec)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrExhausted) {
		t.Error("cancellation reported as exhaustion")
	}
	if a.Calls() != 1 || b.Calls() != 0 {
		t.Errorf("calls a=%d b=%d, want 1 and 0", a.Calls(), b.Calls())
	}
}

func TestGenerateNoProviders(t *testing.T) {
	_, err := Generate(context.Background(), &Orchestrator{}, inference.Request{}, locationSpec)
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("error = %v, want ErrExhausted", err)
	}
}

func TestGenerateNoSchema(t *testing.T) {
	o := &Orchestrator{Providers: []inference.Provider{replying("p", "{}")}}
	if _, err := Generate(context.Background(), o, inference.Request{}, Spec[schema.LocationSuggestions]{}); err == nil {
		t.Error("expected error for a spec without schema")
	}
}

func TestGenerateEvents(t *testing.T) {
	var states []State
	o := &Orchestrator{
		Providers: []inference.Provider{failing("a"), replying("b", loftResponse)},
		Policy:    testPolicy(2),
		Observer:  ObserverFunc(func(e Event) { states = append(states, e.State) }),
	}

	if _, err := Generate(context.Background(), o, inference.Request{}, locationSpec); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := []State{Requesting, Retrying, Requesting, ProviderExhausted, Requesting, Success, Done}
	if !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestGenerateSendsSchema(t *testing.T) {
	var got inference.Request
	p := &captureProvider{fn: func(req inference.Request) { got = req }, content: loftResponse}
	o := &Orchestrator{Providers: []inference.Provider{p}, Policy: testPolicy(1)}

	if _, err := Generate(context.Background(), o, inference.Request{Prompt: "x"}, locationSpec); err != nil {
		t.Fatal(err)
	}
	if got.Schema == nil || got.SchemaName != schema.LocationSuggestionsSchema.Name {
		t.Errorf("request schema not set: %+v", got)
	}
}

type captureProvider struct {
	fn      func(inference.Request)
	content string
}

func (c *captureProvider) Name() string { return "capture" }

func (c *captureProvider) Generate(ctx context.Context, req inference.Request) (inference.Response, error) {
	c.fn(req)
	return inference.Response{Content: c.content}, nil
}
