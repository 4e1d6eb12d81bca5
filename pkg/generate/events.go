package generate

import (
	"time"

	"github.com/charmbracelet/log"
)

// State is a step of one orchestrated call.
type State int

const (
	Idle State = iota
	Requesting
	Success
	Retrying
	ProviderExhausted
	AllProvidersExhausted
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Success:
		return "success"
	case Retrying:
		return "retrying"
	case ProviderExhausted:
		return "provider_exhausted"
	case AllProvidersExhausted:
		return "all_providers_exhausted"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Event is emitted on every state transition. Delay is the backoff that
// follows a failed attempt; Latency is the duration of the attempt.
type Event struct {
	State    State
	Provider string
	Attempt  int
	Delay    time.Duration
	Latency  time.Duration
	Err      error
}

type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// LogObserver writes events with charmbracelet/log. A nil Logger uses the default logger.
type LogObserver struct {
	Logger *log.Logger
}

func (o LogObserver) Observe(e Event) {
	l := o.Logger
	if l == nil {
		l = log.Default()
	}
	kv := []any{"state", e.State, "provider", e.Provider, "attempt", e.Attempt + 1}
	if e.Latency > 0 {
		kv = append(kv, "latency", e.Latency.Round(time.Millisecond))
	}
	if e.Delay > 0 {
		kv = append(kv, "retry_in", e.Delay)
	}
	if e.Err != nil {
		kv = append(kv, "error", e.Err)
	}

	switch e.State {
	case Requesting:
		l.Debug("generation attempt", kv...)
	case Retrying, ProviderExhausted:
		l.Warn("generation attempt failed", kv...)
	case AllProvidersExhausted:
		l.Error("generation failed on every provider", "attempts", e.Attempt)
	case Success:
		l.Info("generation succeeded", kv...)
	case Done:
		l.Debug("generation done", "provider", e.Provider)
	}
}

type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// Observers fans events out to several observers in order.
func Observers(obs ...Observer) Observer {
	return multiObserver(obs)
}
