package generate

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	obs := LogObserver{Logger: logger}

	obs.Observe(Event{State: Requesting, Provider: "azure"})
	obs.Observe(Event{State: Retrying, Provider: "azure", Delay: 2 * time.Second, Err: errors.New("timeout")})
	obs.Observe(Event{State: AllProvidersExhausted, Attempt: 9})

	out := buf.String()
	for _, want := range []string{"generation attempt", "provider=azure", "retry_in=2s", "error=timeout", "attempts=9"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogObserverSuccessLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.InfoLevel)
	obs := LogObserver{Logger: logger}

	obs.Observe(Event{State: Success, Provider: "openai"})
	obs.Observe(Event{State: Done, Provider: "openai"})

	if n := strings.Count(buf.String(), "generation succeeded"); n != 1 {
		t.Errorf("logged success %d times, want 1:\n%s", n, buf.String())
	}
}

func TestObservers(t *testing.T) {
	var a, b []State
	obs := Observers(
		ObserverFunc(func(e Event) { a = append(a, e.State) }),
		ObserverFunc(func(e Event) { b = append(b, e.State) }),
	)
	obs.Observe(Event{State: Success})
	obs.Observe(Event{State: Done})

	if len(a) != 2 || len(b) != 2 || a[1] != Done || b[0] != Success {
		t.Errorf("a = %v, b = %v", a, b)
	}
}

func TestStateString(t *testing.T) {
	if AllProvidersExhausted.String() != "all_providers_exhausted" || State(99).String() != "unknown" {
		t.Error("unexpected State names")
	}
}
