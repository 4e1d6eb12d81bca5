package generate

import (
	"context"
	"errors"

	"storyroom/pkg/inference"
)

// Progress is reported before each batch item starts.
type Progress struct {
	Index int `json:"index"`
	Total int `json:"total"`
}

// Result is the outcome of one batch item. Exactly one of Value and Err is meaningful.
type Result[T any] struct {
	Index    int       `json:"index"`
	Value    T         `json:"value"`
	Err      error     `json:"-"`
	Error    string    `json:"error,omitempty"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

func (r Result[T]) Failed() bool { return r.Err != nil || r.Error != "" }

// Batch generates every request one after another, in order. A failed item
// records its error and the batch moves on; Batch itself never fails.
// Items never run concurrently.
func Batch[T any](ctx context.Context, o *Orchestrator, reqs []inference.Request, spec Spec[T], progress func(Progress)) []Result[T] {
	results := make([]Result[T], len(reqs))
	for i := range reqs {
		results[i] = runItem(ctx, o, reqs, i, spec, progress)
	}
	return results
}

// RetryFailed reruns only the failed items of a previous batch, keeping the
// successful results as they were. prev must come from a batch over reqs.
func RetryFailed[T any](ctx context.Context, o *Orchestrator, reqs []inference.Request, prev []Result[T], spec Spec[T], progress func(Progress)) []Result[T] {
	results := make([]Result[T], len(reqs))
	for i := range reqs {
		if i < len(prev) && !prev[i].Failed() {
			results[i] = prev[i]
			continue
		}
		results[i] = runItem(ctx, o, reqs, i, spec, progress)
	}
	return results
}

// Failed returns the indexes of failed results.
func Failed[T any](results []Result[T]) []int {
	var out []int
	for _, r := range results {
		if r.Failed() {
			out = append(out, r.Index)
		}
	}
	return out
}

func runItem[T any](ctx context.Context, o *Orchestrator, reqs []inference.Request, i int, spec Spec[T], progress func(Progress)) Result[T] {
	res := Result[T]{Index: i}
	if err := ctx.Err(); err != nil {
		res.Err, res.Error = err, err.Error()
		return res
	}
	if progress != nil {
		progress(Progress{Index: i, Total: len(reqs)})
	}

	v, err := Generate(ctx, o, reqs[i], spec)
	if err != nil {
		res.Err, res.Error = err, err.Error()
		var ex *ExhaustedError
		if errors.As(err, &ex) {
			res.Attempts = ex.Attempts
		}
		return res
	}
	res.Value = v
	return res
}
