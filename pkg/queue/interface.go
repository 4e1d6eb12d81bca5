// Package queue serializes calls to rate-limited image services.
package queue

import (
	"context"

	"storyroom/pkg/schema"
)

// Job is one storyboard frame waiting to be rendered.
type Job struct {
	Key    string
	Prompt schema.FramePrompt
	Size   string
}

type Queue interface {
	Start()
	Stop()
	Add(job Job) (chan schema.StoryboardFrame, chan error, error)
}

// Render adds job to q and waits for the frame or for ctx to end.
func Render(ctx context.Context, q Queue, job Job) (schema.StoryboardFrame, error) {
	var zero schema.StoryboardFrame
	frames, errs, err := q.Add(job)
	if err != nil {
		return zero, err
	}

	select {
	case f, ok := <-frames:
		if ok {
			return f, nil
		}
		return zero, <-errs
	case err, ok := <-errs:
		if ok {
			return zero, err
		}
		return <-frames, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
