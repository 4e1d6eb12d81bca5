// Package frames renders storyboard frames one at a time through an image
// generator and stores them as WebP files.
package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"

	"storyroom/pkg/inference"
	"storyroom/pkg/queue"
	"storyroom/pkg/schema"
	"storyroom/pkg/utils"
)

var ErrFull = errors.New("frames: queue is full")

type Queue struct {
	gen  inference.ImageGenerator
	dir  string
	ctx  context.Context
	stop context.CancelFunc
	once sync.Once

	items chan *Item
}

type Item struct {
	Job      queue.Job
	Response chan schema.StoryboardFrame
	Error    chan error
}

var _ queue.Queue = (*Queue)(nil)

// New returns a queue writing frames under dir. Call Start before adding jobs.
func New(gen inference.ImageGenerator, dir string) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		gen:   gen,
		dir:   dir,
		ctx:   ctx,
		stop:  cancel,
		items: make(chan *Item, 100),
	}
}

func (q *Queue) Start() {
	go q.processLoop()
}

// Stop cancels the frame in progress and ends the worker. It is safe to call more than once.
func (q *Queue) Stop() {
	q.once.Do(q.stop)
}

func (q *Queue) Add(job queue.Job) (chan schema.StoryboardFrame, chan error, error) {
	if q.ctx.Err() != nil {
		return nil, nil, fmt.Errorf("frames: queue stopped: %w", q.ctx.Err())
	}

	respCh := make(chan schema.StoryboardFrame, 1)
	errCh := make(chan error, 1)

	select {
	case q.items <- &Item{Job: job, Response: respCh, Error: errCh}:
		return respCh, errCh, nil
	default:
		return nil, nil, ErrFull
	}
}

// Path is where the frame for key is stored.
func (q *Queue) Path(key string) string {
	return filepath.Join(q.dir, utils.SanitizeFilename(key)+".webp")
}

func (q *Queue) processLoop() {
	log.Info("frame queue started", "generator", q.gen.Name(), "dir", q.dir)
	for {
		select {
		case <-q.ctx.Done():
			log.Info("frame queue stopped")
			return
		case item := <-q.items:
			q.processItem(item)
		}
	}
}

func (q *Queue) processItem(item *Item) {
	job := item.Job
	prompt := composePrompt(job.Prompt)
	log.Debug("rendering frame", "key", job.Key, "prompt", utils.LimitStr(prompt, 50))

	frame, err := q.render(job, prompt)
	if err != nil {
		log.Error("frame render failed", "key", job.Key, "error", err)
		item.Error <- err
		close(item.Response)
		return
	}

	item.Response <- frame
	close(item.Error)
}

func (q *Queue) render(job queue.Job, prompt string) (schema.StoryboardFrame, error) {
	img, err := q.gen.GenerateImage(q.ctx, inference.ImageRequest{Prompt: prompt, Size: job.Size})
	if err != nil {
		return schema.StoryboardFrame{}, err
	}

	data, err := encodeWebP(img)
	if err != nil {
		return schema.StoryboardFrame{}, err
	}

	path := q.Path(job.Key)
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return schema.StoryboardFrame{}, fmt.Errorf("failed to create frame dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return schema.StoryboardFrame{}, fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return schema.StoryboardFrame{
		Key:    job.Key,
		Path:   path,
		Prompt: job.Prompt,
		Bytes:  len(data),
	}, nil
}

// encodeWebP re-encodes PNG or JPEG bytes as a high-quality WebP.
func encodeWebP(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 100}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func composePrompt(p schema.FramePrompt) string {
	parts := []string{p.Prompt}
	if p.Camera != "" {
		parts = append(parts, p.Camera)
	}
	if p.Mood != "" {
		parts = append(parts, p.Mood+" mood")
	}
	return cleanPrompt(strings.Join(parts, ", "))
}

func cleanPrompt(s string) string {
	s = strings.ReplaceAll(s, ",,", ",")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " ,")
}
