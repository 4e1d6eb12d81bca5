package frames

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"storyroom/pkg/inference"
	"storyroom/pkg/queue"
	"storyroom/pkg/schema"
)

type stubImages struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (s *stubImages) Name() string { return "stub" }

func (s *stubImages) GenerateImage(ctx context.Context, req inference.ImageRequest) ([]byte, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	gen := &stubImages{}
	q := New(gen, dir)
	q.Start()
	defer q.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	frame, err := queue.Render(ctx, q, queue.Job{
		Key:    "pilot-e01-s001",
		Prompt: schema.FramePrompt{Prompt: "A loft at dawn,, two figures", Camera: "wide shot", Mood: "quiet"},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if frame.Path != filepath.Join(dir, "pilot-e01-s001.webp") || frame.Path != q.Path("pilot-e01-s001") {
		t.Errorf("Path = %q", frame.Path)
	}
	data, err := os.ReadFile(frame.Path)
	if err != nil {
		t.Fatalf("frame file: %v", err)
	}
	if len(data) != frame.Bytes || !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Errorf("frame file is not the encoded WebP (%d bytes)", len(data))
	}

	if len(gen.prompts) != 1 || gen.prompts[0] != "A loft at dawn, two figures, wide shot, quiet mood" {
		t.Errorf("prompts = %q", gen.prompts)
	}
}

func TestRenderError(t *testing.T) {
	errDown := errors.New("image service down")
	q := New(&stubImages{err: errDown}, t.TempDir())
	q.Start()
	defer q.Stop()

	_, err := queue.Render(context.Background(), q, queue.Job{Key: "k", Prompt: schema.FramePrompt{Prompt: "x"}})
	if !errors.Is(err, errDown) {
		t.Errorf("Render() error = %v, want %v", err, errDown)
	}
}

func TestAddAfterStop(t *testing.T) {
	q := New(&stubImages{}, t.TempDir())
	q.Start()
	q.Stop()
	q.Stop()

	if _, _, err := q.Add(queue.Job{Key: "k"}); err == nil || !strings.Contains(err.Error(), "stopped") {
		t.Errorf("Add() after Stop = %v", err)
	}
}

func TestAddFull(t *testing.T) {
	q := New(&stubImages{}, t.TempDir())
	for range cap(q.items) {
		if _, _, err := q.Add(queue.Job{Key: "k"}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if _, _, err := q.Add(queue.Job{Key: "k"}); !errors.Is(err, ErrFull) {
		t.Errorf("Add() on full queue = %v, want ErrFull", err)
	}
}

func TestCleanPrompt(t *testing.T) {
	if got := cleanPrompt("  a,, b   c , "); got != "a, b c" {
		t.Errorf("cleanPrompt() = %q", got)
	}
}
