package utils

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"loft", "lofts", 1},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("Loft A", "  loft a "); got != 1 {
		t.Errorf("Similarity() = %v, want 1", got)
	}
	if got := Similarity("", ""); got != 1 {
		t.Errorf("Similarity(empty) = %v, want 1", got)
	}
	if got := Similarity("warehouse", "bakery"); got > 0.5 {
		t.Errorf("Similarity() = %v, want low", got)
	}
}

func TestLimitStr(t *testing.T) {
	if got := LimitStr("hello", 10); got != "hello" {
		t.Errorf("LimitStr() = %q", got)
	}
	if got := LimitStr("hello world", 5); got != "hello..." {
		t.Errorf("LimitStr() = %q", got)
	}
	// byte 4 is the second half of "é"
	if got := LimitStr("café bar", 4); got != "caf..." {
		t.Errorf("LimitStr() = %q, want %q", got, "caf...")
	}
	if got := LimitStr("日本語", 4); !utf8.ValidString(got) || got != "日..." {
		t.Errorf("LimitStr() = %q, want %q", got, "日...")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" ../a/b:c d "); got != "_a_b_c_d" {
		t.Errorf("SanitizeFilename() = %q", got)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	in := map[string]int{"a": 1, "b": 2}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists() = false after Save")
	}
	out, err := Load[map[string]int](path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Errorf("Load() = %v", out)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestSSEWriter(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	w, err := NewSSEWriter(c)
	if err != nil {
		t.Fatalf("NewSSEWriter() error = %v", err)
	}
	if err := w.Event("progress", map[string]int{"index": 1}); err != nil {
		t.Fatal(err)
	}
	if err := w.Event("note", "plain"); err != nil {
		t.Fatal(err)
	}
	w.Close()
	w.Close()
	if err := w.Event("late", "ignored"); err != nil {
		t.Fatal(err)
	}

	body := rec.Body.String()
	want := "event: progress\ndata: {\"index\":1}\n\nevent: note\ndata: plain\n\nevent: close\ndata: null\n\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}
}
