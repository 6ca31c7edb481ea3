package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestExtractor(t *testing.T, maxChars int) *Extractor {
	t.Helper()
	return NewExtractor(maxChars, 5*time.Second, nil)
}

func TestSupported(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ext  string
		want bool
	}{
		{".md", true},
		{".txt", true},
		{".TXT", true},
		{".pdf", true},
		{".docx", true},
		{".exe", false},
		{".png", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Supported(tc.ext); got != tc.want {
			t.Errorf("Supported(%q) = %v, want %v", tc.ext, got, tc.want)
		}
	}
}

func TestTextReadsPlainFile(t *testing.T) {
	t.Parallel()
	e := newTestExtractor(t, 0)

	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte("# Notes\n\nsome content\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := e.Text(context.Background(), path)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "# Notes\n\nsome content" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestTextTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()
	e := newTestExtractor(t, 4)

	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("héllo wörld"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := e.Text(context.Background(), path)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "héll" {
		t.Errorf("expected rune-safe cut %q, got %q", "héll", got)
	}
}

func TestTextRejectsInvalidUTF8(t *testing.T) {
	t.Parallel()
	e := newTestExtractor(t, 0)

	path := filepath.Join(t.TempDir(), "binaryish.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x41}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := e.Text(context.Background(), path); err == nil {
		t.Error("expected error for invalid UTF-8 content")
	}
}

func TestTextUnsupportedExtension(t *testing.T) {
	t.Parallel()
	e := newTestExtractor(t, 0)

	_, err := e.Text(context.Background(), "/tmp/image.png")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported-type error, got %v", err)
	}
}

func TestTextMissingFile(t *testing.T) {
	t.Parallel()
	e := newTestExtractor(t, 0)

	if _, err := e.Text(context.Background(), filepath.Join(t.TempDir(), "gone.md")); err == nil {
		t.Error("expected error for missing file")
	}
}
