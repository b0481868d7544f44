package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSplitSources(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"blankLines", "\n  \n\t\n", nil},
		{"trimmed", "  https://a \nhttps://b\n\n", []string{"https://a", "https://b"}},
		{"windowsLineEndings", "https://a\r\nhttps://b\r\n", []string{"https://a", "https://b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSources(tt.raw)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitSources(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# reels to repost\nhttps://www.instagram.com/reel/a/\n\n  https://www.instagram.com/reel/b/  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readSources(path)
	if err != nil {
		t.Fatalf("readSources() error: %v", err)
	}

	want := []string{"https://www.instagram.com/reel/a/", "https://www.instagram.com/reel/b/"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("readSources() = %q, want %q", got, want)
	}

	if _, err := readSources(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("readSources() should fail for a missing file")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "public", "private"); got != "public" {
		t.Errorf("firstNonEmpty() = %q, want public", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestWaitForCompletion(t *testing.T) {
	t.Run("done", func(t *testing.T) {
		done := make(chan struct{}, 1)
		done <- struct{}{}
		if err := waitForCompletion(context.Background(), done); err != nil {
			t.Errorf("waitForCompletion() error = %v, want nil", err)
		}
	})

	t.Run("cancelledBeforeDrain", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result := make(chan error, 1)
		go func() { result <- waitForCompletion(ctx, make(chan struct{})) }()

		select {
		case err := <-result:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("waitForCompletion() error = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("waitForCompletion() ignored the cancelled context")
		}
	})
}
