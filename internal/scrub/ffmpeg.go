// Package scrub re-encodes media without container metadata.
package scrub

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"reposter/pkg/cmdutil"
)

const (
	DefaultBinary = "ffmpeg"
	VideoCodec    = "libx264"
	AudioCodec    = "aac"
	tempPrefix    = "clean_"
)

type Scrubber interface {
	Scrub(ctx context.Context, path string) (string, error)
}

type FFmpeg struct {
	ffmpegPath string
	run        cmdutil.RunFunc
	newID      func() string
}

func NewFFmpeg(ffmpegPath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = DefaultBinary
	}
	return &FFmpeg{
		ffmpegPath: ffmpegPath,
		run:        cmdutil.Run,
		newID:      uuid.NewString,
	}
}

// Scrub re-encodes path to a clean_<id> sibling with all metadata dropped,
// then moves it over the original. The returned path equals the input.
func (f *FFmpeg) Scrub(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("failed to stat input: %w", err)
	}

	tempPath := filepath.Join(filepath.Dir(path), tempPrefix+f.newID()+filepath.Ext(path))

	if _, err := f.run(ctx, f.ffmpegPath, Args(path, tempPath)...); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to strip metadata: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to replace original: %w", err)
	}

	slog.Debug("Stripped metadata", "path", path)
	return path, nil
}

func Args(input, output string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-i", input,
		"-map_metadata", "-1",
		"-c:v", VideoCodec,
		"-c:a", AudioCodec,
		output,
	}
}
