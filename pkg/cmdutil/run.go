package cmdutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunFunc runs an external program and returns its stdout.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run executes name with args. On failure the error carries stderr, trimmed
// to the last few lines since ffmpeg and yt-dlp are chatty.
func Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, tail(stderr.String(), 5))
	}

	return stdout.Bytes(), nil
}

// Exists reports whether name resolves to an executable on PATH.
func Exists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
