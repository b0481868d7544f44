package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"reposter/pkg/cmdutil"
	"reposter/pkg/textutil"
)

const (
	DefaultBinary   = "yt-dlp"
	probeTimeout    = 2 * time.Minute
	downloadTimeout = 15 * time.Minute
)

var (
	ErrNoID         = errors.New("probe returned no media id")
	ErrFileNotFound = errors.New("download completed but file not found")
)

// Partial and bookkeeping files yt-dlp leaves next to the real output.
var skippedSuffixes = []string{".part", ".ytdl", ".temp"}

type Info struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// YtDlp downloads media by shelling out to the yt-dlp executable.
type YtDlp struct {
	binaryPath string
	outputDir  string
	run        cmdutil.RunFunc
	newID      func() string
}

func NewYtDlp(binaryPath, outputDir string) *YtDlp {
	if binaryPath == "" {
		binaryPath = DefaultBinary
	}
	return &YtDlp{
		binaryPath: binaryPath,
		outputDir:  outputDir,
		run:        cmdutil.Run,
		newID:      uuid.NewString,
	}
}

// Fetch probes the URL for its media id, falling back to a generated id when
// the probe fails, then downloads into the output directory under that name.
func (d *YtDlp) Fetch(ctx context.Context, url string, profile Profile) (*Result, error) {
	result := &Result{}

	info, err := d.Probe(ctx, url, profile)
	switch {
	case err != nil:
		result.ProbeErr = err
	case textutil.SanitizeFilename(info.ID) == "":
		result.ProbeErr = ErrNoID
	default:
		result.ID = textutil.SanitizeFilename(info.ID)
		result.Title = info.Title
	}

	if result.Fallback() {
		result.ID = d.newID()
		slog.Warn("Metadata probe failed, using generated name", "url", url, "id", result.ID, "error", result.ProbeErr)
	}

	stem, err := d.claimStem(result.ID)
	if err != nil {
		return nil, err
	}

	path, err := d.Download(ctx, url, stem, profile)
	if err != nil {
		return nil, err
	}
	result.Path = path

	return result, nil
}

func (d *YtDlp) Probe(ctx context.Context, url string, profile Profile) (*Info, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{"--dump-single-json", "--skip-download", "--no-warnings"}
	args = append(args, profileArgs(profile)...)
	args = append(args, "--", url)

	out, err := d.run(ctx, d.binaryPath, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to probe media info: %w", err)
	}

	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse media info: %w", err)
	}

	return &info, nil
}

// Download saves the media as <outputDir>/<stem>.<ext> and returns that path.
func (d *YtDlp) Download(ctx context.Context, url, stem string, profile Profile) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	if err := os.MkdirAll(d.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	format := profile.Format
	if format == "" {
		format = "best"
	}

	args := []string{
		"-f", format,
		"-o", filepath.Join(d.outputDir, stem+".%(ext)s"),
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
	}
	args = append(args, profileArgs(profile)...)
	args = append(args, "--", url)

	slog.Debug("Downloading media", "url", url, "stem", stem)
	if _, err := d.run(ctx, d.binaryPath, args...); err != nil {
		return "", fmt.Errorf("failed to download media: %w", err)
	}

	return d.findOutput(stem)
}

func (d *YtDlp) findOutput(stem string) (string, error) {
	matches, err := d.matching(stem)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrFileNotFound
	}
	return filepath.Join(d.outputDir, matches[0]), nil
}

// claimStem returns stem, or stem_N when a file with that prefix already
// exists, so a leftover from an earlier run is never picked up.
func (d *YtDlp) claimStem(stem string) (string, error) {
	candidate := stem
	for i := 1; ; i++ {
		matches, err := d.matching(candidate)
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", stem, i)
	}
}

func (d *YtDlp) matching(stem string) ([]string, error) {
	entries, err := os.ReadDir(d.outputDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read download directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, stem+".") || skipped(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func skipped(name string) bool {
	for _, suffix := range skippedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func profileArgs(profile Profile) []string {
	var args []string

	for _, key := range sortedKeys(profile.Headers) {
		args = append(args, "--add-header", key+":"+profile.Headers[key])
	}

	if profile.Extractor != "" && len(profile.ExtractorArgs) > 0 {
		pairs := make([]string, 0, len(profile.ExtractorArgs))
		for _, key := range sortedKeys(profile.ExtractorArgs) {
			pairs = append(pairs, key+"="+profile.ExtractorArgs[key])
		}
		args = append(args, "--extractor-args", profile.Extractor+":"+strings.Join(pairs, ";"))
	}

	if profile.FlatExtract {
		args = append(args, "--flat-playlist")
	}

	return args
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
