package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"reposter/internal/activity"
	"reposter/internal/app/model"
	"reposter/internal/distribution/youtube"
	"reposter/internal/fetch"
	"reposter/pkg/textutil"
)

// TitlePlaceholder in a job title is replaced by the source post's own title
// once it is known, with hashtags stripped.
const TitlePlaceholder = "{title}"

var (
	errObjectsDisabled = errors.New("cloud storage source is not configured")
	errNotRegularFile  = errors.New("not a regular file")
)

type workingFile struct {
	path        string
	sourceTitle string
	owned       bool
}

// Process runs fetch, scrub, publish and cleanup for one job. Every returned
// error is a *StageError. A failed cleanup is reported as a warning only.
func (s *Service) Process(ctx context.Context, job model.Job) (string, error) {
	file, err := s.acquire(ctx, job)
	if err != nil {
		return "", stageErr(StageFetch, job.SourceURL, err)
	}

	if file.owned {
		s.log.Emit("Cleaning video metadata...", activity.LevelInfo)
		if _, err := s.scrubber.Scrub(ctx, file.path); err != nil {
			return "", stageErr(StageScrub, job.SourceURL, err)
		}
		s.log.Emit("Metadata cleaning completed", activity.LevelInfo)
	}

	s.log.Emit("Preparing upload to YouTube...", activity.LevelInfo)
	s.log.Emit("Uploading video...", activity.LevelInfo)
	videoID, err := s.publisher.Publish(ctx, youtube.PublishRequest{
		FilePath:    file.path,
		Title:       resolveTitle(job.Title, file.sourceTitle),
		Description: job.Description,
		Visibility:  string(job.Visibility),
	})
	if err != nil {
		return "", stageErr(StagePublish, job.SourceURL, err)
	}

	if file.owned {
		if err := s.files.Remove(file.path); err != nil {
			s.log.Emit(fmt.Sprintf("Could not remove working file %s: %v", file.path, err), activity.LevelWarning)
		}
	}

	return videoID, nil
}

func (s *Service) acquire(ctx context.Context, job model.Job) (*workingFile, error) {
	switch {
	case job.Platform.IsLocal():
		s.log.Emit("Using local file...", activity.LevelInfo)
		info, err := os.Stat(job.SourceURL)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s: %w", job.SourceURL, errNotRegularFile)
		}
		return &workingFile{path: job.SourceURL}, nil

	case job.Platform == model.PlatformGCS:
		if s.objects == nil {
			return nil, errObjectsDisabled
		}
		s.log.Emit(fmt.Sprintf("Downloading video from %s...", job.Platform.Label()), activity.LevelInfo)
		result, err := s.objects.Fetch(ctx, job.SourceURL, fetch.Profile{})
		if err != nil {
			return nil, err
		}
		s.log.Emit("Download completed: "+result.Path, activity.LevelInfo)
		return &workingFile{path: result.Path, sourceTitle: result.Title, owned: true}, nil

	case job.Platform.IsRemote():
		s.log.Emit(fmt.Sprintf("Downloading video from %s...", job.Platform.Label()), activity.LevelInfo)
		result, err := s.fetcher.Fetch(ctx, job.SourceURL, s.profiles[job.Platform])
		if err != nil {
			return nil, err
		}
		if result.Fallback() {
			s.log.Emit(fmt.Sprintf("Could not extract video info, using generated name: %v", result.ProbeErr), activity.LevelWarning)
		}
		slog.Debug("Fetched media", "url", job.SourceURL, "path", result.Path)
		s.log.Emit("Download completed: "+result.Path, activity.LevelInfo)
		return &workingFile{path: result.Path, sourceTitle: result.Title, owned: true}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, job.Platform)
	}
}

func resolveTitle(title, sourceTitle string) string {
	if !strings.Contains(title, TitlePlaceholder) {
		return title
	}
	return textutil.CleanTitle(strings.ReplaceAll(title, TitlePlaceholder, sourceTitle))
}
