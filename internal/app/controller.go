package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"reposter/internal/activity"
	"reposter/internal/app/model"
	"reposter/pkg/textutil"
)

// Controller validates submissions, turns them into jobs and hands them to
// the worker.
type Controller struct {
	auth   Authenticator
	worker *Worker
	log    activity.Emitter
}

func NewController(auth Authenticator, worker *Worker, log activity.Emitter) *Controller {
	return &Controller{auth: auth, worker: worker, log: log}
}

// Submit enqueues one job per non-blank source and returns how many were
// queued. A rejected submission enqueues nothing and logs one error line.
func (c *Controller) Submit(batch model.Batch) (int, error) {
	jobs, err := c.buildJobs(batch)
	if err != nil {
		c.log.Emit(rejectionMessage(err), activity.LevelError)
		return 0, err
	}

	c.log.Emit(fmt.Sprintf("Processing %d videos for upload...", len(jobs)), activity.LevelInfo)

	started := c.worker.enqueue(jobs)
	slog.Debug("Submitted batch", "jobs", len(jobs), "platform", batch.Platform, "started", started)
	return len(jobs), nil
}

func (c *Controller) buildJobs(batch model.Batch) ([]model.Job, error) {
	if c.auth == nil || !c.auth.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	if batch.Platform == "" {
		return nil, ErrNoPlatform
	}
	if !knownPlatform(batch.Platform) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, batch.Platform)
	}

	visibility := batch.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	if visibility != model.VisibilityPrivate && visibility != model.VisibilityPublic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVisibility, batch.Visibility)
	}

	var jobs []model.Job
	for _, source := range batch.Sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		ordinal := len(jobs) + 1
		jobs = append(jobs, model.Job{
			Ordinal:     ordinal,
			SourceURL:   source,
			Platform:    batch.Platform,
			Title:       textutil.ExpandTitle(batch.TitleTemplate, ordinal),
			Description: batch.Description,
			Visibility:  visibility,
		})
	}
	if len(jobs) == 0 {
		return nil, ErrNoSources
	}

	return jobs, nil
}

func knownPlatform(p model.Platform) bool {
	for _, known := range model.Platforms {
		if p == known {
			return true
		}
	}
	return false
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "Please login to YouTube first"
	case errors.Is(err, ErrNoPlatform):
		return "Please select a source platform"
	case errors.Is(err, ErrNoSources):
		return "Please provide at least one URL or file"
	default:
		return "Submission rejected: " + strings.TrimPrefix(err.Error(), ErrSubmissionRejected.Error()+": ")
	}
}
