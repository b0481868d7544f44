package app

import (
	"errors"
	"fmt"
)

var ErrSubmissionRejected = errors.New("submission rejected")

var (
	ErrNotAuthenticated  = fmt.Errorf("%w: not logged in to YouTube", ErrSubmissionRejected)
	ErrNoPlatform        = fmt.Errorf("%w: no source platform", ErrSubmissionRejected)
	ErrNoSources         = fmt.Errorf("%w: no sources", ErrSubmissionRejected)
	ErrUnknownPlatform   = fmt.Errorf("%w: unknown platform", ErrSubmissionRejected)
	ErrInvalidVisibility = fmt.Errorf("%w: unknown visibility", ErrSubmissionRejected)
)

type Stage string

const (
	StageFetch      Stage = "fetch"
	StageScrub      Stage = "scrub"
	StagePublish    Stage = "publish"
	StageUnexpected Stage = "unexpected"
)

// StageError is a job failure tagged with the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, url string, err error) error {
	return &StageError{Stage: stage, URL: url, Err: err}
}
