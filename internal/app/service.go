package app

import (
	"context"

	"reposter/internal/activity"
	"reposter/internal/app/model"
	"reposter/internal/distribution/youtube"
	"reposter/internal/fetch"
	"reposter/internal/scrub"
)

type Authenticator interface {
	IsAuthenticated() bool
}

type Publisher interface {
	Publish(ctx context.Context, req youtube.PublishRequest) (string, error)
}

// WorkingFiles removes files the pipeline created.
type WorkingFiles interface {
	Remove(path string) error
}

// Processor runs one job end to end and returns the published video id.
type Processor interface {
	Process(ctx context.Context, job model.Job) (string, error)
}

type Service struct {
	fetcher   fetch.Fetcher
	objects   fetch.Fetcher
	scrubber  scrub.Scrubber
	publisher Publisher
	files     WorkingFiles
	profiles  map[model.Platform]fetch.Profile
	log       activity.Emitter
}

type ServiceOptions struct {
	// Fetcher serves the remote platforms.
	Fetcher fetch.Fetcher
	// Objects serves gs:// sources; nil disables them.
	Objects   fetch.Fetcher
	Scrubber  scrub.Scrubber
	Publisher Publisher
	Files     WorkingFiles
	Profiles  map[model.Platform]fetch.Profile
	Log       activity.Emitter
}

func NewService(opts ServiceOptions) *Service {
	profiles := opts.Profiles
	if profiles == nil {
		profiles = make(map[model.Platform]fetch.Profile)
	}
	return &Service{
		fetcher:   opts.Fetcher,
		objects:   opts.Objects,
		scrubber:  opts.Scrubber,
		publisher: opts.Publisher,
		files:     opts.Files,
		profiles:  profiles,
		log:       opts.Log,
	}
}
