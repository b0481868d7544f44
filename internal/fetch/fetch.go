// Package fetch turns a remote post URL into a local media file.
package fetch

import "context"

// Profile describes how yt-dlp should talk to one platform.
type Profile struct {
	Format        string            `yaml:"format"`
	Headers       map[string]string `yaml:"headers"`
	ExtractorArgs map[string]string `yaml:"extractor_args"`
	Extractor     string            `yaml:"extractor"`
	FlatExtract   bool              `yaml:"flat_extract"`
}

// Result is the outcome of one fetch. ProbeErr is set when the metadata probe
// failed and the file was named with a generated id instead.
type Result struct {
	Path     string
	ID       string
	Title    string
	ProbeErr error
}

// Fallback reports whether the output name was generated.
func (r *Result) Fallback() bool {
	return r.ProbeErr != nil
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, profile Profile) (*Result, error)
}
