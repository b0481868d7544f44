package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"reposter/internal/fetch"
	"reposter/pkg/textutil"
)

const gcsScheme = "gs://"

var ErrInvalidURI = errors.New("invalid gs:// URI")

type objectOpener func(ctx context.Context, bucket, object string) (io.ReadCloser, error)

// GCSStorage pulls source videos out of Cloud Storage into the local
// downloads directory.
type GCSStorage struct {
	client        *storage.Client
	defaultBucket string
	localDir      string
	open          objectOpener
}

func NewGCSStorage(ctx context.Context, defaultBucket, localDir string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	s := &GCSStorage{
		client:        client,
		defaultBucket: defaultBucket,
		localDir:      localDir,
	}
	s.open = s.openObject
	return s, nil
}

func (s *GCSStorage) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Fetch downloads the object named by uri. A bare object name resolves
// against the default bucket.
func (s *GCSStorage) Fetch(ctx context.Context, uri string, _ fetch.Profile) (*fetch.Result, error) {
	bucket, object, err := s.resolve(uri)
	if err != nil {
		return nil, err
	}
	if object == "" || strings.HasSuffix(object, "/") {
		return nil, fmt.Errorf("%w: %s names a prefix, not an object", ErrInvalidURI, uri)
	}

	name := textutil.SanitizeFilename(path.Base(object))
	if name == "" {
		name = "object" + filepath.Ext(object)
	}
	localPath, err := textutil.SafePath(filepath.Join(s.localDir, name))
	if err != nil {
		return nil, err
	}

	if err := s.download(ctx, bucket, object, localPath); err != nil {
		return nil, err
	}

	return &fetch.Result{
		Path:  localPath,
		ID:    strings.TrimSuffix(filepath.Base(localPath), filepath.Ext(localPath)),
		Title: strings.TrimSuffix(path.Base(object), path.Ext(object)),
	}, nil
}

// List expands a gs://bucket/prefix/ URI into the video objects below it.
func (s *GCSStorage) List(ctx context.Context, uri string) ([]string, error) {
	bucket, prefix, err := s.resolve(uri)
	if err != nil {
		return nil, err
	}

	var uris []string
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if IsVideo(attrs.Name) {
			uris = append(uris, gcsScheme+bucket+"/"+attrs.Name)
		}
	}

	return uris, nil
}

func (s *GCSStorage) resolve(uri string) (string, string, error) {
	if strings.HasPrefix(uri, gcsScheme) {
		return ParseURI(uri)
	}
	if s.defaultBucket == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket and GCS_BUCKET is unset", ErrInvalidURI, uri)
	}
	return s.defaultBucket, strings.TrimPrefix(uri, "/"), nil
}

func (s *GCSStorage) download(ctx context.Context, bucket, object, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	r, err := s.open(ctx, bucket, object)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("failed to download file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close local file: %w", err)
	}

	slog.Debug("Downloaded object", "bucket", bucket, "object", object, "path", localPath)
	return nil
}

func (s *GCSStorage) openObject(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return s.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// ParseURI splits gs://bucket/object into its parts. The object may be empty.
func ParseURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURI, uri)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket", ErrInvalidURI, uri)
	}
	return bucket, object, nil
}
