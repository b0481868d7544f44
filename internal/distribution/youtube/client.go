package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const (
	DefaultCategoryID   = "22"
	fallbackTitleLayout = "2006-01-02 15:04:05"
	uploadChunkSize     = 8 * 1024 * 1024
)

var DefaultTags = []string{"Short"}

type PublishRequest struct {
	FilePath    string
	Title       string
	Description string
	Visibility  string
	Tags        []string
}

// Client publishes videos with the YouTube Data API.
type Client struct {
	auth       *Auth
	tags       []string
	categoryID string
	endpoint   string
	now        func() time.Time
}

func NewClient(auth *Auth, tags []string, categoryID string) *Client {
	if len(tags) == 0 {
		tags = DefaultTags
	}
	if categoryID == "" {
		categoryID = DefaultCategoryID
	}
	return &Client{
		auth:       auth,
		tags:       tags,
		categoryID: categoryID,
		now:        time.Now,
	}
}

// Publish uploads the file and returns the new video id.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (string, error) {
	if c.auth == nil {
		return "", ErrNoToken
	}

	httpClient, err := c.auth.Client(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get auth client: %w", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create YouTube service: %w", err)
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = file.Close() }()

	video := c.buildVideo(req)

	resp, err := service.Videos.
		Insert([]string{"snippet", "status"}, video).
		Media(file, googleapi.ChunkSize(uploadChunkSize)).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("upload rejected (%d): %s", apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("failed to upload video: %w", err)
	}
	if resp.Id == "" {
		return "", errors.New("upload returned no video id")
	}

	return resp.Id, nil
}

func (c *Client) buildVideo(req PublishRequest) *yt.Video {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Short - " + c.now().Format(fallbackTitleLayout)
	}

	tags := req.Tags
	if len(tags) == 0 {
		tags = c.tags
	}

	privacy := req.Visibility
	if privacy == "" {
		privacy = "private"
	}

	return &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       title,
			Description: req.Description,
			Tags:        tags,
			CategoryId:  c.categoryID,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
}

func WatchURL(videoID string) string {
	return "https://youtube.com/shorts/" + videoID
}
