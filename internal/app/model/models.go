package model

import (
	"fmt"
	"strings"
)

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
	PlatformLocal     Platform = "local"
	PlatformGCS       Platform = "gcs"
)

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

type Platform string

type Visibility string

// Platforms lists every source platform in the order the upload form shows them.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformFacebook,
	PlatformTikTok,
	PlatformLocal,
	PlatformGCS,
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "local file", "file":
		return PlatformLocal, nil
	}
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

func (p Platform) IsLocal() bool { return p == PlatformLocal }

// IsRemote reports whether media for the platform is pulled with yt-dlp.
func (p Platform) IsRemote() bool {
	return p == PlatformInstagram || p == PlatformFacebook || p == PlatformTikTok
}

func (p Platform) Label() string {
	switch p {
	case PlatformInstagram:
		return "Instagram"
	case PlatformFacebook:
		return "Facebook"
	case PlatformTikTok:
		return "TikTok"
	case PlatformLocal:
		return "Local File"
	case PlatformGCS:
		return "Cloud Storage"
	default:
		return string(p)
	}
}

func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VisibilityPrivate, nil
	case VisibilityPrivate, VisibilityPublic:
		return v, nil
	default:
		return "", fmt.Errorf("unknown visibility %q", s)
	}
}

// Job is one source plus its publish parameters. Jobs are passed by value and
// never modified after they are queued.
type Job struct {
	Ordinal     int
	SourceURL   string
	Platform    Platform
	Title       string
	Description string
	Visibility  Visibility
}

// Batch is the raw input of one submission.
type Batch struct {
	Platform      Platform
	Sources       []string
	TitleTemplate string
	Description   string
	Visibility    Visibility
}
