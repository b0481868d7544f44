package textutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Funny cat", want: "Funny cat"},
		{name: "hashtags", input: "Funny cat #shorts #viral", want: "Funny cat"},
		{name: "hashtagInMiddle", input: "Best #fyp moment", want: "Best moment"},
		{name: "unicodeHashtag", input: "Café #café_time ok", want: "Café ok"},
		{name: "whitespace", input: "  lots   of\n\tspace  ", want: "lots of space"},
		{name: "onlyTags", input: "#a #b", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.input); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandTitle(t *testing.T) {
	tests := []struct {
		name     string
		template string
		n        int
		want     string
	}{
		{name: "default", template: "", n: 1, want: "Short 1"},
		{name: "blank", template: "   ", n: 2, want: "Short 2"},
		{name: "custom", template: "Clip #{number} of the day", n: 7, want: "Clip #7 of the day"},
		{name: "noPlaceholder", template: "Same title", n: 3, want: "Same title"},
		{name: "twice", template: "{number}/{number}", n: 4, want: "4/4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandTitle(tt.template, tt.n); got != tt.want {
				t.Errorf("ExpandTitle(%q, %d) = %q, want %q", tt.template, tt.n, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "disallowedChars", input: "a/b:c*d.mp4", want: "abcd.mp4"},
		{name: "keepsAllowed", input: "My clip-01_final.mp4", want: "My clip-01_final.mp4"},
		{name: "accentsFolded", input: "café déjà vu.mov", want: "cafe deja vu.mov"},
		{name: "emojiDropped", input: "🔥hot🔥.mp4", want: "hot.mp4"},
		{name: "cjkDropped", input: "動画.mp4", want: ".mp4"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameOnlyAllowedCharacters(t *testing.T) {
	got := SanitizeFilename(`we!rd<>|"?name©®™ 1½.mp4`)
	for _, r := range got {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == ' ' || r == '-' || r == '_' || r == '.'
		if !ok {
			t.Errorf("SanitizeFilename() kept disallowed rune %q in %q", r, got)
		}
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("a", 300) + ".mp4"

	got := SanitizeFilename(long)

	if len(got) > MaxFilenameLength {
		t.Errorf("len = %d, want <= %d", len(got), MaxFilenameLength)
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Errorf("extension lost: %q", got[len(got)-10:])
	}
	if got != strings.Repeat("a", 196)+".mp4" {
		t.Errorf("unexpected truncation result of length %d", len(got))
	}
}

func TestSanitizeFilenameTruncatesStemByExtensionLength(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"mp4", ".mp4"},
		{"webm", ".webm"},
		{"mkv", ".mkv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(strings.Repeat("c", 300) + tt.ext)
			want := strings.Repeat("c", MaxFilenameLength-len(tt.ext)) + tt.ext
			if got != want {
				t.Errorf("SanitizeFilename() length %d, want %d ending in %s", len(got), len(want), tt.ext)
			}
		})
	}
}

func TestSanitizeFilenameShortUnchangedLength(t *testing.T) {
	name := strings.Repeat("b", 196) + ".mp4"
	if got := SanitizeFilename(name); got != name {
		t.Errorf("200-character name should be kept as is, got length %d", len(got))
	}
}

func TestSafePath(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, "video.mp4")

	got, err := SafePath(base)
	if err != nil {
		t.Fatalf("SafePath() error: %v", err)
	}
	if got != base {
		t.Errorf("SafePath() on free path = %q, want %q", got, base)
	}

	_ = os.WriteFile(base, []byte("x"), 0644)
	got, err = SafePath(base)
	if err != nil {
		t.Fatalf("SafePath() error: %v", err)
	}
	if want := filepath.Join(tmpDir, "video_1.mp4"); got != want {
		t.Errorf("SafePath() = %q, want %q", got, want)
	}

	_ = os.WriteFile(filepath.Join(tmpDir, "video_1.mp4"), []byte("x"), 0644)
	_ = os.WriteFile(filepath.Join(tmpDir, "video_2.mp4"), []byte("x"), 0644)
	got, err = SafePath(base)
	if err != nil {
		t.Fatalf("SafePath() error: %v", err)
	}
	if want := filepath.Join(tmpDir, "video_3.mp4"); got != want {
		t.Errorf("SafePath() = %q, want %q", got, want)
	}
}

func TestSafePathNoExtension(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, "clip")
	_ = os.WriteFile(base, []byte("x"), 0644)

	got, err := SafePath(base)
	if err != nil {
		t.Fatalf("SafePath() error: %v", err)
	}
	if want := filepath.Join(tmpDir, "clip_1"); got != want {
		t.Errorf("SafePath() = %q, want %q", got, want)
	}
}
