package textutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxFilenameLength bounds SanitizeFilename output, extension included.
	MaxFilenameLength = 200

	DefaultTitleTemplate = "Short {number}"
	numberPlaceholder    = "{number}"
)

var (
	hashtagRegex    = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	nonASCII = runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })
)

// CleanTitle strips hashtags and collapses runs of whitespace.
func CleanTitle(title string) string {
	title = hashtagRegex.ReplaceAllString(title, "")
	title = whitespaceRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// ExpandTitle substitutes the 1-based ordinal into a title template.
func ExpandTitle(template string, n int) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTitleTemplate
	}
	return strings.ReplaceAll(template, numberPlaceholder, strconv.Itoa(n))
}

// SanitizeFilename keeps letters, digits, space, '-', '_' and '.', folds the
// result to ASCII and truncates it to MaxFilenameLength keeping the extension.
func SanitizeFilename(name string) string {
	name = keepAllowed(name)
	// Chained transformers carry state, so build one per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(nonASCII))
	folded, _, err := transform.String(fold, name)
	if err == nil {
		name = keepAllowed(folded)
	}

	if len(name) <= MaxFilenameLength {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) >= MaxFilenameLength {
		return name[:MaxFilenameLength]
	}
	stem := strings.TrimSuffix(name, ext)
	return stem[:MaxFilenameLength-len(ext)] + ext
}

func keepAllowed(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) ||
			r == ' ' || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SafePath returns path unchanged when nothing exists there, otherwise the
// first of <stem>_1<ext>, <stem>_2<ext>, ... that is free.
func SafePath(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidate := path
	for counter := 1; ; counter++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, counter, ext)
	}
}
