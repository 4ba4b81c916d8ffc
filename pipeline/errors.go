package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vidfetch/vidfetch/extractor"
	"github.com/vidfetch/vidfetch/fetcher"
	"github.com/vidfetch/vidfetch/resolver"
)

// EscalationError is returned when the extractor and the manifest path both failed.
type EscalationError struct {
	URL       string
	Extractor error
	Fallback  error
}

func (e *EscalationError) Error() string {
	return fmt.Sprintf("could not download %s\nextractor: %v\nmanifest: %v", e.URL, e.Extractor, e.Fallback)
}

func (e *EscalationError) Unwrap() []error {
	return []error{e.Extractor, e.Fallback}
}

// Hint returns advice for the most likely cause of err, or "" when there is none.
func Hint(err error) string {
	if err == nil {
		return ""
	}

	var lines []string
	switch {
	case errors.Is(err, fetcher.FailureAccessDenied):
		lines = []string{
			"The site refused access (403 Forbidden). Possible causes:",
			"1. the site requires specific headers or a cookie (vidfetch cookie set)",
			"2. the site detected automated access (try fetch.fingerprint = true)",
			"3. the video requires a logged in account",
		}
	case errors.Is(err, fetcher.FailureNotFound):
		lines = []string{
			"The video resource was not found (404 Not Found). Possible causes:",
			"1. the video was deleted",
			"2. the URL is malformed",
			"3. the video identifier could not be extracted (try --id)",
		}
	case errors.Is(err, resolver.ErrManifestUnavailable):
		lines = []string{
			"The manifest could not be fetched. Possible causes:",
			"1. the video was deleted",
			"2. the manifest server is unavailable",
			"3. a network problem (check fetch.proxy or retry later)",
		}
	case errors.Is(err, resolver.ErrUnresolvable):
		lines = []string{
			"No manifest could be located on the page.",
			"Pass the video identifier with --id if you know it.",
		}
	}

	if errors.Is(err, extractor.ErrNotInstalled) {
		lines = append(lines, "yt-dlp was not found, run `vidfetch doctor --install`.")
	}

	return strings.Join(lines, "\n")
}
