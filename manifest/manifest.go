// Package manifest models a resolved M3U8 playlist as an ordered list of segments
// and knows how to build the URLs those segments are served from.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/mo"
	"github.com/vidfetch/vidfetch/constant"
)

// ErrInvalidManifest is returned when a manifest has no recognizable segment lines.
var ErrInvalidManifest = errors.New("manifest contains no .ts or .m4s segments")

// Manifest is the result of resolving a page or identifier to a stream playlist.
// It is consumed once by the downloader and never persisted.
type Manifest struct {
	ManifestURL string `json:"manifest_url" jsonschema:"description=Absolute URL the playlist was fetched from."`
	Identifier  string `json:"identifier" jsonschema:"description=Site specific key used to build CDN paths."`
	// BaseURL is set when the playlist was fetched directly. Segment names are appended to it.
	BaseURL  mo.Option[string] `json:"base_url" jsonschema:"type=string,description=Prefix for segment URLs when the playlist was fetched directly."`
	Segments []string          `json:"segments" jsonschema:"description=Segment names in playback order."`
	Title    string            `json:"title" jsonschema:"description=Synthesized title used for the output file."`
}

// URLFor builds the identifier-keyed manifest URL: {cdnBase}/m3u8/{id}/{id}.m3u8.
func URLFor(cdnBase, id string) string {
	return fmt.Sprintf("%s/m3u8/%s/%s%s", NormalizeBase(cdnBase), id, id, constant.ExtM3U8)
}

// NormalizeBase strips trailing slashes from a CDN base URL.
func NormalizeBase(cdnBase string) string {
	return strings.TrimRight(strings.TrimSpace(cdnBase), "/")
}

// ParentURL returns the directory of rawURL's path with a trailing "/".
// The query and fragment are dropped.
func ParentURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return u.ResolveReference(&url.URL{Path: "./"}).String()
	}

	path, _, _ := strings.Cut(rawURL, "?")
	path, _, _ = strings.Cut(path, "#")
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i+1]
}

// SegmentURL returns the absolute URL of the i-th segment.
// With a base URL the segment is appended to it; otherwise it lives at {cdnBase}/m3u8/{id}/{segment}.
func (m *Manifest) SegmentURL(cdnBase string, i int) string {
	segment := m.Segments[i]
	if base, ok := m.BaseURL.Get(); ok {
		return base + segment
	}
	return fmt.Sprintf("%s/m3u8/%s/%s", NormalizeBase(cdnBase), m.Identifier, segment)
}

// SegmentURLs returns every segment URL in playback order.
func (m *Manifest) SegmentURLs(cdnBase string) []string {
	urls := make([]string, len(m.Segments))
	for i := range m.Segments {
		urls[i] = m.SegmentURL(cdnBase, i)
	}
	return urls
}

// ParseSegments extracts segment entries from playlist text, preserving order.
// Lines are matched by suffix: .ts first, then .m4s when no .ts entry exists.
// Directives and blank lines are ignored.
func ParseSegments(text string) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	for _, ext := range []string{constant.ExtTS, constant.ExtM4S} {
		var segments []string
		for _, line := range lines {
			if hasExt(line, ext) {
				segments = append(segments, line)
			}
		}

		if len(segments) > 0 {
			return segments, nil
		}
	}

	return nil, ErrInvalidManifest
}

// hasExt reports whether the path of a segment line ends in ext, ignoring any query or fragment.
func hasExt(line, ext string) bool {
	path := line
	if u, err := url.Parse(line); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(line, "?#"); i >= 0 {
		path = line[:i]
	}
	return strings.HasSuffix(strings.ToLower(path), ext)
}
