package resolver

import (
	"errors"
	"fmt"

	"github.com/vidfetch/vidfetch/manifest"
)

// Kind tags which variant a Resolution holds.
type Kind int

const (
	KindManifest Kind = iota + 1
	KindDirectMedia
)

func (k Kind) String() string {
	switch k {
	case KindManifest:
		return "manifest"
	case KindDirectMedia:
		return "direct-media"
	default:
		return "unknown"
	}
}

// Resolution is either a parsed manifest or a direct media URL discovered on the page.
// A direct media URL means the caller should hand it to the generic extractor
// instead of downloading segments.
type Resolution struct {
	kind     Kind
	manifest *manifest.Manifest
	mediaURL string
}

// ManifestResolution wraps a parsed manifest.
func ManifestResolution(m *manifest.Manifest) Resolution {
	return Resolution{kind: KindManifest, manifest: m}
}

// DirectMediaResolution wraps a media URL found while resolving.
func DirectMediaResolution(url string) Resolution {
	return Resolution{kind: KindDirectMedia, mediaURL: url}
}

func (r Resolution) Kind() Kind {
	return r.kind
}

// Manifest returns the manifest variant.
func (r Resolution) Manifest() (*manifest.Manifest, bool) {
	return r.manifest, r.kind == KindManifest
}

// DirectMedia returns the direct media variant.
func (r Resolution) DirectMedia() (string, bool) {
	return r.mediaURL, r.kind == KindDirectMedia
}

var (
	// ErrUnresolvable is returned when every strategy was tried without a result.
	ErrUnresolvable = errors.New("no strategy could locate a manifest")
	// ErrManifestUnavailable is returned when the manifest itself could not be fetched.
	// It is joined with the fetcher.Failure that caused it.
	ErrManifestUnavailable = errors.New("manifest could not be fetched")
)

// Error carries the URL that failed to resolve.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
