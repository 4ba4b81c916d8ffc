// Package resolver turns a page URL, or an explicit identifier, into a parsed manifest
// by trying a fixed chain of strategies.
package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/fetcher"
	"github.com/vidfetch/vidfetch/manifest"
)

// ManifestRetries is the retry budget for manifest fetches.
const ManifestRetries = 3

// Fetcher is the subset of fetcher.Fetcher the resolver needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts ...fetcher.Option) fetcher.Result
}

// Config is used to construct a Resolver.
type Config struct {
	Fetcher Fetcher
	CDNBase string
	Logger  logrus.FieldLogger
	// Now stamps titles of directly fetched manifests.
	Now func() time.Time
}

// Resolver runs the strategy chain. It is stateless between calls.
type Resolver struct {
	fetcher Fetcher
	cdnBase string
	log     logrus.FieldLogger
	now     func() time.Time
}

// New constructs a Resolver from config.
func New(config Config) *Resolver {
	r := &Resolver{
		fetcher: config.Fetcher,
		cdnBase: manifest.NormalizeBase(config.CDNBase),
		log:     config.Logger,
		now:     config.Now,
	}

	if r.cdnBase == "" {
		r.cdnBase = constant.DefaultCDNBase
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	if r.now == nil {
		r.now = time.Now
	}

	return r
}

// CDNBase returns the normalized CDN base URL.
func (r *Resolver) CDNBase() string {
	return r.cdnBase
}

var (
	mp4Pattern       = regexp.MustCompile(`https?://[^\s"'<>]+\.mp4[^\s"'<>]*`)
	pathIDPattern    = regexp.MustCompile(`/(\d{6,})`)
	elementIDPattern = regexp.MustCompile(`\d{6,}`)
	anyDigitsPattern = regexp.MustCompile(`\d+`)
)

// IdentifierParam is the query parameter carrying a video identifier.
const IdentifierParam = "viewkey"

// strategy yields an identifier or a finished resolution. ok=false falls through to the next one.
type strategy struct {
	name string
	run  func(ctx context.Context, a *attempt) (id string, res Resolution, ok bool)
}

// attempt holds per-call state: the page is fetched at most once.
type attempt struct {
	pageURL string
	parsed  *url.URL
	fetched bool
	body    string
	doc     *goquery.Document
}

// Resolve runs the strategy chain for pageURL. A non-empty identifier skips discovery.
//
// The order is fixed: explicit identifier, direct media sniff, viewkey query parameter,
// numeric path segment, identifier embedded in the page, and finally the URL itself
// when it already points at a manifest. The first strategy that produces something wins.
func (r *Resolver) Resolve(ctx context.Context, pageURL, identifier string) (Resolution, error) {
	log := r.log.WithField("url", pageURL)

	if identifier = strings.TrimSpace(identifier); identifier != "" {
		log.Infof("using explicit identifier %s", identifier)
		return r.resolveIdentifier(ctx, identifier)
	}

	a := &attempt{pageURL: pageURL}
	if parsed, err := url.Parse(pageURL); err == nil {
		a.parsed = parsed
	}

	for _, s := range r.strategies() {
		if err := ctx.Err(); err != nil {
			return Resolution{}, &Error{URL: pageURL, Err: err}
		}

		log.Debugf("trying strategy %q", s.name)
		id, res, ok := s.run(ctx, a)
		if !ok {
			continue
		}

		if res.Kind() != 0 {
			log.Infof("strategy %q resolved to %s", s.name, res.Kind())
			return res, nil
		}

		log.Infof("strategy %q found identifier %s", s.name, id)
		return r.resolveIdentifier(ctx, id)
	}

	if strings.Contains(strings.ToLower(pageURL), constant.ExtM3U8) {
		log.Info("treating the URL as a manifest")
		m, err := r.ResolveManifestURL(ctx, pageURL)
		if err != nil {
			return Resolution{}, err
		}
		return ManifestResolution(m), nil
	}

	return Resolution{}, &Error{URL: pageURL, Err: ErrUnresolvable}
}

func (r *Resolver) strategies() []strategy {
	return []strategy{
		{"direct media", r.sniffDirectMedia},
		{"query parameter", queryIdentifier},
		{"numeric path", pathIdentifier},
		{"page element", r.pageIdentifier},
	}
}

func (r *Resolver) resolveIdentifier(ctx context.Context, id string) (Resolution, error) {
	m, err := r.ResolveIdentifier(ctx, id)
	if err != nil {
		return Resolution{}, err
	}
	return ManifestResolution(m), nil
}

// ResolveIdentifier fetches {cdnBase}/m3u8/{id}/{id}.m3u8 and parses its segments.
func (r *Resolver) ResolveIdentifier(ctx context.Context, id string) (*manifest.Manifest, error) {
	manifestURL := manifest.URLFor(r.cdnBase, id)

	segments, err := r.fetchSegments(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	r.log.WithField("url", manifestURL).Infof("parsed manifest for %s: %d segments", id, len(segments))
	return &manifest.Manifest{
		ManifestURL: manifestURL,
		Identifier:  id,
		Segments:    segments,
		Title:       "Video_" + id,
	}, nil
}

// ResolveManifestURL fetches a manifest by its own URL. Segments are resolved against its parent path.
func (r *Resolver) ResolveManifestURL(ctx context.Context, manifestURL string) (*manifest.Manifest, error) {
	segments, err := r.fetchSegments(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	name := "M3U8_" + strconv.FormatInt(r.now().Unix(), 10)
	r.log.WithField("url", manifestURL).Infof("parsed manifest: %d segments", len(segments))

	return &manifest.Manifest{
		ManifestURL: manifestURL,
		Identifier:  name,
		BaseURL:     mo.EmptyableToOption(manifest.ParentURL(manifestURL)),
		Segments:    segments,
		Title:       name,
	}, nil
}

func (r *Resolver) fetchSegments(ctx context.Context, manifestURL string) ([]string, error) {
	result := r.fetcher.Fetch(ctx, manifestURL, fetcher.AsText(), fetcher.WithRetries(ManifestRetries))
	if !result.OK() {
		return nil, &Error{URL: manifestURL, Err: fmt.Errorf("%w: %w", ErrManifestUnavailable, result.Failure)}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &Error{URL: manifestURL, Err: fmt.Errorf("%w: empty response", ErrManifestUnavailable)}
	}

	segments, err := manifest.ParseSegments(text)
	if err != nil {
		r.log.WithField("url", manifestURL).Debugf("manifest preview: %.500s", text)
		return nil, &Error{URL: manifestURL, Err: err}
	}

	return segments, nil
}

// PageIdentifiers lists the identifiers of every thumbnail overlay on a listing page.
func (r *Resolver) PageIdentifiers(ctx context.Context, pageURL string) ([]string, error) {
	result := r.fetcher.Fetch(ctx, pageURL, fetcher.AsText())
	if !result.OK() {
		return nil, &Error{URL: pageURL, Err: result.Failure}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.Text()))
	if err != nil {
		return nil, &Error{URL: pageURL, Err: fmt.Errorf("parse page: %w", err)}
	}

	var ids []string
	doc.Find("div.thumb-overlay").Each(func(_ int, s *goquery.Selection) {
		if id := anyDigitsPattern.FindString(s.AttrOr("id", "")); id != "" {
			ids = append(ids, id)
		}
	})

	r.log.WithField("url", pageURL).Infof("found %d identifiers", len(ids))
	return ids, nil
}
