// Package pipeline composes the extractor, the manifest resolver and the segment
// downloader into a single escalation flow.
//
// Every request is first handed to the extractor. When it fails, the resolver
// looks for a manifest; a direct media URL found on the way goes back to the
// extractor. Only when both paths fail does the caller see an error, and then
// it sees both causes.
package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/download"
	"github.com/vidfetch/vidfetch/extractor"
	"github.com/vidfetch/vidfetch/manifest"
	"github.com/vidfetch/vidfetch/media"
	"github.com/vidfetch/vidfetch/progress"
	"github.com/vidfetch/vidfetch/resolver"
	"github.com/vidfetch/vidfetch/util"
)

// Extractor is the general purpose extractor.
type Extractor interface {
	Info(ctx context.Context, url string, opts extractor.Options) (*media.Info, error)
	Download(ctx context.Context, url, dir string, opts extractor.Options) (string, error)
}

// Resolver locates manifests.
type Resolver interface {
	Resolve(ctx context.Context, pageURL, identifier string) (resolver.Resolution, error)
	ResolveManifestURL(ctx context.Context, manifestURL string) (*manifest.Manifest, error)
}

// Downloader downloads and assembles manifest segments.
type Downloader interface {
	Download(ctx context.Context, m *manifest.Manifest, outputDir string, merge bool) (*download.Outcome, error)
}

// CookieJar receives the cookie of each request before any fetch happens.
type CookieJar interface {
	SetCookie(raw string)
}

// Config is used to construct a Service. Every collaborator is required except Cookies.
type Config struct {
	Extractor  Extractor
	Resolver   Resolver
	Downloader Downloader
	Reporter   *progress.Reporter
	Cookies    CookieJar
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// Service runs the escalation flow. It is safe to reuse but not to run concurrently.
type Service struct {
	extractor  Extractor
	resolver   Resolver
	downloader Downloader
	reporter   *progress.Reporter
	cookies    CookieJar
	log        logrus.FieldLogger
	now        func() time.Time
}

// New constructs a Service from config.
func New(config Config) *Service {
	s := &Service{
		extractor:  config.Extractor,
		resolver:   config.Resolver,
		downloader: config.Downloader,
		reporter:   config.Reporter,
		cookies:    config.Cookies,
		log:        config.Logger,
		now:        config.Now,
	}

	if s.reporter == nil {
		s.reporter = progress.NewReporter()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Reporter returns the reporter shared by the extractor and the downloader.
func (s *Service) Reporter() *progress.Reporter {
	return s.reporter
}

// Request holds the per call options.
type Request struct {
	OutputDir string
	Quality   string
	// Cookie is a raw cookie string, or Netscape cookie file text.
	Cookie string
	// Merge assembles downloaded segments into one file.
	Merge bool
	// Identifier skips identifier discovery during resolution.
	Identifier string
	// Info is the result of an earlier Info call. It lets Download skip straight to the right path.
	Info *media.Info
}

func (r Request) options() extractor.Options {
	return extractor.Options{Cookie: r.Cookie, Quality: r.Quality}
}

// Method tells which path produced a download.
type Method string

const (
	MethodExtractor Method = "extractor"
	MethodManifest  Method = "manifest"
)

// Result of a download. A manifest download with failed segments is still a Result.
type Result struct {
	Method Method `json:"method"`
	Title  string `json:"title"`
	// Path is the written file, or the staging directory of an unmerged manifest download.
	Path    mo.Option[string] `json:"path" jsonschema:"type=string"`
	Outcome *download.Outcome `json:"outcome,omitempty"`
}

// Success reports whether the download is complete.
func (r *Result) Success() bool {
	return r.Outcome == nil || (r.Outcome.Success() && r.Path.IsPresent())
}

// IsDirectMedia reports whether rawURL points straight at an mp4 file.
func IsDirectMedia(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), constant.ExtMP4)
}

// IsManifestURL reports whether rawURL mentions a manifest.
func IsManifestURL(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), constant.ExtM3U8)
}

func (s *Service) prepare(req Request) {
	if s.cookies != nil {
		s.cookies.SetCookie(req.Cookie)
	}
	if req.Cookie != "" {
		s.log.Info("using custom cookie")
	}
}

// Info describes the video at rawURL without downloading it.
func (s *Service) Info(ctx context.Context, rawURL string, req Request) (*media.Info, error) {
	s.prepare(req)
	log := s.log.WithField("url", rawURL)

	if IsDirectMedia(rawURL) {
		log.Info("direct mp4 URL, skipping resolution")
		return s.directMediaInfo(ctx, rawURL, req), nil
	}

	info, extractorErr := s.extractor.Info(ctx, rawURL, req.options())
	if extractorErr == nil {
		return info, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.WithError(extractorErr).Warn("extractor failed, resolving a manifest")

	resolution, resolveErr := s.resolve(ctx, rawURL, req.Identifier)
	if resolveErr != nil {
		return nil, s.escalation(rawURL, extractorErr, resolveErr)
	}

	if mediaURL, ok := resolution.DirectMedia(); ok {
		log.Infof("found direct media %s", mediaURL)
		return s.directMediaInfo(ctx, mediaURL, req), nil
	}

	m, ok := resolution.Manifest()
	if !ok {
		return nil, s.escalation(rawURL, extractorErr, &resolver.Error{URL: rawURL, Err: resolver.ErrUnresolvable})
	}
	return ManifestInfo(m), nil
}

// Resolve runs only the manifest resolution path.
func (s *Service) Resolve(ctx context.Context, rawURL string, req Request) (resolver.Resolution, error) {
	s.prepare(req)
	return s.resolve(ctx, rawURL, req.Identifier)
}

func (s *Service) resolve(ctx context.Context, rawURL, identifier string) (resolver.Resolution, error) {
	if IsManifestURL(rawURL) && strings.TrimSpace(identifier) == "" {
		m, err := s.resolver.ResolveManifestURL(ctx, rawURL)
		if err != nil {
			return resolver.Resolution{}, err
		}
		return resolver.ManifestResolution(m), nil
	}

	return s.resolver.Resolve(ctx, rawURL, identifier)
}

// directMediaInfo asks the extractor about an mp4 URL. A failed lookup still yields basic info.
func (s *Service) directMediaInfo(ctx context.Context, mediaURL string, req Request) *media.Info {
	info, err := s.extractor.Info(ctx, mediaURL, req.options())
	if err != nil {
		s.log.WithField("url", mediaURL).WithError(err).Warn("extractor could not describe the mp4, using basic info")
		info = &media.Info{
			Title:       "MP4_" + strconv.FormatInt(s.now().Unix(), 10),
			Uploader:    "MP4 video",
			Description: "direct MP4 video file",
			Formats: []media.Format{
				{ID: "mp4", Ext: "mp4", Resolution: "unknown", Quality: "unknown"},
			},
		}
	}

	info.DirectURL = mediaURL
	return info
}

// ManifestInfo describes a resolved manifest.
func ManifestInfo(m *manifest.Manifest) *media.Info {
	return &media.Info{
		Title:       m.Title,
		Uploader:    "M3U8 stream",
		Description: fmt.Sprintf("M3U8 stream - %s", util.Quantify(len(m.Segments), "segment", "segments")),
		Formats: []media.Format{
			{ID: "m3u8", Ext: "mp4", Resolution: "unknown", Quality: "M3U8 stream"},
		},
		IsM3U8:   true,
		Manifest: m,
	}
}

// Download saves the video at rawURL into req.OutputDir.
//
// A pre-resolved req.Info is honored first: a manifest goes straight to the
// segment downloader and a direct URL straight to the extractor. An mp4 URL
// is only ever handed to the extractor.
func (s *Service) Download(ctx context.Context, rawURL string, req Request) (*Result, error) {
	s.prepare(req)
	log := s.log.WithField("url", rawURL)

	if info := req.Info; info != nil {
		switch {
		case info.IsM3U8 && info.Manifest != nil:
			log.Info("using the resolved manifest")
			return s.downloadManifest(ctx, info.Manifest, req)
		case info.DirectURL != "":
			log.Infof("using the resolved direct URL %s", info.DirectURL)
			return s.downloadDirect(ctx, info.DirectURL, req)
		}
	}

	if IsDirectMedia(rawURL) {
		log.Info("direct mp4 URL, skipping resolution")
		return s.downloadDirect(ctx, rawURL, req)
	}

	result, extractorErr := s.downloadDirect(ctx, rawURL, req)
	if extractorErr == nil {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.WithError(extractorErr).Warn("extractor failed, resolving a manifest")

	resolution, resolveErr := s.resolve(ctx, rawURL, req.Identifier)
	if resolveErr != nil {
		return nil, s.escalation(rawURL, extractorErr, resolveErr)
	}

	if mediaURL, ok := resolution.DirectMedia(); ok {
		log.Infof("found direct media %s", mediaURL)
		result, err := s.downloadDirect(ctx, mediaURL, req)
		if err != nil {
			return nil, s.escalation(rawURL, extractorErr, err)
		}
		return result, nil
	}

	m, ok := resolution.Manifest()
	if !ok {
		return nil, s.escalation(rawURL, extractorErr, &resolver.Error{URL: rawURL, Err: resolver.ErrUnresolvable})
	}
	return s.downloadManifest(ctx, m, req)
}

func (s *Service) downloadDirect(ctx context.Context, mediaURL string, req Request) (*Result, error) {
	path, err := s.extractor.Download(ctx, mediaURL, req.OutputDir, req.options())
	if err != nil {
		return nil, err
	}

	return &Result{
		Method: MethodExtractor,
		Title:  util.FileStem(path),
		Path:   mo.Some(path),
	}, nil
}

// downloadManifest returns the outcome even when the download was canceled part way.
func (s *Service) downloadManifest(ctx context.Context, m *manifest.Manifest, req Request) (*Result, error) {
	outcome, err := s.downloader.Download(ctx, m, req.OutputDir, req.Merge)
	if outcome == nil {
		return nil, err
	}

	result := &Result{
		Method:  MethodManifest,
		Title:   m.Title,
		Path:    outcome.OutputPath,
		Outcome: outcome,
	}

	if !outcome.Success() {
		s.log.WithField("identifier", m.Identifier).
			Warnf("%d/%d segments downloaded, %d failed", outcome.Succeeded, outcome.Attempted, len(outcome.FailedSegments))
	}

	return result, err
}

func (s *Service) escalation(rawURL string, extractorErr, fallbackErr error) error {
	err := &EscalationError{URL: rawURL, Extractor: extractorErr, Fallback: fallbackErr}
	s.log.WithField("url", rawURL).WithError(err).Error("every download path failed")
	return err
}
