// Package extractor drives yt-dlp, the general purpose extractor tried before
// any manifest resolution.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/cookie"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/media"
	"github.com/vidfetch/vidfetch/progress"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "yt-dlp"

// OutputTemplate names downloaded files after the video title.
const OutputTemplate = "%(title)s.%(ext)s"

var qualities = map[string]string{
	"best":       "bestvideo+bestaudio/best",
	"worst":      "worstvideo+worstaudio/worst",
	"best-mp4":   "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
	"best-audio": "bestaudio/best",
}

// Qualities lists the accepted quality names.
func Qualities() []string {
	return []string{"best", "worst", "best-mp4", "best-audio"}
}

// FormatSelector maps a quality name to a yt-dlp format selector. Unknown names mean "best".
func FormatSelector(quality string) string {
	if selector, ok := qualities[strings.ToLower(strings.TrimSpace(quality))]; ok {
		return selector
	}
	return qualities["best"]
}

// Config is used to construct an Extractor.
type Config struct {
	// Binary defaults to DefaultBinary.
	Binary   string
	Proxy    string
	Referer  string
	Reporter *progress.Reporter
	Logger   logrus.FieldLogger
}

// Extractor runs yt-dlp for info lookups and downloads.
type Extractor struct {
	binary   string
	proxy    string
	referer  string
	reporter *progress.Reporter
	log      logrus.FieldLogger
}

// New constructs an Extractor from config.
func New(config Config) *Extractor {
	e := &Extractor{
		binary:   config.Binary,
		proxy:    config.Proxy,
		referer:  config.Referer,
		reporter: config.Reporter,
		log:      config.Logger,
	}

	if e.binary == "" {
		e.binary = DefaultBinary
	}
	if e.reporter == nil {
		e.reporter = progress.NewReporter()
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}

	return e
}

// Binary returns the configured yt-dlp executable.
func (e *Extractor) Binary() string {
	return e.binary
}

// Options apply to a single call.
type Options struct {
	// Cookie is a raw cookie string or Netscape cookie file text.
	Cookie  string
	Quality string
}

func (e *Extractor) command(opts Options) (*ytdlp.Command, func(), error) {
	cmd := ytdlp.New().SetExecutable(e.binary)
	cleanup := func() {}

	if e.proxy != "" {
		cmd.Proxy(e.proxy)
	}
	if e.referer != "" {
		cmd.AddHeaders("Referer:" + e.referer)
	}

	if strings.TrimSpace(opts.Cookie) != "" {
		jar, remove, err := cookie.WriteJar(opts.Cookie)
		if err != nil {
			return nil, cleanup, err
		}
		e.log.Debugf("using cookie jar %s", jar)
		cmd.Cookies(jar)
		cleanup = remove
	}

	return cmd, cleanup, nil
}

// Info asks yt-dlp for the metadata of url without downloading it.
func (e *Extractor) Info(ctx context.Context, url string, opts Options) (*media.Info, error) {
	log := e.log.WithField("url", url)

	cmd, cleanup, err := e.command(opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	log.Info("fetching info with yt-dlp")
	result, err := cmd.DumpSingleJSON().SkipDownload().Run(ctx, url)
	if err != nil {
		return nil, wrap(err)
	}

	info, err := ParseInfo([]byte(result.Stdout))
	if err != nil {
		return nil, err
	}

	log.Infof("found %q with %d formats", info.Title, len(info.Formats))
	return info, nil
}

// rawInfo is the subset of yt-dlp's JSON output vidfetch uses.
type rawInfo struct {
	Title       string            `json:"title"`
	Duration    float64           `json:"duration"`
	Thumbnail   string            `json:"thumbnail"`
	Uploader    string            `json:"uploader"`
	ViewCount   int64             `json:"view_count"`
	Description string            `json:"description"`
	Formats     []media.RawFormat `json:"formats"`
}

// ParseInfo converts yt-dlp's --dump-single-json output into media.Info.
func ParseInfo(data []byte) (*media.Info, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yt-dlp output: %w", err)
	}

	return &media.Info{
		Title:       lo.Ternary(raw.Title != "", raw.Title, "unknown title"),
		Duration:    raw.Duration,
		Thumbnail:   raw.Thumbnail,
		Uploader:    lo.Ternary(raw.Uploader != "", raw.Uploader, "unknown uploader"),
		ViewCount:   raw.ViewCount,
		Description: raw.Description,
		Formats:     media.DedupFormats(raw.Formats),
	}, nil
}

// Download saves url into dir as "<title>.<ext>" and returns the written path.
// Byte progress is forwarded to the reporter.
func (e *Extractor) Download(ctx context.Context, url, dir string, opts Options) (string, error) {
	log := e.log.WithField("url", url)

	cmd, cleanup, err := e.command(opts)
	if err != nil {
		return "", err
	}
	defer cleanup()

	if err := filesystem.API().MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	var title string
	cmd.Format(FormatSelector(opts.Quality)).
		Output(filepath.Join(dir, OutputTemplate)).
		ProgressFunc(200*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			if update.Info != nil && update.Info.Title != nil {
				title = *update.Info.Title
			}
			e.forward(update)
		})

	log.Infof("downloading with yt-dlp, format %q", FormatSelector(opts.Quality))
	result, err := cmd.Run(ctx, url)
	if err != nil {
		return "", wrap(err)
	}

	var reported string
	if extracted, err := result.GetExtractedInfo(); err == nil && len(extracted) > 0 {
		if extracted[0].Filename != nil {
			reported = *extracted[0].Filename
		}
		if extracted[0].Title != nil {
			title = *extracted[0].Title
		}
	}

	path, err := LocateOutput(dir, reported, title)
	if err != nil {
		return "", err
	}

	log.Infof("saved %s", path)
	return path, nil
}

func (e *Extractor) forward(update ytdlp.ProgressUpdate) {
	switch update.Status {
	case ytdlp.ProgressStatusFinished:
		e.reporter.Finish()
	case ytdlp.ProgressStatusDownloading:
		u := progress.Update{
			Status:     progress.StatusDownloading,
			Unit:       progress.UnitBytes,
			Downloaded: int64(update.DownloadedBytes),
			Total:      int64(update.TotalBytes),
			ETA:        update.ETA(),
		}
		if !update.Started.IsZero() {
			if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 {
				u.Speed = float64(update.DownloadedBytes) / elapsed
			}
		}
		e.reporter.Report(u)
	}
}

// ErrOutputMissing is returned when yt-dlp succeeded but no file could be found.
var ErrOutputMissing = errors.New("downloaded file not found")

// LocateOutput finds the file yt-dlp wrote. It prefers the reported filename, then
// "<title>.<ext>" for common containers, then the newest file in dir.
func LocateOutput(dir, reported, title string) (string, error) {
	fs := filesystem.API()

	if reported != "" {
		if ok, _ := fs.Exists(reported); ok {
			return reported, nil
		}
	}

	if title != "" {
		for _, ext := range []string{constant.ExtMP4, ".webm", ".mkv", ".m4a"} {
			candidate := filepath.Join(dir, title+ext)
			if ok, _ := fs.Exists(candidate); ok {
				return candidate, nil
			}
		}
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOutputMissing, err)
	}

	files := lo.Filter(entries, func(entry os.FileInfo, _ int) bool {
		return !entry.IsDir() && !strings.HasSuffix(entry.Name(), ".part")
	})
	if len(files) == 0 {
		return "", ErrOutputMissing
	}

	newest := lo.MaxBy(files, func(a, b os.FileInfo) bool {
		return a.ModTime().After(b.ModTime())
	})
	return filepath.Join(dir, newest.Name()), nil
}

// ErrNotInstalled is returned when the yt-dlp executable cannot be found.
var ErrNotInstalled = errors.New("yt-dlp is not installed")

func wrap(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}
	return fmt.Errorf("yt-dlp: %w", err)
}

// Lookup returns the resolved path of the yt-dlp executable.
func (e *Extractor) Lookup() (string, error) {
	path, err := exec.LookPath(e.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}
	return path, nil
}

// Install downloads a managed yt-dlp build and returns where it was placed.
func Install(ctx context.Context) (string, error) {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("install yt-dlp: %w", err)
	}
	return resolved.Executable, nil
}
