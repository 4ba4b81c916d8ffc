// Package download fetches the segments of a manifest one by one into a staging
// directory and assembles them into a single video file.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/fetcher"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/manifest"
	"github.com/vidfetch/vidfetch/progress"
	"github.com/vidfetch/vidfetch/util"
)

const (
	DefaultDelayMin = 100 * time.Millisecond
	DefaultDelayMax = 300 * time.Millisecond
)

var errEmptySegment = errors.New("empty segment body")

// Fetcher is the subset of fetcher.Fetcher the downloader needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts ...fetcher.Option) fetcher.Result
}

// Remuxer rewrites an assembled file in place into a standard container.
type Remuxer interface {
	Remux(ctx context.Context, input string) error
}

// Config is used to construct a Downloader.
type Config struct {
	Fetcher  Fetcher
	Reporter *progress.Reporter
	CDNBase  string
	// DelayMin and DelayMax bound the random pause between segment fetches.
	// Both zero means the defaults. A negative minimum becomes zero and a
	// maximum below the minimum becomes the minimum.
	DelayMin time.Duration
	DelayMax time.Duration
	// Remuxer is optional. Without one the raw concatenation is kept.
	Remuxer Remuxer
	Logger  logrus.FieldLogger
	Sleep   func(ctx context.Context, d time.Duration) error
	// Rand returns a float in [0, 1).
	Rand func() float64
	Now  func() time.Time
}

// Downloader runs one manifest download at a time per call. It keeps no state between calls.
type Downloader struct {
	fetcher  Fetcher
	reporter *progress.Reporter
	cdnBase  string
	delayMin time.Duration
	delayMax time.Duration
	remuxer  Remuxer
	log      logrus.FieldLogger
	sleep    func(ctx context.Context, d time.Duration) error
	rand     func() float64
	now      func() time.Time
}

// New constructs a Downloader from config.
func New(config Config) *Downloader {
	d := &Downloader{
		fetcher:  config.Fetcher,
		reporter: config.Reporter,
		cdnBase:  manifest.NormalizeBase(config.CDNBase),
		remuxer:  config.Remuxer,
		log:      config.Logger,
		sleep:    config.Sleep,
		rand:     config.Rand,
		now:      config.Now,
	}

	d.delayMin, d.delayMax = ClampDelays(config.DelayMin, config.DelayMax)

	if d.cdnBase == "" {
		d.cdnBase = constant.DefaultCDNBase
	}
	if d.reporter == nil {
		d.reporter = progress.NewReporter()
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	if d.sleep == nil {
		d.sleep = sleepContext
	}
	if d.rand == nil {
		d.rand = rand.Float64
	}
	if d.now == nil {
		d.now = time.Now
	}

	return d
}

// ClampDelays applies the delay defaults and bounds.
func ClampDelays(lower, upper time.Duration) (time.Duration, time.Duration) {
	if lower == 0 && upper == 0 {
		return DefaultDelayMin, DefaultDelayMax
	}

	lower = max(lower, 0)
	upper = max(upper, lower)
	return lower, upper
}

// Outcome describes what a download did. It is returned even when the download was cut short.
type Outcome struct {
	Attempted      int      `json:"attempted"`
	Succeeded      int      `json:"succeeded"`
	FailedSegments []string `json:"failed_segments"`
	// OutputPath is the assembled file when merging, otherwise the staging directory.
	OutputPath mo.Option[string] `json:"output_path" jsonschema:"type=string"`
	StagingDir string            `json:"staging_dir"`
}

// Success reports whether every attempted segment was downloaded.
func (o *Outcome) Success() bool {
	return len(o.FailedSegments) == 0
}

// StagingDir returns the directory segments of m are written to.
func StagingDir(outputDir string, m *manifest.Manifest) string {
	return filepath.Join(outputDir, m.Identifier+"_temp")
}

// OutputFile returns the path of the assembled video of m.
func OutputFile(outputDir string, m *manifest.Manifest) string {
	return filepath.Join(outputDir, m.Identifier+constant.ExtMP4)
}

// StagedName is the staging file name of segment i. The index prefix keeps
// lexical order equal to manifest order.
func StagedName(i int, segment string) string {
	segment, _, _ = strings.Cut(segment, "?")
	base := util.SanitizeFilename(path.Base(segment))
	if base == "" || base == "." || base == "/" {
		base = "segment" + constant.ExtTS
	}
	return fmt.Sprintf("%05d_%s", i, base)
}

// Download fetches every segment of m in order, then assembles them into
// {outputDir}/{identifier}.mp4 when merge is set.
//
// Failed segments are recorded and skipped. On cancellation the outcome so far
// is returned together with the context error.
func (d *Downloader) Download(ctx context.Context, m *manifest.Manifest, outputDir string, merge bool) (*Outcome, error) {
	if m == nil || len(m.Segments) == 0 {
		return nil, manifest.ErrInvalidManifest
	}

	log := d.log.WithField("identifier", m.Identifier)
	fs := filesystem.API()

	staging := StagingDir(outputDir, m)
	if err := fs.MkdirAll(staging, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	outcome := &Outcome{StagingDir: staging}
	if merge {
		defer func() {
			if err := fs.RemoveAll(staging); err != nil {
				log.WithError(err).Warn("could not remove staging directory")
				return
			}
			log.Debugf("removed staging directory %s", staging)
		}()
	}

	log.Infof("downloading %s into %s", util.Quantify(len(m.Segments), "segment", "segments"), outputDir)

	staged, err := d.fetchSegments(ctx, m, staging, outcome)
	if err != nil {
		if !merge {
			outcome.OutputPath = mo.Some(staging)
		}
		return outcome, err
	}

	d.reporter.Finish()
	log.Infof("%d/%d segments downloaded", outcome.Succeeded, outcome.Attempted)

	if !merge {
		outcome.OutputPath = mo.Some(staging)
		return outcome, nil
	}

	if outcome.Succeeded == 0 {
		log.Warn("no segment was downloaded, nothing to assemble")
		return outcome, nil
	}

	output := OutputFile(outputDir, m)
	if err := concat(staged, output); err != nil {
		return outcome, fmt.Errorf("assemble %s: %w", output, err)
	}
	outcome.OutputPath = mo.Some(output)

	if d.remuxer != nil {
		if err := d.remuxer.Remux(ctx, output); err != nil {
			log.WithError(err).Warn("remux failed, keeping the raw concatenation")
		}
	}

	if stat, err := fs.Stat(output); err == nil {
		log.Infof("assembled %s (%s)", output, humanize.Bytes(uint64(stat.Size())))
	}

	return outcome, nil
}

func (d *Downloader) fetchSegments(ctx context.Context, m *manifest.Manifest, staging string, outcome *Outcome) ([]string, error) {
	var (
		fs     = filesystem.API()
		total  = len(m.Segments)
		start  = d.now()
		staged = make([]string, 0, total)
	)

	for i, segment := range m.Segments {
		if err := ctx.Err(); err != nil {
			return staged, err
		}

		if i > 0 {
			if err := d.sleep(ctx, d.delay()); err != nil {
				return staged, err
			}
		}

		d.reportProgress(i, total, start)

		outcome.Attempted++
		log := d.log.WithField("segment", segment)
		log.Debugf("fetching segment [%d/%d]", i+1, total)

		result := d.fetcher.Fetch(ctx, m.SegmentURL(d.cdnBase, i))
		if result.Failure == fetcher.FailureCanceled {
			outcome.Attempted--
			if err := ctx.Err(); err != nil {
				return staged, err
			}
			return staged, context.Canceled
		}

		if !result.OK() || len(result.Body) == 0 {
			reason := lo.Ternary[error](result.OK(), errEmptySegment, result.Failure)
			log.WithError(reason).Warnf("segment [%d/%d] failed", i+1, total)
			outcome.FailedSegments = append(outcome.FailedSegments, segment)
			continue
		}

		name := filepath.Join(staging, StagedName(i, segment))
		if err := fs.WriteFile(name, result.Body, os.ModePerm); err != nil {
			log.WithError(err).Warnf("segment [%d/%d] could not be written", i+1, total)
			outcome.FailedSegments = append(outcome.FailedSegments, segment)
			continue
		}

		outcome.Succeeded++
		staged = append(staged, name)
	}

	return staged, nil
}

func (d *Downloader) reportProgress(done, total int, start time.Time) {
	update := progress.Update{
		Status:     progress.StatusDownloading,
		Unit:       progress.UnitSegments,
		Downloaded: int64(done),
		Total:      int64(total),
	}

	if elapsed := d.now().Sub(start); done > 0 && elapsed > 0 {
		update.Speed = float64(done) / elapsed.Seconds()
		update.ETA = time.Duration(float64(total-done) / update.Speed * float64(time.Second))
	}

	d.reporter.Report(update)
}

func (d *Downloader) delay() time.Duration {
	if d.delayMax == d.delayMin {
		return d.delayMin
	}
	return d.delayMin + time.Duration(d.rand()*float64(d.delayMax-d.delayMin))
}

// concat writes the staged files, in the given order, into output.
func concat(staged []string, output string) error {
	fs := filesystem.API()

	out, err := fs.Create(output)
	if err != nil {
		return err
	}
	defer util.Ignore(out.Close)

	for _, name := range staged {
		if err := appendFile(out, name); err != nil {
			return err
		}
	}

	return out.Sync()
}

func appendFile(w io.Writer, name string) error {
	in, err := filesystem.API().Open(name)
	if err != nil {
		return err
	}
	defer util.Ignore(in.Close)

	_, err = io.Copy(w, in)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
