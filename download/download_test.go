package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidfetch/vidfetch/fetcher"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/log"
	"github.com/vidfetch/vidfetch/manifest"
	"github.com/vidfetch/vidfetch/progress"
)

func init() {
	filesystem.SetMemMapFs()
}

const cdn = "https://cdn.test"

type fakeFetcher struct {
	bodies map[string]string
	calls  []string
	// onFetch runs after every call with the number of calls so far.
	onFetch func(n int)
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, _ ...fetcher.Option) fetcher.Result {
	if ctx.Err() != nil {
		return fetcher.Result{Failure: fetcher.FailureCanceled}
	}

	f.calls = append(f.calls, url)
	if f.onFetch != nil {
		defer f.onFetch(len(f.calls))
	}

	body, ok := f.bodies[url]
	if !ok {
		return fetcher.Result{Status: 404, Failure: fetcher.FailureNotFound}
	}
	return fetcher.Result{Status: 200, Body: []byte(body)}
}

type fakeRemuxer struct {
	inputs []string
	err    error
}

func (r *fakeRemuxer) Remux(_ context.Context, input string) error {
	r.inputs = append(r.inputs, input)
	return r.err
}

type harness struct {
	downloader *Downloader
	fetcher    *fakeFetcher
	sleeps     *[]time.Duration
	reports    *[]string
	remuxer    *fakeRemuxer
}

func newHarness(bodies map[string]string) harness {
	var sleeps []time.Duration
	var reports []string

	reporter := progress.NewReporter()
	reporter.Register(func(downloaded, total int64, _ float64, _, _, size string) {
		reports = append(reports, size)
	})

	f := &fakeFetcher{bodies: bodies}
	remuxer := &fakeRemuxer{}
	d := New(Config{
		Fetcher:  f,
		Reporter: reporter,
		CDNBase:  cdn,
		Remuxer:  remuxer,
		Logger:   log.Discard(),
		Sleep: func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return ctx.Err()
		},
		Rand: func() float64 { return 0.5 },
	})

	return harness{downloader: d, fetcher: f, sleeps: &sleeps, reports: &reports, remuxer: remuxer}
}

// segmentManifest builds a manifest of n segments served from the CDN template.
// Segments whose index is in empty are served with an empty body.
func segmentManifest(id string, n int, empty ...int) (*manifest.Manifest, map[string]string) {
	m := &manifest.Manifest{Identifier: id, Title: "Video_" + id}
	bodies := make(map[string]string)

	skip := make(map[int]bool)
	for _, i := range empty {
		skip[i] = true
	}

	for i := 0; i < n; i++ {
		segment := fmt.Sprintf("%s%03d.ts", id, i)
		m.Segments = append(m.Segments, segment)
		url := fmt.Sprintf("%s/m3u8/%s/%s", cdn, id, segment)
		if skip[i] {
			bodies[url] = ""
		} else {
			bodies[url] = fmt.Sprintf("[%02d]", i)
		}
	}

	return m, bodies
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	Convey("Given a 20 segment manifest where 5 segments come back empty", t, func() {
		out := filepath.Join("/downloads", "scenario-d")
		m, bodies := segmentManifest("482913", 20, 2, 6, 10, 14, 18)
		h := newHarness(bodies)

		outcome, err := h.downloader.Download(ctx, m, out, true)

		Convey("The download completes with 15 segments assembled in order", func() {
			So(err, ShouldBeNil)
			So(outcome.Attempted, ShouldEqual, 20)
			So(outcome.Succeeded, ShouldEqual, 15)
			So(outcome.FailedSegments, ShouldResemble, []string{"482913002.ts", "482913006.ts", "482913010.ts", "482913014.ts", "482913018.ts"})
			So(outcome.Success(), ShouldBeFalse)
			So(outcome.Succeeded+len(outcome.FailedSegments), ShouldEqual, outcome.Attempted)

			output, ok := outcome.OutputPath.Get()
			So(ok, ShouldBeTrue)
			So(output, ShouldEqual, filepath.Join(out, "482913.mp4"))

			data, err := filesystem.API().ReadFile(output)
			So(err, ShouldBeNil)

			var expected strings.Builder
			for i := 0; i < 20; i++ {
				if i%4 != 2 {
					fmt.Fprintf(&expected, "[%02d]", i)
				}
			}
			So(string(data), ShouldEqual, expected.String())
		})

		Convey("Segments are fetched sequentially in manifest order", func() {
			So(h.fetcher.calls, ShouldHaveLength, 20)
			for i, url := range h.fetcher.calls {
				So(url, ShouldEqual, m.SegmentURL(cdn, i))
			}
		})

		Convey("The staging directory is removed", func() {
			exists, err := filesystem.API().DirExists(StagingDir(out, m))
			So(err, ShouldBeNil)
			So(exists, ShouldBeFalse)
		})

		Convey("A delay separates fetches but does not follow the last one", func() {
			So(*h.sleeps, ShouldHaveLength, 19)
			for _, d := range *h.sleeps {
				So(d, ShouldEqual, 200*time.Millisecond)
			}
		})

		Convey("Progress is reported in segments and ends with the finished report", func() {
			reports := *h.reports
			So(reports, ShouldHaveLength, 21)
			So(reports[0], ShouldEqual, "0 / 20 segments")
			So(reports[19], ShouldEqual, "19 / 20 segments")
			So(reports[20], ShouldEqual, progress.Complete)
		})

		Convey("The assembled file is remuxed", func() {
			So(h.remuxer.inputs, ShouldResemble, []string{filepath.Join(out, "482913.mp4")})
		})
	})

	Convey("Given merging is disabled", t, func() {
		out := "/downloads/no-merge"
		m, bodies := segmentManifest("777777", 3)
		h := newHarness(bodies)

		outcome, err := h.downloader.Download(ctx, m, out, false)

		Convey("The staged segments are kept and are the result", func() {
			So(err, ShouldBeNil)
			So(outcome.Success(), ShouldBeTrue)
			So(outcome.OutputPath, ShouldResemble, mo.Some(StagingDir(out, m)))

			names, err := filesystem.API().ReadDir(StagingDir(out, m))
			So(err, ShouldBeNil)
			So(names, ShouldHaveLength, 3)
			So(names[0].Name(), ShouldEqual, "00000_777777000.ts")
			So(names[2].Name(), ShouldEqual, "00002_777777002.ts")
			So(h.remuxer.inputs, ShouldBeEmpty)
		})
	})

	Convey("Given every segment fails", t, func() {
		out := "/downloads/all-failed"
		m := &manifest.Manifest{Identifier: "123456", Segments: []string{"a.ts", "b.ts"}}
		h := newHarness(nil)

		outcome, err := h.downloader.Download(ctx, m, out, true)

		Convey("Nothing is assembled and no error is raised", func() {
			So(err, ShouldBeNil)
			So(outcome.Succeeded, ShouldEqual, 0)
			So(outcome.FailedSegments, ShouldResemble, []string{"a.ts", "b.ts"})
			So(outcome.OutputPath.IsAbsent(), ShouldBeTrue)

			exists, _ := filesystem.API().Exists(filepath.Join(out, "123456.mp4"))
			So(exists, ShouldBeFalse)
		})
	})

	Convey("Given a manifest with its own base URL", t, func() {
		m := &manifest.Manifest{
			Identifier: "M3U8_1700000000",
			BaseURL:    mo.Some("https://media.test/hls/"),
			Segments:   []string{"seg-1.ts?sig=abc", "seg-2.ts"},
		}
		h := newHarness(map[string]string{
			"https://media.test/hls/seg-1.ts?sig=abc": "one",
			"https://media.test/hls/seg-2.ts":         "two",
		})

		outcome, err := h.downloader.Download(ctx, m, "/downloads/base", true)

		Convey("Segments are fetched from the base URL", func() {
			So(err, ShouldBeNil)
			So(outcome.Success(), ShouldBeTrue)
			data, _ := filesystem.API().ReadFile(outcome.OutputPath.MustGet())
			So(string(data), ShouldEqual, "onetwo")
		})
	})

	Convey("Given the remux fails", t, func() {
		m, bodies := segmentManifest("654321", 2)
		h := newHarness(bodies)
		h.remuxer.err = ErrRemuxUnavailable

		outcome, err := h.downloader.Download(ctx, m, "/downloads/remux", true)

		Convey("The raw concatenation is kept", func() {
			So(err, ShouldBeNil)
			data, _ := filesystem.API().ReadFile(outcome.OutputPath.MustGet())
			So(string(data), ShouldEqual, "[00][01]")
		})
	})

	Convey("Given the context is canceled mid download", t, func() {
		out := "/downloads/canceled"
		m, bodies := segmentManifest("999999", 10)
		h := newHarness(bodies)

		canceled, cancel := context.WithCancel(ctx)
		defer cancel()
		h.fetcher.onFetch = func(n int) {
			if n == 3 {
				cancel()
			}
		}

		outcome, err := h.downloader.Download(canceled, m, out, true)

		Convey("The outcome so far is returned with the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(outcome, ShouldNotBeNil)
			So(outcome.Attempted, ShouldEqual, 3)
			So(outcome.Succeeded, ShouldEqual, 3)
			So(outcome.OutputPath.IsAbsent(), ShouldBeTrue)
		})

		Convey("The staging directory is still cleaned up", func() {
			exists, _ := filesystem.API().DirExists(StagingDir(out, m))
			So(exists, ShouldBeFalse)
		})
	})

	Convey("Given an empty manifest", t, func() {
		h := newHarness(nil)
		_, err := h.downloader.Download(ctx, &manifest.Manifest{Identifier: "1"}, "/downloads/empty", true)

		Convey("It is rejected as invalid", func() {
			So(err, ShouldEqual, manifest.ErrInvalidManifest)
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("Delays are clamped", t, func() {
		lower, upper := ClampDelays(0, 0)
		So(lower, ShouldEqual, DefaultDelayMin)
		So(upper, ShouldEqual, DefaultDelayMax)

		lower, upper = ClampDelays(-time.Second, 50*time.Millisecond)
		So(lower, ShouldEqual, 0)
		So(upper, ShouldEqual, 50*time.Millisecond)

		lower, upper = ClampDelays(500*time.Millisecond, 100*time.Millisecond)
		So(lower, ShouldEqual, 500*time.Millisecond)
		So(upper, ShouldEqual, 500*time.Millisecond)
	})

	Convey("Staged names sort in manifest order", t, func() {
		So(StagedName(0, "a.ts"), ShouldEqual, "00000_a.ts")
		So(StagedName(12, "path/to/b.ts?x=1"), ShouldEqual, "00012_b.ts")
		So(StagedName(9, "c.ts") < StagedName(10, "b.ts"), ShouldBeTrue)
	})

	Convey("The remux output sits next to the input", t, func() {
		So(ConvertedName("/out/482913.mp4"), ShouldEqual, "/out/482913_converted.mp4")
		So(ConvertedName("/out.d/video"), ShouldEqual, "/out.d/video_converted.mp4")
	})

	Convey("Remuxing refuses to run against an in-memory filesystem", t, func() {
		err := NewFFmpeg("", nil).Remux(context.Background(), "/x.mp4")
		So(errors.Is(err, ErrRemuxUnavailable), ShouldBeTrue)
	})
}
