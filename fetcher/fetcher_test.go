package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidfetch/vidfetch/log"
)

// sequenceServer answers with the given statuses in order, then 200 forever.
func sequenceServer(statuses ...int) (*httptest.Server, *atomic.Int32) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	return server, &hits
}

func newRecordingFetcher(config Config) (*Fetcher, *[]time.Duration) {
	var sleeps []time.Duration
	config.Logger = log.Discard()
	config.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return New(config), &sleeps
}

func TestBackoff(t *testing.T) {
	Convey("Backoff is min(2^k, 30) seconds", t, func() {
		expected := []time.Duration{1, 2, 4, 8, 16, 30, 30, 30}
		for k, want := range expected {
			So(Backoff(k), ShouldEqual, want*time.Second)
		}

		Convey("and never decreases", func() {
			for k := 1; k < 64; k++ {
				So(Backoff(k), ShouldBeGreaterThanOrEqualTo, Backoff(k-1))
				So(Backoff(k), ShouldBeLessThanOrEqualTo, 30*time.Second)
			}
		})
	})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a server failing with 500 three times before succeeding", t, func() {
		server, hits := sequenceServer(500, 500, 500)
		defer server.Close()
		f, sleeps := newRecordingFetcher(Config{Retries: 3})

		Convey("The fetch succeeds after sleeping 1s, 2s and 4s", func() {
			result := f.Fetch(ctx, server.URL, AsText())
			So(result.OK(), ShouldBeTrue)
			So(result.Text(), ShouldEqual, "payload")
			So(result.Attempts, ShouldEqual, 4)
			So(hits.Load(), ShouldEqual, 4)
			So(*sleeps, ShouldResemble, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second})
		})
	})

	Convey("Given permanent statuses", t, func() {
		for status, failure := range map[int]Failure{403: FailureAccessDenied, 404: FailureNotFound} {
			server, hits := sequenceServer(status, status, status, status)
			f, sleeps := newRecordingFetcher(Config{Retries: 3})

			result := f.Fetch(ctx, server.URL)
			server.Close()

			So(result.OK(), ShouldBeFalse)
			So(result.Failure, ShouldEqual, failure)
			So(result.Status, ShouldEqual, status)
			So(hits.Load(), ShouldEqual, 1)
			So(*sleeps, ShouldBeEmpty)
		}
	})

	Convey("Given transient statuses that never clear", t, func() {
		for _, status := range []int{429, 500, 502, 503, 504} {
			server, hits := sequenceServer(status, status, status, status, status)
			f, sleeps := newRecordingFetcher(Config{Retries: 3})

			result := f.Fetch(ctx, server.URL)
			server.Close()

			So(result.Failure, ShouldEqual, FailureExhausted)
			So(result.Body, ShouldBeNil)
			So(hits.Load(), ShouldEqual, 4)
			So(len(*sleeps), ShouldEqual, 3)
		}
	})

	Convey("Given an unreachable host", t, func() {
		server, _ := sequenceServer()
		url := server.URL
		server.Close()

		f, sleeps := newRecordingFetcher(Config{})

		Convey("Network errors are retried under the same schedule", func() {
			result := f.Fetch(ctx, url, WithRetries(2))
			So(result.Failure, ShouldEqual, FailureExhausted)
			So(result.Attempts, ShouldEqual, 3)
			So(*sleeps, ShouldResemble, []time.Duration{time.Second, 2 * time.Second})
		})
	})

	Convey("Given a canceled context", t, func() {
		server, hits := sequenceServer()
		defer server.Close()
		f, _ := newRecordingFetcher(Config{})

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		Convey("No request is sent", func() {
			result := f.Fetch(canceled, server.URL)
			So(result.Failure, ShouldEqual, FailureCanceled)
			So(hits.Load(), ShouldEqual, 0)
		})
	})

	Convey("Given a cookie and a compressed response", t, func() {
		var gotCookie, gotReferer string
		var payload bytes.Buffer
		bw := brotli.NewWriter(&payload)
		_, _ = bw.Write([]byte("compressed"))
		_ = bw.Close()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCookie = r.Header.Get("Cookie")
			gotReferer = r.Header.Get("Referer")

			if r.URL.Path == "/gzip" {
				w.Header().Set("Content-Encoding", "gzip")
				gz := gzip.NewWriter(w)
				_, _ = gz.Write([]byte("zipped"))
				_ = gz.Close()
				return
			}

			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(payload.Bytes())
		}))
		defer server.Close()

		f, _ := newRecordingFetcher(Config{Cookie: " a=1; b=2 ", Headers: DefaultHeaders("https://example.com/")})

		Convey("Headers are sent and the body is decoded", func() {
			result := f.Fetch(ctx, server.URL)
			So(result.Text(), ShouldEqual, "compressed")
			So(gotCookie, ShouldEqual, "a=1; b=2")
			So(gotReferer, ShouldEqual, "https://example.com/")

			So(f.Fetch(ctx, server.URL+"/gzip").Text(), ShouldEqual, "zipped")
		})

		Convey("SetCookie replaces the cookie for later requests", func() {
			f.SetCookie("")
			f.Fetch(ctx, server.URL)
			So(gotCookie, ShouldBeEmpty)
		})

		Convey("A Netscape cookie file is sent as a header", func() {
			f.SetCookie("# Netscape HTTP Cookie File\n.site.test\tTRUE\t/\tFALSE\t0\tsid\txyz\n")
			f.Fetch(ctx, server.URL)
			So(gotCookie, ShouldEqual, "sid=xyz")
			So(f.Cookie(), ShouldEqual, "sid=xyz")
		})
	})
}

func TestFetchLimit(t *testing.T) {
	Convey("Given a body larger than the limit", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("x"), 4096))
		}))
		defer server.Close()

		f, _ := newRecordingFetcher(Config{})

		Convey("Only the first bytes are kept", func() {
			result := f.Fetch(context.Background(), server.URL, AsText(), WithLimit(100))
			So(result.OK(), ShouldBeTrue)
			So(len(result.Body), ShouldEqual, 100)
		})

		Convey("Without a limit the whole body is read", func() {
			result := f.Fetch(context.Background(), server.URL)
			So(len(result.Body), ShouldEqual, 4096)
		})
	})
}

func TestFailure(t *testing.T) {
	Convey("Failures are errors", t, func() {
		var err error = FailureNotFound
		So(err.Error(), ShouldContainSubstring, "404")
		So(Result{Failure: FailureAccessDenied}.Err(), ShouldEqual, FailureAccessDenied)
		So(Result{}.Err(), ShouldBeNil)
	})
}
