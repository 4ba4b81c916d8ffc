// Package fetcher retrieves pages, manifests and segments with browser-like headers,
// retrying transient failures with capped exponential backoff.
//
// A Fetcher never returns an error to its caller. Every call produces a Result that
// either carries a body or a Failure; diagnostics go to the injected logger.
package fetcher

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sirupsen/logrus"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/cookie"
	"github.com/vidfetch/vidfetch/network"
	"golang.org/x/net/html/charset"
)

// DefaultRetries is the number of extra attempts made for transient failures.
const DefaultRetries = 3

// DefaultHeaders returns the header set sent with every request.
func DefaultHeaders(referer string) http.Header {
	if referer == "" {
		referer = constant.DefaultReferer
	}

	h := make(http.Header)
	h.Set("User-Agent", constant.UserAgent)
	h.Set("Referer", referer)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Cache-Control", "max-age=0")
	return h
}

// Config is used to construct a Fetcher.
type Config struct {
	// Client defaults to network.Client.
	Client *http.Client
	// Headers default to DefaultHeaders with the default referer.
	Headers http.Header
	// Cookie is a raw "name=value; name2=value2" string sent as the Cookie header.
	Cookie string
	// Retries defaults to DefaultRetries. Use a negative value for no retries.
	Retries int
	Logger  logrus.FieldLogger
	// Sleep waits between attempts. It must return early with the context error on cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Fetcher performs GET requests under the retry policy.
type Fetcher struct {
	client  *http.Client
	headers http.Header
	cookie  atomic.Pointer[string]
	retries int
	log     logrus.FieldLogger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New constructs a Fetcher from config.
func New(config Config) *Fetcher {
	f := &Fetcher{
		client:  config.Client,
		headers: config.Headers,
		retries: config.Retries,
		log:     config.Logger,
		sleep:   config.Sleep,
	}

	if f.client == nil {
		f.client = network.Client
	}
	if f.headers == nil {
		f.headers = DefaultHeaders("")
	}
	if f.retries == 0 {
		f.retries = DefaultRetries
	} else if f.retries < 0 {
		f.retries = 0
	}
	if f.log == nil {
		f.log = logrus.StandardLogger()
	}
	if f.sleep == nil {
		f.sleep = sleepContext
	}

	f.SetCookie(config.Cookie)
	return f
}

// SetCookie replaces the cookie sent with every request. raw may be a header
// value or Netscape cookie file text. Call it between operations, not during one.
func (f *Fetcher) SetCookie(raw string) {
	raw = cookie.HeaderValue(raw)
	f.cookie.Store(&raw)
}

// Cookie returns the raw cookie string in use.
func (f *Fetcher) Cookie() string {
	if c := f.cookie.Load(); c != nil {
		return *c
	}
	return ""
}

// Result is the outcome of a fetch.
type Result struct {
	Body []byte
	// Status is the last HTTP status seen, 0 if no response arrived.
	Status  int
	Failure Failure
	// Attempts is how many requests were sent.
	Attempts int
}

// OK reports whether the fetch produced a body.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}

// Text returns the body as a string.
func (r Result) Text() string {
	return string(r.Body)
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return r.Failure
}

type options struct {
	asText  bool
	retries int
	limit   int64
}

// Option customizes a single Fetch call.
type Option func(*options)

// AsText decodes the body to UTF-8 using the charset announced by the server.
func AsText() Option {
	return func(o *options) { o.asText = true }
}

// WithLimit truncates the body after n bytes. The rest of the response is not read.
func WithLimit(n int64) Option {
	return func(o *options) { o.limit = n }
}

// WithRetries overrides the number of extra attempts for this call.
func WithRetries(n int) Option {
	return func(o *options) { o.retries = max(n, 0) }
}

// Fetch retrieves url. 403 and 404 fail at once; every other failure is retried
// with Backoff delays until the retry budget is spent.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts ...Option) Result {
	o := options{retries: f.retries}
	for _, opt := range opts {
		opt(&o)
	}

	log := f.log.WithField("url", url)
	var result Result

	for attempt := 0; attempt <= o.retries; attempt++ {
		if ctx.Err() != nil {
			result.Failure = FailureCanceled
			return result
		}

		result.Attempts++
		log.Debugf("request attempt %d/%d", attempt+1, o.retries+1)

		status, body, err := f.do(ctx, url, o)
		result.Status = status

		switch {
		case err != nil:
			if ctx.Err() != nil {
				result.Failure = FailureCanceled
				return result
			}
			log.WithError(err).Warnf("request failed (attempt %d/%d)", attempt+1, o.retries+1)
		case status == http.StatusOK:
			log.Debugf("response: status=%d, size=%d bytes", status, len(body))
			result.Body = body
			result.Failure = FailureNone
			return result
		default:
			if failure, ok := permanent[status]; ok {
				log.Errorf("%s, not retrying", failure)
				result.Failure = failure
				return result
			}

			if _, ok := transient[status]; ok {
				log.Warnf("server responded %d, will retry", status)
			} else {
				log.Errorf("unexpected status %d", status)
			}
		}

		if attempt < o.retries {
			delay := Backoff(attempt)
			log.Infof("waiting %s before retrying", delay)
			if err := f.sleep(ctx, delay); err != nil {
				result.Failure = FailureCanceled
				return result
			}
		}
	}

	log.Errorf("giving up after %d attempts", result.Attempts)
	result.Failure = FailureExhausted
	return result
}

func (f *Fetcher) do(ctx context.Context, url string, o options) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header = f.headers.Clone()
	if cookie := f.Cookie(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	}

	reader, err := decode(resp)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if o.limit > 0 {
		reader = io.LimitReader(reader, o.limit)
	}

	if o.asText {
		reader, err = charset.NewReader(reader, resp.Header.Get("Content-Type"))
		if err != nil {
			return resp.StatusCode, nil, fmt.Errorf("decode charset: %w", err)
		}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// decode undoes the content encoding negotiated through Accept-Encoding.
func decode(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return zlib.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
