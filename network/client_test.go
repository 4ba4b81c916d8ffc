package network

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewClient(t *testing.T) {
	Convey("Given client options", t, func() {
		Convey("A zero timeout falls back to the default", func() {
			client, err := NewClient(Options{})
			So(err, ShouldBeNil)
			So(client.Timeout, ShouldEqual, DefaultTimeout)
		})

		Convey("A proxy is applied to every scheme", func() {
			client, err := NewClient(Options{Proxy: "http://127.0.0.1:8080", Fingerprint: true, Timeout: time.Second})
			So(err, ShouldBeNil)

			transport, ok := client.Transport.(*http.Transport)
			So(ok, ShouldBeTrue)

			for _, target := range []string{"http://example.com", "https://example.com"} {
				req, _ := http.NewRequest(http.MethodGet, target, nil)
				proxy, err := transport.Proxy(req)
				So(err, ShouldBeNil)
				So(proxy.Host, ShouldEqual, "127.0.0.1:8080")
			}
		})

		Convey("An invalid proxy is rejected", func() {
			_, err := NewClient(Options{Proxy: "://bad"})
			So(err, ShouldNotBeNil)
		})

		Convey("Fingerprinting installs the Chrome transport", func() {
			client, err := NewClient(Options{Fingerprint: true})
			So(err, ShouldBeNil)
			_, ok := client.Transport.(*chromeTransport)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestChromeTransport(t *testing.T) {
	Convey("Given a plain http server", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		Convey("Plain http requests go over HTTP/1.1", func() {
			client := &http.Client{Transport: newChromeTransport(time.Second)}
			resp, err := client.Get(server.URL)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			So(string(body), ShouldEqual, "ok")
		})
	})
}
