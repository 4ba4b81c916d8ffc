package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/config"
	"github.com/vidfetch/vidfetch/cookie"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/key"
	"github.com/zalando/go-keyring"
)

func init() {
	filesystem.SetMemMapFs()
	keyring.MockInit()
}

func newTestCommand(args ...string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("cookie", "", "")
	cmd.Flags().String("id", "", "")
	cmd.Flags().Bool("no-merge", false, "")
	So(cmd.Flags().Parse(args), ShouldBeNil)
	return cmd
}

func TestResolveCookie(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(config.Setup(), ShouldBeNil)
		So(cookie.Delete(), ShouldBeNil)

		Convey("A --cookie value is used as is", func() {
			raw, err := resolveCookie(newTestCommand("--cookie", " a=1; b=2 "))
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "a=1; b=2")
		})

		Convey("A --cookie value starting with @ names a file", func() {
			So(filesystem.API().WriteFile("/cookies.txt", []byte("sid=xyz\n"), 0o600), ShouldBeNil)

			raw, err := resolveCookie(newTestCommand("--cookie", "@/cookies.txt"))
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "sid=xyz")
		})

		Convey("A missing cookie file is an error", func() {
			_, err := resolveCookie(newTestCommand("--cookie", "@/missing.txt"))
			So(err, ShouldNotBeNil)
		})

		Convey("Without --cookie the saved cookie is used", func() {
			So(cookie.Save("saved=1"), ShouldBeNil)

			raw, err := resolveCookie(newTestCommand())
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "saved=1")

			Convey("Unless the keyring is disabled", func() {
				viper.Set(key.CookieKeyring, false)
				defer viper.Set(key.CookieKeyring, true)

				raw, err := resolveCookie(newTestCommand())
				So(err, ShouldBeNil)
				So(raw, ShouldBeEmpty)
			})
		})
	})
}

func TestNewRequest(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(config.Setup(), ShouldBeNil)
		So(cookie.Delete(), ShouldBeNil)
		viper.Set(key.DownloadPath, "/videos")
		defer viper.Set(key.DownloadPath, "")

		Convey("Flags and settings become the request", func() {
			req, err := newRequest(newTestCommand("--id", " 482913 "))
			So(err, ShouldBeNil)
			So(req.OutputDir, ShouldEqual, "/videos")
			So(req.Quality, ShouldEqual, "best")
			So(req.Identifier, ShouldEqual, "482913")
			So(req.Merge, ShouldBeTrue)
			So(req.Cookie, ShouldBeEmpty)
		})

		Convey("--no-merge overrides download.merge", func() {
			req, err := newRequest(newTestCommand("--no-merge"))
			So(err, ShouldBeNil)
			So(req.Merge, ShouldBeFalse)
		})
	})
}

func TestNewServices(t *testing.T) {
	Convey("Given an invalid proxy", t, func() {
		So(config.Setup(), ShouldBeNil)
		viper.Set(key.FetchProxy, "://bad")
		defer viper.Set(key.FetchProxy, "")

		Convey("Building the services fails", func() {
			_, err := newServices()
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given the default configuration", t, func() {
		So(config.Setup(), ShouldBeNil)

		Convey("Every collaborator is built", func() {
			svc, err := newServices()
			So(err, ShouldBeNil)
			So(svc.pipeline, ShouldNotBeNil)
			So(svc.resolver.CDNBase(), ShouldEqual, viper.GetString(key.CDNBase))
			So(svc.extractor.Binary(), ShouldEqual, "yt-dlp")
		})
	})
}
