package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			So(Setup(), ShouldBeNil)
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.FetchRetries), ShouldEqual, 3)
			So(viper.GetString(key.CDNBase), ShouldEqual, "https://la3.killcovid2021.com")
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("download.delay_min"), ShouldEqual, "download_delay_min")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		field := Default[key.FetchTimeout]

		Convey("Env should be prefixed with the app name", func() {
			So(field.Env(), ShouldEqual, "VIDFETCH_FETCH_TIMEOUT")
		})

		Convey("Pretty should mention the key and description", func() {
			pretty := field.Pretty()
			So(pretty, ShouldContainSubstring, key.FetchTimeout)
			So(pretty, ShouldContainSubstring, "timeout")
		})

		Convey("JSON should expose the type name", func() {
			b, err := field.MarshalJSON()
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"type":"int"`)
		})
	})
}
