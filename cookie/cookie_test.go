package cookie

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/zalando/go-keyring"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestParse(t *testing.T) {
	Convey("Given a browser cookie string", t, func() {
		pairs := Parse(" CLIPSHARE=abc123 ; language=cn_CN;broken; =nothing; token=a=b ")

		Convey("Pairs are split on the first '='", func() {
			So(pairs, ShouldResemble, []Pair{
				{"CLIPSHARE", "abc123"},
				{"language", "cn_CN"},
				{"token", "a=b"},
			})
		})

		Convey("The header round trips", func() {
			So(Header(pairs), ShouldEqual, "CLIPSHARE=abc123; language=cn_CN; token=a=b")
		})
	})
}

func TestNetscape(t *testing.T) {
	Convey("Given a key value cookie string", t, func() {
		jar := Netscape("a=1; b=2")

		Convey("Every pair becomes a wildcard line", func() {
			lines := strings.Split(strings.TrimSpace(jar), "\n")
			So(lines[0], ShouldEqual, NetscapeHeader)
			So(lines, ShouldContain, ".\tTRUE\t/\tFALSE\t0\ta\t1")
			So(lines, ShouldContain, ".\tTRUE\t/\tFALSE\t0\tb\t2")
		})
	})

	Convey("Given a Netscape file", t, func() {
		raw := "# Netscape HTTP Cookie File\n.site.test\tTRUE\t/\tTRUE\t0\tsid\txyz\n"

		Convey("It passes through unchanged", func() {
			So(IsNetscape(raw), ShouldBeTrue)
			So(Netscape(raw), ShouldEqual, raw)
		})

		Convey("Its pairs become a Cookie header", func() {
			So(ParseNetscape(raw), ShouldResemble, []Pair{{"sid", "xyz"}})
			So(HeaderValue(raw), ShouldEqual, "sid=xyz")
		})
	})

	Convey("Given a jar with comments and malformed lines", t, func() {
		raw := NetscapeHeader + "\r\n\n# comment\n.a.test\tTRUE\t/\tFALSE\t0\tx\t1\r\nbroken line\n.b.test\tTRUE\t/\tFALSE\t0\t\tnameless\n"

		Convey("Only complete lines are read", func() {
			So(ParseNetscape(raw), ShouldResemble, []Pair{{"x", "1"}})
		})
	})

	Convey("Header values pass through trimmed", t, func() {
		So(HeaderValue("  a=1; b=2 "), ShouldEqual, "a=1; b=2")
	})
}

func TestWriteJar(t *testing.T) {
	Convey("When writing a jar", t, func() {
		path, cleanup, err := WriteJar("sid=xyz")
		So(err, ShouldBeNil)

		Convey("The file holds the Netscape text", func() {
			data, err := filesystem.API().ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, Netscape("sid=xyz"))
		})

		Convey("Cleanup removes it", func() {
			cleanup()
			cleanup()
			exists, _ := filesystem.API().Exists(path)
			So(exists, ShouldBeFalse)
		})
	})
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()

	Convey("Given an empty keyring", t, func() {
		So(Delete(), ShouldBeNil)

		Convey("Loading yields nothing without an error", func() {
			raw, err := Load()
			So(err, ShouldBeNil)
			So(raw, ShouldBeEmpty)
		})

		Convey("A saved cookie can be loaded and deleted", func() {
			So(Save("  sid=xyz \n"), ShouldBeNil)

			raw, err := Load()
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "sid=xyz")

			So(Delete(), ShouldBeNil)
			raw, _ = Load()
			So(raw, ShouldBeEmpty)
		})
	})
}
