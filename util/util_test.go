package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vidfetch/vidfetch/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("file:name?.txt"), ShouldEqual, "file_name_.txt")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("file__name.txt"), ShouldEqual, "file_name.txt")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-file-name-"), ShouldEqual, "file-name")
		})
		Convey("Should keep segment names intact", func() {
			So(SanitizeFilename("482913007.ts"), ShouldEqual, "482913007.ts")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "segment", "segments"), ShouldEqual, "1 segment")
		So(Quantify(0, "segment", "segments"), ShouldEqual, "0 segments")
		So(Quantify(2, "segment", "segments"), ShouldEqual, "2 segments")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/My Video.mp4"), ShouldEqual, "My Video")
		So(FileStem("file"), ShouldEqual, "file")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory with files", t, func() {
		fs := filesystem.API()
		So(fs.MkdirAll("/tmp/util/staging", 0o755), ShouldBeNil)
		So(fs.WriteFile("/tmp/util/staging/00000_a.ts", []byte("a"), 0o644), ShouldBeNil)
		So(fs.WriteFile("/tmp/util/file.mp4", []byte("b"), 0o644), ShouldBeNil)

		Convey("Both files and directories are removed", func() {
			So(Delete("/tmp/util/staging"), ShouldBeNil)
			So(Delete("/tmp/util/file.mp4"), ShouldBeNil)

			exists, _ := fs.Exists("/tmp/util/staging")
			So(exists, ShouldBeFalse)
			exists, _ = fs.Exists("/tmp/util/file.mp4")
			So(exists, ShouldBeFalse)
		})

		Convey("Missing paths are reported", func() {
			So(Delete("/tmp/util/missing"), ShouldNotBeNil)
		})
	})
}
