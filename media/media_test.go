package media

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDedupFormats(t *testing.T) {
	Convey("Given formats reported by the extractor", t, func() {
		formats := DedupFormats([]RawFormat{
			{ID: "140", Ext: "m4a", Resolution: "audio only", VCodec: "none"},
			{ID: "18", Ext: "mp4", Resolution: "640x360", Note: "360p", Filesize: 1024},
			{ID: "243", Ext: "webm", Resolution: "640x360", Note: "360p"},
			{ID: "22", Resolution: "1280x720"},
			{ID: "x"},
		})

		Convey("Audio only formats are skipped and each resolution appears once", func() {
			So(formats, ShouldResemble, []Format{
				{ID: "18", Ext: "mp4", Resolution: "640x360", Filesize: 1024, Quality: "360p"},
				{ID: "22", Ext: "mp4", Resolution: "1280x720", Quality: "unknown"},
				{ID: "x", Ext: "mp4", Resolution: "unknown", Quality: "unknown"},
			})
		})
	})
}
