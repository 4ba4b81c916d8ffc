package manifest

import (
	"fmt"
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

const playlist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:10.0,
482913000.ts
#EXTINF:10.0,
482913001.ts?token=abc

#EXTINF:4.2,
482913002.ts
#EXT-X-ENDLIST
`

func TestParseSegments(t *testing.T) {
	Convey("Given a transport stream playlist", t, func() {
		segments, err := ParseSegments(playlist)

		Convey("Segments are returned in playlist order", func() {
			So(err, ShouldBeNil)
			So(segments, ShouldResemble, []string{"482913000.ts", "482913001.ts?token=abc", "482913002.ts"})
		})
	})

	Convey("Given a fragmented mp4 playlist", t, func() {
		segments, err := ParseSegments("#EXTM3U\n#EXT-X-MAP:URI=\"init.mp4\"\n#EXTINF:4,\nchunk-1.m4s\n#EXTINF:4,\nchunk-2.m4s\n")

		Convey("The .m4s fallback is used", func() {
			So(err, ShouldBeNil)
			So(segments, ShouldResemble, []string{"chunk-1.m4s", "chunk-2.m4s"})
		})
	})

	Convey("Given a playlist with both kinds", t, func() {
		segments, err := ParseSegments("a.m4s\nb.ts\n")

		Convey(".ts entries win", func() {
			So(err, ShouldBeNil)
			So(segments, ShouldResemble, []string{"b.ts"})
		})
	})

	Convey("Given a playlist without segments", t, func() {
		for _, text := range []string{"", "#EXTM3U\n#EXT-X-ENDLIST\n", "#EXTM3U\nvariant.m3u8\n"} {
			_, err := ParseSegments(text)
			So(err, ShouldEqual, ErrInvalidManifest)
		}
	})
}

func TestSegmentURL(t *testing.T) {
	segments := []string{"s0.ts", "s1.ts", "s2.ts"}

	Convey("Given a manifest with a base URL", t, func() {
		m := &Manifest{BaseURL: mo.Some("https://media.example/hls/"), Identifier: "123456", Segments: segments}

		Convey("Every URL is base + segment, in order", func() {
			urls := m.SegmentURLs("https://cdn.example")
			for i, s := range segments {
				So(urls[i], ShouldEqual, "https://media.example/hls/"+s)
			}
		})
	})

	Convey("Given a manifest without a base URL", t, func() {
		m := &Manifest{Identifier: "482913", Segments: segments}

		Convey("URLs follow the CDN template", func() {
			for _, base := range []string{"https://cdn.example", "https://cdn.example/"} {
				urls := m.SegmentURLs(base)
				for i, s := range segments {
					So(urls[i], ShouldEqual, fmt.Sprintf("https://cdn.example/m3u8/482913/%s", s))
				}
			}
		})
	})
}

func TestURLHelpers(t *testing.T) {
	Convey("URLFor builds the identifier-keyed manifest URL", t, func() {
		So(URLFor("https://cdn.example/", "482913"), ShouldEqual, "https://cdn.example/m3u8/482913/482913.m3u8")
	})

	Convey("ParentURL keeps the trailing slash", t, func() {
		So(ParentURL("https://media.example/hls/index.m3u8"), ShouldEqual, "https://media.example/hls/")
		So(ParentURL("index.m3u8"), ShouldBeEmpty)
	})

	Convey("ParentURL ignores slashes in the query and fragment", t, func() {
		So(ParentURL("https://media.example/hls/index.m3u8?t=a/b"), ShouldEqual, "https://media.example/hls/")
		So(ParentURL("https://media.example/hls/index.m3u8#x/y"), ShouldEqual, "https://media.example/hls/")
		So(ParentURL("hls/index.m3u8?t=a/b"), ShouldEqual, "hls/")
	})
}
