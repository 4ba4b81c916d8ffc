// Package media describes a video independently of how it will be downloaded.
package media

import (
	"github.com/vidfetch/vidfetch/manifest"
)

// Format is one downloadable rendition.
type Format struct {
	ID         string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution"`
	Filesize   int64  `json:"filesize"`
	Quality    string `json:"quality"`
}

// Info is what is known about a video before downloading it.
//
// At most one of Manifest and DirectURL is set. A manifest means the video is
// downloaded segment by segment, a direct URL means it is handed to the extractor.
type Info struct {
	Title       string   `json:"title"`
	Duration    float64  `json:"duration" jsonschema:"description=Length in seconds"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Uploader    string   `json:"uploader,omitempty"`
	ViewCount   int64    `json:"view_count"`
	Description string   `json:"description,omitempty"`
	Formats     []Format `json:"formats"`
	IsM3U8      bool     `json:"is_m3u8"`

	Manifest  *manifest.Manifest `json:"manifest,omitempty"`
	DirectURL string             `json:"direct_url,omitempty"`
}

// DedupFormats keeps the first format of each resolution, skipping audio-only ones.
func DedupFormats(formats []RawFormat) []Format {
	seen := make(map[string]bool)
	result := make([]Format, 0, len(formats))

	for _, f := range formats {
		if f.VCodec == "none" {
			continue
		}

		resolution := f.Resolution
		if resolution == "" {
			resolution = "unknown"
		}
		if seen[resolution] {
			continue
		}
		seen[resolution] = true

		ext := f.Ext
		if ext == "" {
			ext = "mp4"
		}
		quality := f.Note
		if quality == "" {
			quality = "unknown"
		}

		result = append(result, Format{
			ID:         f.ID,
			Ext:        ext,
			Resolution: resolution,
			Filesize:   f.Filesize,
			Quality:    quality,
		})
	}

	return result
}

// RawFormat is a format as reported by the extractor.
type RawFormat struct {
	ID         string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution"`
	Filesize   int64  `json:"filesize"`
	Note       string `json:"format_note"`
	VCodec     string `json:"vcodec"`
}
