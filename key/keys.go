// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// CDN - where identifier-keyed manifests and segments live.
const (
	CDNBase = "cdn.base"
)

// Fetching - these keys tune the HTTP layer shared by page, manifest and segment requests.
const (
	FetchTimeout     = "fetch.timeout"
	FetchRetries     = "fetch.retries"
	FetchProxy       = "fetch.proxy"
	FetchReferer     = "fetch.referer"
	FetchFingerprint = "fetch.fingerprint"
)

// Downloading - these keys govern segment pacing, assembly and the output location.
const (
	DownloadPath     = "download.path"
	DownloadQuality  = "download.quality"
	DownloadDelayMin = "download.delay_min"
	DownloadDelayMax = "download.delay_max"
	DownloadMerge    = "download.merge"
	DownloadRemux    = "download.remux"
)

// External binaries.
const (
	ExtractorBinary = "extractor.binary"
	FFmpegBinary    = "ffmpeg.binary"
)

// Cookies.
const (
	CookieKeyring = "cookie.keyring"
)

// Terminal User Interface (TUI).
const (
	TUIPopupLength = "tui.popup_length"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)
