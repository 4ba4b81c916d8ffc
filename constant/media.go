package constant

// Media extensions recognized while resolving pages and manifests.
const (
	ExtMP4  = ".mp4"
	ExtM3U8 = ".m3u8"
	ExtTS   = ".ts"
	ExtM4S  = ".m4s"
)

// DefaultCDNBase is the host serving identifier-keyed manifests and segments.
const DefaultCDNBase = "https://la3.killcovid2021.com"

// DefaultReferer is sent with every request unless overridden by configuration.
const DefaultReferer = "https://91porn.com/"
