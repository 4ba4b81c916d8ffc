// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/key"
	"github.com/vidfetch/vidfetch/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.CDNBase, constant.DefaultCDNBase, "Base URL serving identifier-keyed manifests\nManifests are fetched from {base}/m3u8/{id}/{id}.m3u8")
	register(key.FetchTimeout, 30, "Per-request timeout in seconds")
	register(key.FetchRetries, 3, "Extra attempts for transient failures (429, 5xx, network errors)\nBackoff is min(2^attempt, 30) seconds")
	register(key.FetchProxy, "", "Proxy URL applied to both http and https requests")
	register(key.FetchReferer, constant.DefaultReferer, "Referer header sent with every request")
	register(key.FetchFingerprint, false, "Use a Chrome TLS fingerprint for direct requests\nIgnored when a proxy is set")
	register(key.DownloadPath, "", "Directory to save videos to\nThe current directory is used if empty")
	register(key.DownloadQuality, "best", "Quality passed to the extractor.\nAvailable options are: best, worst, best-mp4, best-audio")
	register(key.DownloadDelayMin, 100, "Minimum pause between segment requests, in milliseconds")
	register(key.DownloadDelayMax, 300, "Maximum pause between segment requests, in milliseconds")
	register(key.DownloadMerge, true, "Concatenate segments into a single file\nWhen disabled the raw segment directory is kept")
	register(key.DownloadRemux, true, "Remux assembled segments with ffmpeg when it is available")
	register(key.ExtractorBinary, "yt-dlp", "yt-dlp executable used as the generic extractor")
	register(key.FFmpegBinary, "ffmpeg", "ffmpeg executable used for remuxing")
	register(key.CookieKeyring, true, "Fall back to the cookie stored in the system keyring when none is given")
	register(key.TUIPopupLength, 300, "Maximum number of characters shown in the error popup\nThe log area always keeps the full message")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
