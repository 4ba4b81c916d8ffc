package cmd

import (
	"encoding/json"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/key"
	"github.com/vidfetch/vidfetch/style"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string")
	versionCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// versionInfo is the build metadata plus the external programs that would be run.
type versionInfo struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	BuiltAt   string `json:"built_at"`
	BuiltBy   string `json:"built_by"`
	Platform  string `json:"platform"`
	Go        string `json:"go"`
	Extractor string `json:"extractor"`
	FFmpeg    string `json:"ffmpeg"`
}

func resolvedBinary(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return "not found (" + name + ")"
}

var versionTemplate = lo.Must(template.New("version").Funcs(template.FuncMap{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold .Revision }}
  {{ faint "Build Date" }}      {{ bold .BuiltAt }}
  {{ faint "Built By" }}        {{ bold .BuiltBy }}
  {{ faint "Platform" }}        {{ bold .Platform }}
  {{ faint "Go" }}              {{ bold .Go }}
  {{ faint "yt-dlp" }}          {{ bold .Extractor }}
  {{ faint "ffmpeg" }}          {{ bold .FFmpeg }}
`))

// versionCmd displays application version and build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build metadata",
	Long:  "Display the application version, build revision, platform, and the yt-dlp and ffmpeg executables in use.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		info := versionInfo{
			App:       constant.App,
			Version:   constant.Version,
			Revision:  constant.Revision,
			BuiltAt:   strings.TrimSpace(constant.BuiltAt),
			BuiltBy:   constant.BuiltBy,
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			Go:        runtime.Version(),
			Extractor: resolvedBinary(viper.GetString(key.ExtractorBinary)),
			FFmpeg:    resolvedBinary(viper.GetString(key.FFmpegBinary)),
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(info))
			return
		}

		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), info))
	},
}
