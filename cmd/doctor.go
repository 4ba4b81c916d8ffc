package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/extractor"
	"github.com/vidfetch/vidfetch/icon"
	"github.com/vidfetch/vidfetch/key"
	"github.com/vidfetch/vidfetch/log"
	"github.com/vidfetch/vidfetch/style"
)

// dependency is an external program vidfetch can run.
type dependency struct {
	name     string
	binary   string
	required bool
	purpose  string
	install  map[string]string
}

func dependencies() []dependency {
	return []dependency{
		{
			name:     "yt-dlp",
			binary:   viper.GetString(key.ExtractorBinary),
			required: true,
			purpose:  "extracts and downloads videos before any manifest is resolved",
			install: map[string]string{
				constant.Darwin:  "brew install yt-dlp",
				constant.Linux:   "pipx install yt-dlp",
				constant.Windows: "scoop install yt-dlp",
			},
		},
		{
			name:    "ffmpeg",
			binary:  viper.GetString(key.FFmpegBinary),
			purpose: "remuxes assembled segments into a standard mp4",
			install: map[string]string{
				constant.Darwin:  "brew install ffmpeg",
				constant.Linux:   "sudo apt install ffmpeg",
				constant.Windows: "scoop install ffmpeg",
			},
		},
	}
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().Bool("install", false, "Download a managed yt-dlp build when none is found")
}

// doctorCmd verifies the availability of the external programs vidfetch drives.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that yt-dlp and ffmpeg are available",
	Run: func(cmd *cobra.Command, args []string) {
		install := lo.Must(cmd.Flags().GetBool("install"))
		missingRequired := false

		for _, dep := range dependencies() {
			path, err := exec.LookPath(dep.binary)
			if err == nil {
				fmt.Printf("%s %s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Bold(dep.name), style.Faint(path))
				continue
			}

			if dep.name == "yt-dlp" && install {
				path, err := installExtractor(cmd.Context())
				if err == nil {
					fmt.Printf("%s %s installed to %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Bold(dep.name), path)
					fmt.Println(style.Faint(fmt.Sprintf("  set it with: %s config set %s %s", constant.App, key.ExtractorBinary, path)))
					continue
				}
				log.Errorf("install %s: %s", dep.name, err)
			}

			printMissingDependency(dep)
			if dep.required {
				missingRequired = true
			}
		}

		if missingRequired {
			os.Exit(1)
		}
	},
}

func installExtractor(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("%s installing yt-dlp...\n", icon.Get(icon.Progress))
	return extractor.Install(ctx)
}

func printMissingDependency(dep dependency) {
	border := lo.Ternary(dep.required, color.HiRed, color.Yellow)

	heading := fmt.Sprintf("%s Missing dependency: %s", icon.Get(icon.Fail), dep.name)
	if !dep.required {
		heading = fmt.Sprintf("%s Optional dependency missing: %s", icon.Get(icon.Warn), dep.name)
	}

	title := style.New().Bold(true).Foreground(border).Render(heading)
	body := fmt.Sprintf("'%s' was not found in your PATH.\nvidfetch uses it because it %s.", dep.binary, dep.purpose)

	suggestion := ""
	if installCmd, ok := dep.install[runtime.GOOS]; ok {
		suggestion = fmt.Sprintf("\nTo install it, try running:\n  %s", style.New().Foreground(color.Purple).Bold(true).Render(installCmd))
	}
	if dep.name == "yt-dlp" {
		suggestion += fmt.Sprintf("\nOr let vidfetch fetch it:\n  %s", style.Bold(constant.App+" doctor --install"))
	}

	fmt.Println(style.Box(border).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			body,
			suggestion,
		),
	))
}
