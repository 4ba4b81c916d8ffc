package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/icon"
	"github.com/vidfetch/vidfetch/pipeline"
	"github.com/vidfetch/vidfetch/progress"
	"github.com/vidfetch/vidfetch/style"
	"github.com/vidfetch/vidfetch/tui"
	"github.com/vidfetch/vidfetch/util"
)

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().Bool("no-merge", false, "Keep the downloaded segments instead of assembling them")
	downloadCmd.Flags().Bool("plain", false, "Print progress lines instead of the interactive screen")
	downloadCmd.Flags().BoolP("json", "j", false, "Print the result as a JSON string, implies --plain")
}

// downloadCmd downloads a single video.
var downloadCmd = &cobra.Command{
	Use:     "download [url]",
	Short:   "Download a video, resolving its manifest when the extractor fails",
	Aliases: []string{"dl", "get"},
	Args:    cobra.ExactArgs(1),
	Example: "  vidfetch download https://example.com/view_video.php?viewkey=abc\n" +
		"  vidfetch download --id 482913 --no-merge https://example.com/video",
	Run: func(cmd *cobra.Command, args []string) {
		runDownload(cmd, args[0])
	},
}

func runDownload(cmd *cobra.Command, url string) {
	svc, err := newServices()
	handleErr(err)

	req, err := newRequest(cmd)
	handleErr(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	plain, _ := cmd.Flags().GetBool("plain")
	asJson, _ := cmd.Flags().GetBool("json")

	var result *pipeline.Result
	if util.IsInteractive() && !plain && !asJson {
		result, err = tui.Run(ctx, tui.Options{URL: url, Request: req, Service: svc.pipeline})
	} else {
		svc.pipeline.Reporter().Register(printProgress)
		result, err = svc.pipeline.Download(ctx, url, req)
	}

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled) && asJson && result != nil:
			_ = json.NewEncoder(os.Stdout).Encode(result)
		case errors.Is(err, context.Canceled):
			reportInterrupted(os.Stdout, result)
		default:
			if hint := pipeline.Hint(err); hint != "" {
				_, _ = fmt.Fprintln(os.Stderr, style.Faint(hint))
			}
		}
		handleErr(err)
	}

	if asJson {
		handleErr(json.NewEncoder(os.Stdout).Encode(result))
		if result == nil || !result.Success() {
			os.Exit(1)
		}
		return
	}

	if !reportResult(result) {
		os.Exit(1)
	}
}

// printProgress writes one line per report, for output that is not a terminal.
func printProgress(downloaded, total int64, percentage float64, speed, eta, size string) {
	if speed == progress.Complete {
		_, _ = fmt.Fprintf(os.Stderr, "%s 100%%\n", icon.Get(icon.Download))
		return
	}

	_, _ = fmt.Fprintf(os.Stderr, "%s %5.1f%%  %s  %s  ETA %s\n", icon.Get(icon.Download), percentage, size, speed, eta)
}

// reportInterrupted prints what a canceled download left behind.
func reportInterrupted(w io.Writer, result *pipeline.Result) {
	if result == nil {
		return
	}

	_, _ = fmt.Fprintf(w, "%s interrupted", style.Fg(color.Yellow)(icon.Get(icon.Warn)))
	if outcome := result.Outcome; outcome != nil {
		_, _ = fmt.Fprintf(w, " after %d/%d segments", outcome.Succeeded, outcome.Attempted)
	}
	_, _ = fmt.Fprintln(w)

	if path, ok := result.Path.Get(); ok {
		_, _ = fmt.Fprintf(w, "  kept %s\n", style.Fg(color.Purple)(path))
	}
}

// reportResult prints the outcome of a download and reports whether it was complete.
func reportResult(result *pipeline.Result) bool {
	if result == nil {
		return false
	}

	path := result.Path.OrElse("")
	if result.Success() {
		fmt.Printf("%s saved %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Fg(color.Purple)(path))
		if info, err := filesystem.API().Stat(path); err == nil && !info.IsDir() {
			fmt.Printf("  %s\n", style.Faint(humanize.Bytes(uint64(info.Size()))))
		}
		return true
	}

	outcome := result.Outcome
	fmt.Printf(
		"%s %d/%d segments downloaded, %s\n",
		style.Fg(color.Yellow)(icon.Get(icon.Warn)),
		outcome.Succeeded,
		outcome.Attempted,
		util.Quantify(len(outcome.FailedSegments), "segment failed", "segments failed"),
	)
	if len(outcome.FailedSegments) > 0 {
		fmt.Println(style.Faint("  " + strings.Join(outcome.FailedSegments, ", ")))
	}
	if path != "" {
		fmt.Printf("  kept %s\n", style.Fg(color.Purple)(path))
	}

	return false
}
