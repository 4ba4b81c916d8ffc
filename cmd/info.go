package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/media"
	"github.com/vidfetch/vidfetch/pipeline"
	"github.com/vidfetch/vidfetch/style"
)

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	infoCmd.SetOut(os.Stdout)
}

// infoCmd describes a video without downloading it.
var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Describe a video and its available formats without downloading it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := newServices()
		handleErr(err)

		req, err := newRequest(cmd)
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		info, err := svc.pipeline.Info(ctx, args[0], req)
		if err != nil {
			if hint := pipeline.Hint(err); hint != "" {
				_, _ = fmt.Fprintln(os.Stderr, style.Faint(hint))
			}
			handleErr(err)
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(info))
			return
		}

		printInfo(cmd, info)
	},
}

func printInfo(cmd *cobra.Command, info *media.Info) {
	label := style.Fg(color.Blue)

	cmd.Println(style.Title(info.Title))
	cmd.Printf("%s %s\n", label("Uploader:"), info.Uploader)

	if info.Duration > 0 {
		cmd.Printf("%s %s\n", label("Duration:"), time.Duration(info.Duration*float64(time.Second)).Round(time.Second).String())
	}
	if info.ViewCount > 0 {
		cmd.Printf("%s %s\n", label("Views:"), humanize.Comma(info.ViewCount))
	}
	if info.Thumbnail != "" {
		cmd.Printf("%s %s\n", label("Thumbnail:"), info.Thumbnail)
	}
	if info.DirectURL != "" {
		cmd.Printf("%s %s\n", label("Media:"), info.DirectURL)
	}
	if m := info.Manifest; m != nil {
		cmd.Printf("%s %s\n", label("Manifest:"), m.ManifestURL)
	}
	if info.Description != "" {
		cmd.Printf("%s %s\n", label("Description:"), style.Faint(info.Description))
	}

	if len(info.Formats) == 0 {
		return
	}

	cmd.Println()
	cmd.Println(style.Bold("Formats"))
	for _, f := range info.Formats {
		size := "unknown size"
		if f.Filesize > 0 {
			size = humanize.Bytes(uint64(f.Filesize))
		}

		cmd.Printf(
			"  %s  %s  %s  %s  %s\n",
			style.Fg(color.Purple)(f.ID),
			f.Ext,
			f.Resolution,
			style.Faint(size),
			style.Faint(f.Quality),
		)
	}
}
