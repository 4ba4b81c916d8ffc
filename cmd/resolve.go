package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/icon"
	"github.com/vidfetch/vidfetch/pipeline"
	"github.com/vidfetch/vidfetch/style"
	"github.com/vidfetch/vidfetch/util"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	resolveCmd.Flags().BoolP("segments", "s", false, "List every segment name")
	resolveCmd.SetOut(os.Stdout)
}

// resolveCmd runs only the manifest resolution path, skipping the extractor.
var resolveCmd = &cobra.Command{
	Use:   "resolve [url]",
	Short: "Locate the manifest of a page without the extractor",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := newServices()
		handleErr(err)

		req, err := newRequest(cmd)
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		resolution, err := svc.pipeline.Resolve(ctx, args[0], req)
		if err != nil {
			if hint := pipeline.Hint(err); hint != "" {
				_, _ = fmt.Fprintln(os.Stderr, style.Faint(hint))
			}
			handleErr(err)
		}

		asJson := lo.Must(cmd.Flags().GetBool("json"))

		if mediaURL, ok := resolution.DirectMedia(); ok {
			if asJson {
				handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"kind": resolution.Kind().String(),
					"url":  mediaURL,
				}))
				return
			}

			cmd.Printf("%s direct media %s\n", style.Fg(color.Green)(icon.Get(icon.Link)), mediaURL)
			return
		}

		m, _ := resolution.Manifest()
		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(m))
			return
		}

		label := style.Fg(color.Blue)
		cmd.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Link)), m.ManifestURL)
		cmd.Printf("%s %s\n", label("Identifier:"), m.Identifier)
		cmd.Printf("%s %s\n", label("Title:"), m.Title)
		cmd.Printf("%s %s\n", label("Segments:"), util.Quantify(len(m.Segments), "segment", "segments"))

		if lo.Must(cmd.Flags().GetBool("segments")) {
			for i := range m.Segments {
				cmd.Println(style.Faint(m.SegmentURL(svc.resolver.CDNBase(), i)))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(idsCmd)
	idsCmd.SetOut(os.Stdout)
}

// idsCmd lists the identifiers found on a listing page.
var idsCmd = &cobra.Command{
	Use:   "ids [url]",
	Short: "List the video identifiers found on a listing page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := newServices()
		handleErr(err)

		raw, err := resolveCookie(cmd)
		handleErr(err)
		svc.fetcher.SetCookie(raw)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		ids, err := svc.resolver.PageIdentifiers(ctx, args[0])
		handleErr(err)

		if len(ids) == 0 {
			cmd.PrintErrf("%s no identifiers found\n", style.Fg(color.Yellow)(icon.Get(icon.Warn)))
			return
		}

		for _, id := range ids {
			cmd.Println(id)
		}
	},
}
