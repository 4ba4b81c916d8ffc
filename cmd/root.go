// Package cmd implements the command-line interface for vidfetch.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
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
	"github.com/vidfetch/vidfetch/util"
	"github.com/vidfetch/vidfetch/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("output", "o", "", "Directory to save videos to")
	lo.Must0(rootCmd.MarkPersistentFlagDirname("output"))
	lo.Must0(viper.BindPFlag(key.DownloadPath, rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.PersistentFlags().StringP("quality", "q", "", "Quality passed to the extractor")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("quality", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return extractor.Qualities(), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.DownloadQuality, rootCmd.PersistentFlags().Lookup("quality")))

	rootCmd.PersistentFlags().String("proxy", "", "Proxy URL for every request")
	lo.Must0(viper.BindPFlag(key.FetchProxy, rootCmd.PersistentFlags().Lookup("proxy")))

	rootCmd.PersistentFlags().StringP("cookie", "C", "", "Cookie string, or @path to a cookie file")
	rootCmd.PersistentFlags().String("id", "", "Video identifier, skips identifier discovery")

	rootCmd.Flags().Bool("no-merge", false, "Keep the downloaded segments instead of assembling them")
	rootCmd.Flags().Bool("plain", false, "Print progress lines instead of the interactive screen")

	// Initialize cleanup of leftover cookie jars on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the vidfetch application.
var rootCmd = &cobra.Command{
	Use:   constant.App + " [url]",
	Short: "Download videos, falling back to manifest resolution when extraction fails",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Download videos, falling back to manifest resolution when extraction fails"),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		runDownload(cmd, args[0])
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
