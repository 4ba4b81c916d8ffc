package cmd

import (
	"encoding/json"
	"os"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/style"
	"github.com/vidfetch/vidfetch/where"
)

// whereTarget is a path vidfetch reads or writes, with the flag that prints it alone.
type whereTarget struct {
	name     string
	where    func() string
	argLong  string
	argShort mo.Option[string]
}

var whereTargets = []whereTarget{
	{"Config", where.Config, "config", mo.Some("c")},
	{"Config file", configFile, "config-file", mo.Some("f")},
	{"Downloads", where.Downloads, "downloads", mo.Some("d")},
	{"Logs", where.Logs, "logs", mo.Some("l")},
	{"Temp", where.Temp, "temp", mo.Some("t")},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, target := range whereTargets {
		whereCmd.Flags().BoolP(target.argLong, target.argShort.OrEmpty(), false, target.name+" path")
	}
	whereCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(whereTargets, func(t whereTarget, _ int) string {
		return t.argLong
	})...)

	whereCmd.SetOut(os.Stdout)
}

// whereCmd displays the paths vidfetch uses.
var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Display the paths used for config, downloads, logs and temporary files",
	Run: func(cmd *cobra.Command, args []string) {
		for _, target := range whereTargets {
			if lo.Must(cmd.Flags().GetBool(target.argLong)) {
				cmd.Println(target.where())
				return
			}
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			paths := lo.SliceToMap(whereTargets, func(t whereTarget) (string, string) {
				return t.argLong, t.where()
			})
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(paths))
			return
		}

		headerStyle := style.New().Bold(true).Foreground(color.HiPurple).Render
		for i, target := range whereTargets {
			cmd.Printf("%s %s\n", headerStyle(target.name+"?"), style.Fg(color.Yellow)("--"+target.argLong))
			cmd.Println(target.where())

			if i < len(whereTargets)-1 {
				cmd.Println()
			}
		}
	},
}
