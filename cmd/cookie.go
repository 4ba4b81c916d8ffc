package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidfetch/vidfetch/color"
	"github.com/vidfetch/vidfetch/cookie"
	"github.com/vidfetch/vidfetch/icon"
	"github.com/vidfetch/vidfetch/style"
	"github.com/vidfetch/vidfetch/util"
)

func init() {
	rootCmd.AddCommand(cookieCmd)
}

// cookieCmd manages the cookie string kept in the system keyring.
var cookieCmd = &cobra.Command{
	Use:   "cookie",
	Short: "Manage the cookie sent with every request",
	Long: `Manage the cookie sent with every request.
The saved cookie is used whenever --cookie is not given and cookie.keyring is enabled.`,
}

func init() {
	cookieCmd.AddCommand(cookieSetCmd)
	cookieSetCmd.Flags().StringP("value", "v", "", "Cookie string to save instead of prompting for it")
}

var cookieSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save a cookie string to the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		value := lo.Must(cmd.Flags().GetString("value"))

		if value == "" {
			prompt := &survey.Password{
				Message: "Cookie:",
				Help:    "A raw cookie header such as \"name=value; other=value\"",
			}
			handleErr(survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)))
		}

		value = strings.TrimSpace(value)
		if len(cookie.Parse(value)) == 0 && !cookie.IsNetscape(value) {
			handleErr(errors.New("no name=value pairs found in the cookie"))
		}

		handleErr(cookie.Save(value))
		fmt.Printf("%s cookie saved\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

func init() {
	cookieCmd.AddCommand(cookieShowCmd)
	cookieShowCmd.Flags().BoolP("reveal", "r", false, "Print the values instead of masking them")
	cookieShowCmd.SetOut(os.Stdout)
}

var cookieShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved cookie names",
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := cookie.Load()
		handleErr(err)

		if raw == "" {
			cmd.PrintErrf("%s no cookie saved\n", style.Fg(color.Yellow)(icon.Get(icon.Warn)))
			return
		}

		if lo.Must(cmd.Flags().GetBool("reveal")) {
			cmd.Println(raw)
			return
		}

		pairs := cookie.Parse(raw)
		if cookie.IsNetscape(raw) {
			pairs = cookie.ParseNetscape(raw)
		}
		cmd.Println(style.Faint(util.Quantify(len(pairs), "cookie", "cookies")))
		for _, pair := range pairs {
			cmd.Printf("%s=%s\n", style.Fg(color.Purple)(pair.Name), strings.Repeat("*", min(len(pair.Value), 8)))
		}
	},
}

func init() {
	cookieCmd.AddCommand(cookieDeleteCmd)
}

var cookieDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Remove the saved cookie from the system keyring",
	Aliases: []string{"remove", "rm"},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(cookie.Delete())
		fmt.Printf("%s cookie deleted\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}
