package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/vidfetch/vidfetch/manifest"
	"github.com/vidfetch/vidfetch/media"
	"github.com/vidfetch/vidfetch/pipeline"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringP("of", "s", "info", "Which output to describe: info, resolve or download")
	lo.Must0(schemaCmd.RegisterFlagCompletionFunc("of", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"info", "resolve", "download"}, cobra.ShellCompDirectiveNoFileComp
	}))
}

// schemaCmd prints the JSON schema of the --json outputs.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the --json outputs",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Mapper = func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(mo.Option[string]{}) {
				return &jsonschema.Schema{Type: "string"}
			}
			return nil
		}
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "info", "result", "outcome":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		var schema *jsonschema.Schema

		switch of := lo.Must(cmd.Flags().GetString("of")); of {
		case "info":
			schema = reflector.Reflect(&media.Info{})
		case "resolve":
			schema = reflector.Reflect(&manifest.Manifest{})
		case "download":
			schema = reflector.Reflect(&pipeline.Result{})
		default:
			handleErr(fmt.Errorf("unknown output %s, expected one of info, resolve, download", of))
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}
