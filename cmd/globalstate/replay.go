package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/globalstate"
)

var replayFormat string

var replayCmd = &cobra.Command{
	Use:   "replay <dir>",
	Short: "Apply every action file under dir and print the resulting store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := runtimeOptions(cmd, args[0])
		if err != nil {
			fatal("Error loading config", err)
		}

		svc, err := globalstate.Replay(cmd.Context(), args[0], opts...)
		if err != nil {
			fatal("Error replaying actions", err)
		}

		if err := printValue(svc.Store(), replayFormat); err != nil {
			fatal("Error printing store", err)
		}
	},
}

// printValue writes v to stdout as indented JSON or YAML.
func printValue(v any, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}

func init() {
	replayCmd.Flags().StringVarP(&replayFormat, "format", "f", "json", "Output format: json or yaml")
	rootCmd.AddCommand(replayCmd)
}
