package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/globalstate"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect <dir>",
	Short: "Replay dir and print the state of every component",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := runtimeOptions(cmd, args[0])
		if err != nil {
			fatal("Error loading config", err)
		}

		rt := globalstate.NewRuntime(args[0], opts...)
		if _, err := rt.Replay(cmd.Context()); err != nil {
			fatal("Error replaying actions", err)
		}

		if err := printValue(rt.State(), inspectFormat); err != nil {
			fatal("Error printing state", err)
		}
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "json", "Output format: json or yaml")
	rootCmd.AddCommand(inspectCmd)
}
