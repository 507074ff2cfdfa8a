package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/globalstate"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of globalstate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("globalstate version %s\n", strings.TrimSpace(globalstate.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
