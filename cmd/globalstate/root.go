package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/globalstate"
	"github.com/aretw0/globalstate/internal/platform"
)

var (
	verbose    bool
	configPath string
	pattern    string
	strict     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "globalstate",
	Short: "Replay and watch action logs against the publishing client state engine",
	Long: `globalstate applies recorded actions (content received, votes, account
loads, pagination) to an immutable store and prints or streams the result.
Action files are JSON, YAML or CSV documents of the form {type, payload}.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nearest globalstate.yaml above the action directory)")
	rootCmd.PersistentFlags().StringVarP(&pattern, "pattern", "p", "", "Glob selecting action files (default \"**/*.{json,yaml,yml,csv}\")")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "Keep numbers as json.Number")
}

// runtimeOptions merges the config file with flags. Flags that were set on
// the command line win.
func runtimeOptions(cmd *cobra.Command, dir string) ([]globalstate.Option, error) {
	path := configPath
	if path == "" {
		found, err := platform.FindConfig(dir)
		if err != nil && !errors.Is(err, platform.ErrNoConfig) {
			return nil, err
		}
		path = found
	}

	var opts []globalstate.Option
	if path != "" {
		cfg, err := platform.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		slog.Debug("config loaded", "path", path)
		opts = append(opts, cfg.Options()...)
	}

	opts = append(opts, globalstate.WithLogger(slog.Default()))
	if cmd.Flags().Changed("pattern") {
		opts = append(opts, globalstate.WithPattern(pattern))
	}
	if cmd.Flags().Changed("strict") {
		opts = append(opts, globalstate.WithStrict(strict))
	}
	return opts, nil
}
