package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/globalstate"
	lcadapter "github.com/aretw0/globalstate/pkg/adapters/lifecycle"
)

var noEffects bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Replay dir, then apply new action files as they appear",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := runtimeOptions(cmd, args[0])
		if err != nil {
			fatal("Error loading config", err)
		}
		if noEffects {
			opts = append(opts, globalstate.WithEffects(false))
		}
		opts = append(opts, globalstate.WithWatcherErrorHandler(func(err error) {
			slog.Warn("action file skipped", "error", err)
		}))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt := globalstate.NewRuntime(args[0], opts...)
		if err := logTransitions(ctx, rt); err != nil {
			fatal("Error watching store", err)
		}

		slog.Info("watching", "path", args[0])
		if err := rt.Run(ctx); err != nil {
			fatal("Error watching actions", err)
		}
	},
}

// logTransitions logs every dispatch that changed the store. Unchanged
// dispatches are logged only with --verbose.
func logTransitions(ctx context.Context, rt *globalstate.Runtime) error {
	events, err := rt.Service.Watch(ctx)
	if err != nil {
		return err
	}
	var opts []lcadapter.SourceOption
	if !verbose {
		opts = append(opts, lcadapter.ChangedOnly())
	}
	src := lcadapter.NewSource(events, opts...)
	if err := src.Start(ctx); err != nil {
		return err
	}
	go func() {
		for e := range src.Events() {
			slog.Info("transition", "event", e.String())
		}
	}()
	return nil
}

func init() {
	watchCmd.Flags().BoolVar(&noEffects, "no-effects", false, "Do not perform FETCH_JSON requests")
	rootCmd.AddCommand(watchCmd)
}
