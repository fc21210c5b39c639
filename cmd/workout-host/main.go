package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"FitTrack-Bridge/internal/app"
	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/config"
	"FitTrack-Bridge/internal/core/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "workout-host failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &config.StructuredConfig{}
	cmd := &cobra.Command{
		Use:          "workout-host",
		Short:        "Phone-side workout sync host with an HTTP control surface",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}
	app.BindFlags(cmd, flags)
	cmd.Flags().StringVarP(&flags.Server.HTTPAddress, "addr", "a", "", "HTTP listen address host:port")
	cmd.Flags().BoolVar(&flags.Server.ForwardStatus, "forward-status", false, "stream workoutStatus messages as data events")
	// Used by the embedded companion in memory mode.
	cmd.Flags().DurationVar(&flags.Workout.TickInterval, "tick", 0, "embedded companion live update interval")
	return cmd
}

func run(parent context.Context, flags *config.StructuredConfig) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	log := logger.NewLogger(channel.RoleHost, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ps, err := app.OpenTransport(ctx, cfg.Transport, channel.RoleHost, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := ps.Close(); err != nil {
			log.Warn().Err(err).Msg("transport close")
		}
	}()

	log.Info().Str("transport", cfg.Transport.Kind).Str("namespace", cfg.Transport.Namespace).Msg("starting host")
	return app.NewHost(ps, cfg, nil, log).Run(ctx)
}
