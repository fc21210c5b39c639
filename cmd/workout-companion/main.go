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
		fmt.Fprintf(os.Stderr, "workout-companion failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &config.StructuredConfig{}
	cmd := &cobra.Command{
		Use:          "workout-companion",
		Short:        "Wearable-side workout sync agent with a simulated sensor session",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}
	app.BindFlags(cmd, flags)
	cmd.Flags().DurationVar(&flags.Workout.TickInterval, "tick", 0, "live update interval")
	cmd.Flags().DurationVar(&flags.Workout.SensorInterval, "sensor-interval", 0, "simulated sensor reading interval")
	cmd.Flags().Uint64Var(&flags.Workout.SensorSeed, "seed", 0, "simulated sensor seed")
	cmd.Flags().BoolVar(&flags.Workout.DenySensors, "deny-sensors", false, "simulate denied sensor access")
	cmd.Flags().BoolVar(&flags.Workout.AutoStart, "autostart", false, "start a workout immediately")
	return cmd
}

func run(parent context.Context, flags *config.StructuredConfig) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if cfg.Transport.Kind == config.TransportMemory {
		return fmt.Errorf("transport %q cannot reach a host in another process", cfg.Transport.Kind)
	}
	log := logger.NewLogger(channel.RoleCompanion, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ps, err := app.OpenTransport(ctx, cfg.Transport, channel.RoleCompanion, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := ps.Close(); err != nil {
			log.Warn().Err(err).Msg("transport close")
		}
	}()

	log.Info().Str("transport", cfg.Transport.Kind).Str("namespace", cfg.Transport.Namespace).Msg("starting companion")
	return app.NewCompanion(ps, cfg, nil, log).Run(ctx)
}
