package app

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/companion"
	"FitTrack-Bridge/internal/config"
	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/network"
)

// Companion is the wearable process: a companion agent driving a simulated
// sensor session over a channel.
type Companion struct {
	cfg   *config.StructuredConfig
	log   *logger.Logger
	ch    *channel.PubSubChannel
	agent *companion.Agent
}

func NewCompanion(ps network.PubSub, cfg *config.StructuredConfig, clk clock.Clock, log *logger.Logger) *Companion {
	if clk == nil {
		clk = clock.New()
	}
	ch := channel.NewPubSubChannel(ps, channelOptions(cfg, channel.RoleCompanion, clk), log)
	session := companion.NewSimulatedSession(companion.SimulatedSessionOptions{
		Clock:      clk,
		Interval:   cfg.Workout.SensorInterval,
		Authorized: !cfg.Workout.DenySensors,
		Seed:       cfg.Workout.SensorSeed,
	})
	return &Companion{
		cfg: cfg,
		log: log,
		ch:  ch,
		agent: companion.NewAgent(ch, session, log,
			companion.WithClock(clk),
			companion.WithTickInterval(cfg.Workout.TickInterval),
		),
	}
}

func (c *Companion) Agent() *companion.Agent {
	return c.agent
}

// Start activates the channel and, with AutoStart, begins a workout.
func (c *Companion) Start(ctx context.Context) error {
	if err := c.agent.Activate(ctx); err != nil {
		return err
	}
	if c.cfg.Workout.AutoStart {
		if err := c.agent.Start(ctx); err != nil {
			return fmt.Errorf("auto start: %w", err)
		}
	}
	return nil
}

// Close ends any running workout and deactivates the channel.
func (c *Companion) Close(ctx context.Context) error {
	return c.agent.Close(ctx)
}

// Run starts the companion and blocks until ctx is done.
func (c *Companion) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	c.log.Info().Msg("companion running")
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Server.ShutdownTimeout)
	defer cancel()
	return c.Close(stopCtx)
}
