package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/config"
	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/network"
	"FitTrack-Bridge/internal/host"
	"FitTrack-Bridge/internal/hostapi"
	"FitTrack-Bridge/internal/reachability"
	"FitTrack-Bridge/internal/relay"
)

// Host is the phone process: host agent, command relay and the HTTP surface
// over one channel. With the memory transport it also runs an in-process
// companion so the whole loop works on one machine.
type Host struct {
	cfg *config.StructuredConfig
	log *logger.Logger

	ch       *channel.PubSubChannel
	agent    *host.Agent
	relay    *relay.Relay
	bc       *hostapi.Broadcaster
	handler  http.Handler
	embedded *Companion
}

func NewHost(ps network.PubSub, cfg *config.StructuredConfig, clk clock.Clock, log *logger.Logger) *Host {
	if clk == nil {
		clk = clock.New()
	}
	tracker := reachability.NewTracker()
	bc := hostapi.NewBroadcaster(0)

	opts := []host.Option{host.WithTracker(tracker)}
	if cfg.Server.ForwardStatus {
		opts = append(opts, host.WithStatusForwarding())
	}
	agent := host.NewAgent(bc, log, opts...)
	ch := channel.NewPubSubChannel(ps, channelOptions(cfg, channel.RoleHost, clk), log)
	r := relay.New(ch, tracker, agent, log, relay.WithClock(clk))

	h := &Host{
		cfg:     cfg,
		log:     log,
		ch:      ch,
		agent:   agent,
		relay:   r,
		bc:      bc,
		handler: hostapi.NewServer(r, agent, bc, log).Routes(),
	}
	if cfg.Transport.Kind == config.TransportMemory {
		h.embedded = NewCompanion(ps, cfg, clk, log.Component("embedded"))
	}
	return h
}

func (h *Host) Handler() http.Handler {
	return h.handler
}

func (h *Host) Agent() *host.Agent {
	return h.agent
}

func (h *Host) Relay() *relay.Relay {
	return h.relay
}

// Embedded returns the in-process companion, or nil outside memory mode.
func (h *Host) Embedded() *Companion {
	return h.embedded
}

// Start activates the host channel and the embedded companion, if any.
func (h *Host) Start(ctx context.Context) error {
	if err := h.ch.Activate(ctx, h.agent); err != nil {
		return fmt.Errorf("activate host channel: %w", err)
	}
	if h.embedded != nil {
		if err := h.embedded.Start(ctx); err != nil {
			return fmt.Errorf("start embedded companion: %w", err)
		}
	}
	return nil
}

func (h *Host) Close(ctx context.Context) error {
	var errs []error
	if h.embedded != nil {
		errs = append(errs, h.embedded.Close(ctx))
	}
	errs = append(errs, h.ch.Deactivate())
	return errors.Join(errs...)
}

// Run serves the HTTP surface until ctx is done, then shuts down within the
// configured timeout.
func (h *Host) Run(ctx context.Context) error {
	if err := h.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              h.cfg.Server.HTTPAddress,
		Handler:           h.handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Event streams end with ctx so Shutdown does not wait on them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		h.log.Info().Str("addr", srv.Addr).Msg("host listening")
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		h.log.Warn().Err(err).Msg("graceful shutdown failed")
	}
	return errors.Join(serveErr, h.Close(shutdownCtx))
}
