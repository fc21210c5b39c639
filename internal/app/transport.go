// Package app wires configuration, transport, channel and agents into the
// host and companion processes.
package app

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/config"
	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/network"
)

// OpenTransport builds the pub/sub layer named by cfg.Kind. The memory kind
// only reaches peers sharing the returned value.
func OpenTransport(ctx context.Context, cfg config.Transport, role string, log *logger.Logger) (network.PubSub, error) {
	switch cfg.Kind {
	case config.TransportMemory:
		return network.NewMemoryPubSub(0), nil
	case config.TransportLibp2p:
		ps, err := network.NewLibp2pPubSub(ctx, network.Libp2pOptions{
			ListenAddrs:     cfg.ListenAddrs,
			Bootstrap:       cfg.Bootstrap,
			Rendezvous:      cfg.Rendezvous,
			EnableMDNS:      !cfg.DisableMDNS,
			IdentityKeyFile: cfg.IdentityFile,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("open libp2p transport: %w", err)
		}
		return ps, nil
	case config.TransportKafka:
		ps, err := network.NewKafkaPubSub(ctx, network.KafkaOptions{
			Brokers:      cfg.KafkaBrokers,
			WriteTimeout: cfg.KafkaWriteTimeout,
			GroupPrefix:  "fitsync-" + role,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("open kafka transport: %w", err)
		}
		return ps, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Kind)
	}
}

func channelOptions(cfg *config.StructuredConfig, role string, clk clock.Clock) channel.Options {
	return channel.Options{
		Role:              role,
		Namespace:         cfg.Transport.Namespace,
		HeartbeatInterval: cfg.Channel.HeartbeatInterval,
		PeerTimeout:       cfg.Channel.PeerTimeout,
		QueueSize:         cfg.Channel.QueueSize,
		Clock:             clk,
	}
}
