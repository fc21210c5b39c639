package app

import (
	"github.com/spf13/cobra"

	"FitTrack-Bridge/internal/config"
)

// BindFlags registers the flags shared by the host and companion binaries.
// Unset flags leave zero values so lower-precedence sources apply.
func BindFlags(cmd *cobra.Command, cfg *config.StructuredConfig) {
	f := cmd.Flags()
	f.StringVarP(&cfg.JSONFilePath, "config", "c", "", "JSON config file path")
	f.StringVar(&cfg.Log.Level, "log-level", "", "log level (debug, info, warn, error)")

	f.StringVar(&cfg.Transport.Kind, "transport", "", "transport kind: memory, libp2p or kafka")
	f.StringVar(&cfg.Transport.Namespace, "namespace", "", "topic namespace shared by both peers")
	f.StringSliceVar(&cfg.Transport.ListenAddrs, "listen", nil, "libp2p listen multiaddrs")
	f.StringSliceVar(&cfg.Transport.Bootstrap, "bootstrap", nil, "libp2p peer multiaddrs to dial")
	f.StringVar(&cfg.Transport.Rendezvous, "rendezvous", "", "mDNS service tag")
	f.BoolVar(&cfg.Transport.DisableMDNS, "no-mdns", false, "disable mDNS discovery")
	f.StringVar(&cfg.Transport.IdentityFile, "identity", "", "libp2p identity key file")
	f.StringSliceVar(&cfg.Transport.KafkaBrokers, "kafka-brokers", nil, "kafka bootstrap brokers")

	f.DurationVar(&cfg.Channel.HeartbeatInterval, "heartbeat", 0, "presence heartbeat interval")
	f.DurationVar(&cfg.Channel.PeerTimeout, "peer-timeout", 0, "silence before the peer is unreachable")
	f.IntVar(&cfg.Channel.QueueSize, "queue-size", 0, "deferred transfer queue bound")

	f.DurationVar(&cfg.Server.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown limit")
}
