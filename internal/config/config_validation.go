package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

func (cfg *StructuredConfig) validate() error {
	return errors.Join(
		cfg.Transport.validate(),
		cfg.Channel.validate(),
		cfg.Workout.validate(),
		cfg.Server.validate(),
		cfg.Log.validate(),
	)
}

func (t Transport) validate() error {
	switch t.Kind {
	case TransportMemory, TransportLibp2p:
	case TransportKafka:
		if len(t.KafkaBrokers) == 0 {
			return fmt.Errorf("%w: kafka needs at least one broker", ErrInvalidTransportConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTransportConfigs, t.Kind)
	}
	if t.Namespace == "" {
		return fmt.Errorf("%w: empty namespace", ErrInvalidTransportConfigs)
	}
	return nil
}

func (c Channel) validate() error {
	if c.HeartbeatInterval <= 0 || c.PeerTimeout <= 0 || c.QueueSize <= 0 {
		return ErrInvalidChannelConfigs
	}
	if c.PeerTimeout < c.HeartbeatInterval {
		return fmt.Errorf("%w: peer timeout %s shorter than heartbeat %s",
			ErrInvalidChannelConfigs, c.PeerTimeout, c.HeartbeatInterval)
	}
	return nil
}

func (w Workout) validate() error {
	if w.TickInterval <= 0 || w.SensorInterval <= 0 {
		return ErrInvalidWorkoutConfigs
	}
	return nil
}

func (s Server) validate() error {
	if s.ShutdownTimeout <= 0 {
		return ErrInvalidServerConfigs
	}
	if _, _, err := net.SplitHostPort(s.HTTPAddress); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServerConfigs, err)
	}
	return nil
}

func (l Log) validate() error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogConfigs, err)
	}
	return nil
}
