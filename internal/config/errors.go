package config

import "errors"

var (
	// ErrInvalidTransportConfigs indicates an unknown transport kind or a
	// kind missing its required settings (for example kafka without brokers).
	ErrInvalidTransportConfigs = errors.New("invalid transport configuration")
	// ErrInvalidChannelConfigs indicates non-positive channel timings, a
	// peer timeout shorter than the heartbeat, or an empty queue.
	ErrInvalidChannelConfigs = errors.New("invalid channel configuration")
	ErrInvalidWorkoutConfigs = errors.New("invalid workout configuration")
	ErrInvalidServerConfigs  = errors.New("invalid server configuration")
	ErrInvalidLogConfigs     = errors.New("invalid log configuration")
)
