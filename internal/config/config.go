// Package config loads the bridge configuration from command-line flags,
// FITSYNC_-prefixed environment variables, an optional JSON file and
// built-in defaults, in that order of precedence.
package config

import (
	"time"
)

// Transport kinds.
const (
	TransportMemory = "memory"
	TransportLibp2p = "libp2p"
	TransportKafka  = "kafka"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FITSYNC_"

type StructuredConfig struct {
	// Transport selects and configures the pub/sub layer under the channel.
	Transport Transport `envPrefix:"TRANSPORT_"`

	// Channel holds presence and deferred-queue settings.
	Channel Channel `envPrefix:"CHANNEL_"`

	// Workout holds companion-side timing.
	Workout Workout `envPrefix:"WORKOUT_"`

	// Server holds the host's HTTP surface settings.
	Server Server `envPrefix:"SERVER_"`

	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Env: FITSYNC_CONFIG
	JSONFilePath string `env:"CONFIG"`
}

type Transport struct {
	// Kind is one of memory, libp2p or kafka. memory only connects peers
	// inside one process.
	// Env: FITSYNC_TRANSPORT_KIND
	Kind string `env:"KIND"`

	// Namespace prefixes the per-role topics.
	// Env: FITSYNC_TRANSPORT_NAMESPACE
	Namespace string `env:"NAMESPACE"`

	// ListenAddrs are libp2p multiaddrs, comma separated in the environment.
	// Env: FITSYNC_TRANSPORT_LISTEN_ADDRS
	ListenAddrs []string `env:"LISTEN_ADDRS" envSeparator:","`

	// Bootstrap are full libp2p peer multiaddrs to dial at startup.
	// Env: FITSYNC_TRANSPORT_BOOTSTRAP
	Bootstrap []string `env:"BOOTSTRAP" envSeparator:","`

	// Rendezvous is the mDNS service tag.
	// Env: FITSYNC_TRANSPORT_RENDEZVOUS
	Rendezvous string `env:"RENDEZVOUS"`

	// Env: FITSYNC_TRANSPORT_DISABLE_MDNS
	DisableMDNS bool `env:"DISABLE_MDNS"`

	// IdentityFile persists the libp2p private key so the peer ID is stable
	// across restarts. Empty means an ephemeral identity.
	// Env: FITSYNC_TRANSPORT_IDENTITY_FILE
	IdentityFile string `env:"IDENTITY_FILE"`

	// Env: FITSYNC_TRANSPORT_KAFKA_BROKERS
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Env: FITSYNC_TRANSPORT_KAFKA_WRITE_TIMEOUT
	KafkaWriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT"`
}

type Channel struct {
	// Env: FITSYNC_CHANNEL_HEARTBEAT_INTERVAL
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL"`

	// PeerTimeout is how long without presence before the peer is marked
	// unreachable.
	// Env: FITSYNC_CHANNEL_PEER_TIMEOUT
	PeerTimeout time.Duration `env:"PEER_TIMEOUT"`

	// QueueSize bounds the deferred-transfer queue; the oldest entry is
	// evicted when full.
	// Env: FITSYNC_CHANNEL_QUEUE_SIZE
	QueueSize int `env:"QUEUE_SIZE"`
}

type Workout struct {
	// TickInterval is the LiveData period.
	// Env: FITSYNC_WORKOUT_TICK_INTERVAL
	TickInterval time.Duration `env:"TICK_INTERVAL"`

	// SensorInterval is how often the simulated session produces readings.
	// Env: FITSYNC_WORKOUT_SENSOR_INTERVAL
	SensorInterval time.Duration `env:"SENSOR_INTERVAL"`

	// Env: FITSYNC_WORKOUT_SENSOR_SEED
	SensorSeed uint64 `env:"SENSOR_SEED"`

	// DenySensors makes the simulated session refuse to start.
	// Env: FITSYNC_WORKOUT_DENY_SENSORS
	DenySensors bool `env:"DENY_SENSORS"`

	// AutoStart begins a workout as soon as the companion is up, as if the
	// user had pressed start on the watch.
	// Env: FITSYNC_WORKOUT_AUTO_START
	AutoStart bool `env:"AUTO_START"`
}

type Server struct {
	// HTTPAddress is the host's listen address in "host:port" form.
	// Env: FITSYNC_SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// Env: FITSYNC_SERVER_SHUTDOWN_TIMEOUT
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	// ForwardStatus also streams WorkoutStatus messages as data events.
	// Env: FITSYNC_SERVER_FORWARD_STATUS
	ForwardStatus bool `env:"FORWARD_STATUS"`
}

type Log struct {
	// Level is a zerolog level name.
	// Env: FITSYNC_LOG_LEVEL
	Level string `env:"LEVEL"`
}

// Load builds the configuration. flags carries values set on the command
// line; zero fields fall through to the environment, the JSON file named by
// any source, and finally the defaults.
func Load(flags *StructuredConfig) (*StructuredConfig, error) {
	return newConfigBuilder().
		withFlags(flags).
		withEnv().
		withJSON().
		withDefaults().
		build()
}

// Defaults returns the built-in configuration.
func Defaults() *StructuredConfig {
	return &StructuredConfig{
		Transport: Transport{
			Kind:              TransportLibp2p,
			Namespace:         "fitsync.workout",
			ListenAddrs:       []string{"/ip4/0.0.0.0/tcp/0"},
			Rendezvous:        "fitsync",
			KafkaWriteTimeout: 5 * time.Second,
		},
		Channel: Channel{
			HeartbeatInterval: time.Second,
			PeerTimeout:       3 * time.Second,
			QueueSize:         256,
		},
		Workout: Workout{
			TickInterval:   time.Second,
			SensorInterval: time.Second,
		},
		Server: Server{
			HTTPAddress:     "127.0.0.1:8095",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{
			Level: "info",
		},
	}
}
