package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	Transport struct {
		Kind              string   `json:"kind"`
		Namespace         string   `json:"namespace"`
		ListenAddrs       []string `json:"listen_addrs"`
		Bootstrap         []string `json:"bootstrap"`
		Rendezvous        string   `json:"rendezvous"`
		DisableMDNS       bool     `json:"disable_mdns"`
		IdentityFile      string   `json:"identity_file"`
		KafkaBrokers      []string `json:"kafka_brokers"`
		KafkaWriteTimeout Duration `json:"kafka_write_timeout"`
	} `json:"transport,omitempty"`

	Channel struct {
		HeartbeatInterval Duration `json:"heartbeat_interval"`
		PeerTimeout       Duration `json:"peer_timeout"`
		QueueSize         int      `json:"queue_size"`
	} `json:"channel,omitempty"`

	Workout struct {
		TickInterval   Duration `json:"tick_interval"`
		SensorInterval Duration `json:"sensor_interval"`
		SensorSeed     uint64   `json:"sensor_seed"`
		DenySensors    bool     `json:"deny_sensors"`
		AutoStart      bool     `json:"auto_start"`
	} `json:"workout,omitempty"`

	Server struct {
		HTTPAddress     string   `json:"http_address"`
		ShutdownTimeout Duration `json:"shutdown_timeout"`
		ForwardStatus   bool     `json:"forward_status"`
	} `json:"server,omitempty"`

	Log struct {
		Level string `json:"level"`
	} `json:"log,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	return &StructuredConfig{
		Transport: Transport{
			Kind:              jsonCfg.Transport.Kind,
			Namespace:         jsonCfg.Transport.Namespace,
			ListenAddrs:       jsonCfg.Transport.ListenAddrs,
			Bootstrap:         jsonCfg.Transport.Bootstrap,
			Rendezvous:        jsonCfg.Transport.Rendezvous,
			DisableMDNS:       jsonCfg.Transport.DisableMDNS,
			IdentityFile:      jsonCfg.Transport.IdentityFile,
			KafkaBrokers:      jsonCfg.Transport.KafkaBrokers,
			KafkaWriteTimeout: time.Duration(jsonCfg.Transport.KafkaWriteTimeout),
		},
		Channel: Channel{
			HeartbeatInterval: time.Duration(jsonCfg.Channel.HeartbeatInterval),
			PeerTimeout:       time.Duration(jsonCfg.Channel.PeerTimeout),
			QueueSize:         jsonCfg.Channel.QueueSize,
		},
		Workout: Workout{
			TickInterval:   time.Duration(jsonCfg.Workout.TickInterval),
			SensorInterval: time.Duration(jsonCfg.Workout.SensorInterval),
			SensorSeed:     jsonCfg.Workout.SensorSeed,
			DenySensors:    jsonCfg.Workout.DenySensors,
			AutoStart:      jsonCfg.Workout.AutoStart,
		},
		Server: Server{
			HTTPAddress:     jsonCfg.Server.HTTPAddress,
			ShutdownTimeout: time.Duration(jsonCfg.Server.ShutdownTimeout),
			ForwardStatus:   jsonCfg.Server.ForwardStatus,
		},
		Log: Log{
			Level: jsonCfg.Log.Level,
		},
	}, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
