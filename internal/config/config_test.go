package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_FlagsBeatEnvBeatJSONBeatDefaults(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"server":  map[string]any{"http_address": "127.0.0.1:7000", "shutdown_timeout": "3s"},
		"channel": map[string]any{"queue_size": 8, "peer_timeout": "9s"},
		"log":     map[string]any{"level": "warn"},
	})
	t.Setenv("FITSYNC_CONFIG", path)
	t.Setenv("FITSYNC_CHANNEL_QUEUE_SIZE", "16")
	t.Setenv("FITSYNC_LOG_LEVEL", "error")

	cfg, err := Load(&StructuredConfig{Log: Log{Level: "debug"}})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 16, cfg.Channel.QueueSize)
	assert.Equal(t, 9*time.Second, cfg.Channel.PeerTimeout)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.HTTPAddress)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, time.Second, cfg.Channel.HeartbeatInterval)
}

func TestLoad_EnvListsAndDurations(t *testing.T) {
	t.Setenv("FITSYNC_TRANSPORT_KIND", "kafka")
	t.Setenv("FITSYNC_TRANSPORT_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FITSYNC_WORKOUT_TICK_INTERVAL", "500ms")
	t.Setenv("FITSYNC_TRANSPORT_DISABLE_MDNS", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, TransportKafka, cfg.Transport.Kind)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Transport.KafkaBrokers)
	assert.Equal(t, 500*time.Millisecond, cfg.Workout.TickInterval)
	assert.True(t, cfg.Transport.DisableMDNS)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("FITSYNC_CHANNEL_QUEUE_SIZE", "lots")

	cfg, err := Load(nil)
	assert.Nil(t, cfg)
	require.Error(t, err)
}

func TestLoad_MissingJSONFile(t *testing.T) {
	cfg, err := Load(&StructuredConfig{JSONFilePath: "/does/not/exist.json"})
	assert.Nil(t, cfg)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StructuredConfig)
		want   error
	}{
		{"unknown transport", func(c *StructuredConfig) { c.Transport.Kind = "carrier-pigeon" }, ErrInvalidTransportConfigs},
		{"kafka without brokers", func(c *StructuredConfig) { c.Transport.Kind = TransportKafka }, ErrInvalidTransportConfigs},
		{"empty namespace", func(c *StructuredConfig) { c.Transport.Namespace = "" }, ErrInvalidTransportConfigs},
		{"timeout below heartbeat", func(c *StructuredConfig) { c.Channel.PeerTimeout = 500 * time.Millisecond }, ErrInvalidChannelConfigs},
		{"zero queue", func(c *StructuredConfig) { c.Channel.QueueSize = 0 }, ErrInvalidChannelConfigs},
		{"zero tick", func(c *StructuredConfig) { c.Workout.TickInterval = 0 }, ErrInvalidWorkoutConfigs},
		{"bad address", func(c *StructuredConfig) { c.Server.HTTPAddress = "nowhere" }, ErrInvalidServerConfigs},
		{"bad level", func(c *StructuredConfig) { c.Log.Level = "loud" }, ErrInvalidLogConfigs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.validate(), tt.want)
		})
	}

	assert.NoError(t, Defaults().validate())
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	require.NoError(t, json.Unmarshal([]byte(`1000`), &d))
	assert.Equal(t, time.Microsecond, time.Duration(d))

	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))
}

func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, assert.AnError)
}
