package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENSOR_API_URL", "http://narodmon.example/api/sensorsValues?sensors=1,2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.UpdateIntervalHours)
	assert.Equal(t, time.Minute, cfg.WakeInterval)
	assert.Equal(t, "weather_state.json", cfg.StateFile)
	assert.Equal(t, 168, cfg.StoreMaxHistory)
	assert.Equal(t, 168*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.MQTT.Enable)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SENSOR_API_URL", "https://sensors.example/api")
	t.Setenv("UPDATE_INTERVAL_HOURS", "0")
	t.Setenv("WAKE_INTERVAL", "30s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MQTT_ENABLE", "true")
	t.Setenv("MQTT_TOPIC", "epaper/outdoor")

	cfg, err := Load()
	require.NoError(t, err)

	// Clamping is the scheduler's job; the raw value is kept.
	assert.Equal(t, 0, cfg.UpdateIntervalHours)
	assert.Equal(t, 30*time.Second, cfg.WakeInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.MQTT.Enable)
	assert.Equal(t, "epaper/outdoor", cfg.MQTT.Topic)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing url", map[string]string{}},
		{"bad url", map[string]string{"SENSOR_API_URL": "not a url"}},
		{"bad wake interval", map[string]string{"SENSOR_API_URL": "http://x.example", "WAKE_INTERVAL": "soon"}},
		{"wake interval too short", map[string]string{"SENSOR_API_URL": "http://x.example", "WAKE_INTERVAL": "10ms"}},
		{"bad max age", map[string]string{"SENSOR_API_URL": "http://x.example", "STORE_MAX_AGE": "-1h"}},
		{"bad log level", map[string]string{"SENSOR_API_URL": "http://x.example", "LOG_LEVEL": "loud"}},
		{"bad port", map[string]string{"SENSOR_API_URL": "http://x.example", "PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SENSOR_API_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
