package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type AppConfig struct {
	// SensorURL is the full GET URL of the sensor aggregation service.
	SensorURL string `validate:"required,url"`

	// UpdateIntervalHours is how often a healthy reading is refreshed.
	// Values outside 1-24 are treated as 1 by the scheduler.
	UpdateIntervalHours int

	// WakeInterval is how often the device wakes to check whether a poll is due.
	WakeInterval time.Duration `validate:"gte=1s"`

	// StateFile holds the retained state between runs.
	StateFile string `validate:"required"`

	// NetInterface restricts the link check to one interface (empty = any).
	NetInterface string

	// In-memory history retention.
	StoreMaxHistory int           `validate:"gte=0"`  // max number of snapshots (0 = unlimited)
	StoreMaxAge     time.Duration `validate:"gte=0s"` // max age of snapshots (0 = unlimited)

	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error fatal"`

	MQTT MQTTConfig
}

// MQTTConfig controls publishing of fresh readings to the display.
type MQTTConfig struct {
	Enable   bool
	Broker   string `validate:"required_if=Enable true"`
	ClientID string `validate:"required_if=Enable true"`
	Topic    string `validate:"required_if=Enable true"`
	Username string
	Password string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
// Callers load any .env file first.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.SensorURL = os.Getenv("SENSOR_API_URL")
	cfg.UpdateIntervalHours = getenvInt("UPDATE_INTERVAL_HOURS", 1)

	wake, err := time.ParseDuration(getenvDefault("WAKE_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WAKE_INTERVAL: %w", err)
	}
	cfg.WakeInterval = wake

	cfg.StateFile = getenvDefault("STATE_FILE", "weather_state.json")
	cfg.NetInterface = os.Getenv("NET_INTERFACE")

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 168) // a week of hourly updates

	maxAge, err := time.ParseDuration(getenvDefault("STORE_MAX_AGE", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))

	cfg.MQTT = MQTTConfig{
		Enable:   getenvBool("MQTT_ENABLE", false),
		Broker:   getenvDefault("MQTT_BROKER", "tcp://localhost:1883"),
		ClientID: getenvDefault("MQTT_CLIENT_ID", "outdoor-temperature"),
		Topic:    getenvDefault("MQTT_TOPIC", "display/outdoor/temperature"),
		Username: os.Getenv("MQTT_USERNAME"),
		Password: os.Getenv("MQTT_PASSWORD"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
