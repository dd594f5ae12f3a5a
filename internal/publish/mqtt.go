package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/outdoor-temperature/internal/config"
	"github.com/i474232898/outdoor-temperature/internal/weather"
)

const publishTimeout = 5 * time.Second

var errPublishTimeout = errors.New("publish timed out")

// Message is the retained display payload.
type Message struct {
	PollID      string          `json:"pollId"`
	Temperature weather.Celsius `json:"temperatureC"`
	Previous    weather.Celsius `json:"previousC"`
	Change      weather.Celsius `json:"changeC"`
	Fahrenheit  weather.Celsius `json:"temperatureF"`
	Stale       bool            `json:"stale"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewMessage builds the display payload for st.
func NewMessage(st weather.State, snapshot weather.Snapshot) Message {
	return Message{
		PollID:      snapshot.PollID,
		Temperature: st.Current,
		Previous:    st.Previous,
		Change:      st.TemperatureChange(),
		Fahrenheit:  weather.ToFahrenheit(st.Current),
		Stale:       st.Stale(),
		UpdatedAt:   st.LastUpdateTime(),
	}
}

// MQTTPublisher pushes each new reading to the display topic as a retained
// message, so a display waking later still gets the last value.
type MQTTPublisher struct {
	topic  string
	client mqtt.Client
	logger *log.Logger
}

func New(cfg config.MQTTConfig, logger *log.Logger) *MQTTPublisher {
	p := &MQTTPublisher{
		topic:  cfg.Topic,
		logger: logger.WithPrefix("mqtt"),
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		p.logger.Debug("connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.logger.Warn("connection lost", "err", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Start begins connecting; with connect-retry enabled it does not block on
// an unreachable broker.
func (p *MQTTPublisher) Start() error {
	token := p.client.Connect()
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	return nil
}

// Publish sends the reading for st.
func (p *MQTTPublisher) Publish(ctx context.Context, st weather.State, snapshot weather.Snapshot) error {
	payload, err := json.Marshal(NewMessage(st, snapshot))
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	token := p.client.Publish(p.topic, 1, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return errPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	p.logger.Debug("published", "topic", p.topic, "size", len(payload))
	return nil
}

// Close stops the client, including a connect retry loop still running in
// the background.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
