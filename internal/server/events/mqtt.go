package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/OCharnyshevich/obsidian/internal/server/config"
)

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
}

// MQTTSink republishes bus events as JSON on <prefix>/<event type>.
type MQTTSink struct {
	client publisher
	prefix string
	source string
	log    *slog.Logger
}

// NewMQTTSink builds a paho client from the MQTT settings. It does not
// connect; Run does.
func NewMQTTSink(cfg config.MQTTConfig, log *slog.Logger) *MQTTSink {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("MQTT connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT connection lost", "error", err)
	})

	return &MQTTSink{
		client: mqtt.NewClient(opts),
		prefix: cfg.TopicPrefix,
		source: cfg.ClientID,
		log:    log,
	}
}

// Attach subscribes the sink to every player event on the bus.
func (s *MQTTSink) Attach(bus *Bus) {
	for _, t := range []EventType{EventPlayerJoin, EventPlayerLeave, EventPlayerChat} {
		bus.Subscribe(t, "mqtt."+string(t), s.handle)
	}
}

// Run connects, then blocks until ctx is cancelled and disconnects.
func (s *MQTTSink) Run(ctx context.Context) error {
	client, ok := s.client.(mqtt.Client)
	if !ok {
		<-ctx.Done()
		return nil
	}

	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	<-ctx.Done()
	client.Disconnect(1000)
	s.log.Info("MQTT disconnected")
	return nil
}

// Topic returns the topic an event type is published on.
func (s *MQTTSink) Topic(t EventType) string {
	if s.prefix == "" {
		return string(t)
	}
	return s.prefix + "/" + string(t)
}

func (s *MQTTSink) handle(_ context.Context, event Event) error {
	if !s.client.IsConnected() {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	topic := s.Topic(event.Type)
	token := s.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
