package motion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig locates the topic the handheld publishes JSON samples to.
type MQTTConfig struct {
	Broker         string // e.g. tcp://localhost:1883
	Topic          string
	ClientID       string
	ConnectTimeout time.Duration
}

// MQTTSource consumes motion samples from an MQTT broker. Start connects
// and subscribes; a lost connection terminates every subscription with a
// stream error.
type MQTTSource struct {
	cfg MQTTConfig
	hub *hub

	mu     sync.Mutex
	client mqtt.Client
}

func NewMQTTSource(cfg MQTTConfig) *MQTTSource {
	if cfg.ClientID == "" {
		cfg.ClientID = "roadsense-calibration"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &MQTTSource{cfg: cfg, hub: newHub()}
}

func (s *MQTTSource) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil && s.client.IsConnected()
}

func (s *MQTTSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil && s.client.IsConnected() {
		return nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt source: connection lost: %v", err)
			s.hub.fail(fmt.Errorf("mqtt source: connection lost: %w", err))
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt source: connect %s: %w", s.cfg.Broker, token.Error())
	}

	token := client.Subscribe(s.cfg.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var sample Sample
		if err := json.Unmarshal(msg.Payload(), &sample); err != nil {
			log.Printf("mqtt source: sample unmarshal error: %v", err)
			return
		}
		if sample.Time.IsZero() {
			sample.Time = time.Now()
		}
		s.hub.publish(sample)
	})
	if token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return fmt.Errorf("mqtt source: subscribe %s: %w", s.cfg.Topic, token.Error())
	}

	log.Printf("mqtt source: subscribed to %s at %s", s.cfg.Topic, s.cfg.Broker)
	s.client = client
	return nil
}

func (s *MQTTSource) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	s.client.Disconnect(250)
	s.client = nil
	s.hub.fail(nil)
	return nil
}

func (s *MQTTSource) Subscribe(ctx context.Context) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil || !s.client.IsConnected() {
		return nil, errors.New("mqtt source: not started")
	}
	return s.hub.add(), nil
}
