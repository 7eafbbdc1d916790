package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Calibration CalibrationConfig `yaml:"calibration"`
	Source      SourceConfig      `yaml:"source"`
	Store       StoreConfig       `yaml:"store"`
}

type CalibrationConfig struct {
	CollectDuration  time.Duration `yaml:"collect_duration"`
	WatchdogGrace    time.Duration `yaml:"watchdog_grace"`
	BaselineDuration time.Duration `yaml:"baseline_duration"`
}

type SourceConfig struct {
	Kind string          `yaml:"kind"` // sim, mqtt, websocket
	Sim  SimSourceConfig `yaml:"sim"`
	MQTT MQTTConfig      `yaml:"mqtt"`
	WS   WebSocketConfig `yaml:"websocket"`
}

type SimSourceConfig struct {
	Period     time.Duration `yaml:"period"`
	AccelNoise float64       `yaml:"accel_noise"`
	GyroNoise  float64       `yaml:"gyro_noise"`
	GyroZBias  float64       `yaml:"gyro_z_bias"`
}

type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	Topic          string        `yaml:"topic"`
	ClientID       string        `yaml:"client_id"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type WebSocketConfig struct {
	URL string `yaml:"url"`
}

type StoreConfig struct {
	Kind string `yaml:"kind"` // file, sqlite
	Path string `yaml:"path"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Calibration.CollectDuration <= 0 {
		cfg.Calibration.CollectDuration = 20 * time.Second
	}
	if cfg.Calibration.WatchdogGrace <= 0 {
		cfg.Calibration.WatchdogGrace = 5 * time.Second
	}
	if cfg.Calibration.BaselineDuration <= 0 {
		cfg.Calibration.BaselineDuration = 5 * time.Second
	}

	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "sim"
	}
	switch cfg.Source.Kind {
	case "sim":
		if cfg.Source.Sim.Period <= 0 {
			cfg.Source.Sim.Period = 20 * time.Millisecond
		}
	case "mqtt":
		if cfg.Source.MQTT.Broker == "" {
			return Config{}, fmt.Errorf("source.mqtt.broker is required when source.kind is mqtt")
		}
		if cfg.Source.MQTT.Topic == "" {
			return Config{}, fmt.Errorf("source.mqtt.topic is required when source.kind is mqtt")
		}
		if cfg.Source.MQTT.ClientID == "" {
			cfg.Source.MQTT.ClientID = "roadsense-calibration"
		}
		if cfg.Source.MQTT.ConnectTimeout <= 0 {
			cfg.Source.MQTT.ConnectTimeout = 10 * time.Second
		}
	case "websocket":
		if cfg.Source.WS.URL == "" {
			return Config{}, fmt.Errorf("source.websocket.url is required when source.kind is websocket")
		}
	default:
		return Config{}, fmt.Errorf("unknown source.kind %q", cfg.Source.Kind)
	}

	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "file"
	}
	switch cfg.Store.Kind {
	case "file":
		if cfg.Store.Path == "" {
			cfg.Store.Path = "./baseline_calibration.json"
		}
	case "sqlite":
		if cfg.Store.Path == "" {
			cfg.Store.Path = "./roadsense.sqlite"
		}
	default:
		return Config{}, fmt.Errorf("unknown store.kind %q", cfg.Store.Kind)
	}

	return cfg, nil
}
