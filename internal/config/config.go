// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the smartir configuration file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Failure policies for controller errors during entity sends
const (
	PolicyLog     = "log"
	PolicySurface = "surface"
)

// DefaultDelay is the pause between the on command and the state command.
const DefaultDelay = 0.5

// DefaultSendTimeout bounds a single entity send.
const DefaultSendTimeout = 10 * time.Second

// Config is the full application configuration.
type Config struct {
	Log           LogConfig       `mapstructure:"log"`
	DeviceDir     string          `mapstructure:"device_dir"`
	StateFile     string          `mapstructure:"state_file"`
	History       HistoryConfig   `mapstructure:"history"`
	HASS          HASSConfig      `mapstructure:"hass"`
	MQTT          MQTTConfig      `mapstructure:"mqtt"`
	HTTP          HTTPConfig      `mapstructure:"http"`
	Serial        SerialConfig    `mapstructure:"serial"`
	FailurePolicy string          `mapstructure:"failure_policy"`
	SendTimeout   time.Duration   `mapstructure:"send_timeout"`
	Climates      []ClimateConfig `mapstructure:"climates"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

type HASSConfig struct {
	URL           string `mapstructure:"url"`
	Token         string `mapstructure:"token"`
	SkipTLSVerify bool   `mapstructure:"skip_tls_verify"`
}

// MQTTConfig configures the direct broker connection. When Broker is empty
// MQTT controllers publish through Home Assistant's mqtt.publish service.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      int    `mapstructure:"qos"`
	Retain   bool   `mapstructure:"retain"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

type SerialConfig struct {
	Baud int `mapstructure:"baud"`
}

// ClimateConfig declares one climate entity.
type ClimateConfig struct {
	Name           string `mapstructure:"name"`
	UniqueID       string `mapstructure:"unique_id"`
	DeviceCode     int    `mapstructure:"device_code"`
	ControllerType string `mapstructure:"controller_type"`
	ControllerData string `mapstructure:"controller_data"`
	// Delay is in seconds; nil means DefaultDelay.
	Delay *float64 `mapstructure:"delay"`

	TemperatureSensor       string `mapstructure:"temperature_sensor"`
	HumiditySensor          string `mapstructure:"humidity_sensor"`
	PowerSensor             string `mapstructure:"power_sensor"`
	PowerSensorRestoreState bool   `mapstructure:"power_sensor_restore_state"`
}

// DelayDuration returns the configured delay as a duration.
func (c ClimateConfig) DelayDuration() time.Duration {
	d := DefaultDelay
	if c.Delay != nil {
		d = *c.Delay
	}
	return time.Duration(d * float64(time.Second))
}

// ID returns the entity identifier: UniqueID when set, Name otherwise.
func (c ClimateConfig) ID() string {
	if c.UniqueID != "" {
		return c.UniqueID
	}
	return c.Name
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("device_dir", "codes")
	v.SetDefault("state_file", "smartir.state")
	v.SetDefault("history.path", "smartir.db")
	v.SetDefault("hass.url", "")
	v.SetDefault("hass.token", "")
	v.SetDefault("hass.skip_tls_verify", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "smartir")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("http.listen", ":8080")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("failure_policy", PolicyLog)
	v.SetDefault("send_timeout", DefaultSendTimeout)
}

// Load reads the configuration. An empty path searches for smartir.yaml in
// the working directory and /etc/smartir; a missing file is not an error
// then. Environment variables prefixed SMARTIR_ override file values, and a
// .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SMARTIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/smartir")
		v.SetConfigName("smartir")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.FailurePolicy {
	case PolicyLog, PolicySurface:
	default:
		return fmt.Errorf("failure_policy must be %q or %q, got %q", PolicyLog, PolicySurface, c.FailurePolicy)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send_timeout must be positive, got %v", c.SendTimeout)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}

	ids := make(map[string]bool, len(c.Climates))
	for i, cl := range c.Climates {
		if cl.Name == "" {
			return fmt.Errorf("climates[%d]: name is required", i)
		}
		if cl.DeviceCode <= 0 {
			return fmt.Errorf("climate %q: device_code must be a positive integer", cl.Name)
		}
		if cl.ControllerData == "" {
			return fmt.Errorf("climate %q: controller_data is required", cl.Name)
		}
		if cl.Delay != nil && *cl.Delay < 0 {
			return fmt.Errorf("climate %q: delay must not be negative", cl.Name)
		}
		id := cl.ID()
		if ids[id] {
			return fmt.Errorf("climate %q: duplicate id %q", cl.Name, id)
		}
		ids[id] = true
	}
	return nil
}

// Climate returns the climate declared with id.
func (c *Config) Climate(id string) (ClimateConfig, bool) {
	for _, cl := range c.Climates {
		if cl.ID() == id {
			return cl, true
		}
	}
	return ClimateConfig{}, false
}
