// internal/config/normalize.go
package config

import (
	"fmt"
	"strings"
)

// Defaults applied by Normalize.
const (
	DefaultPort       = 80
	DefaultIntervalMs = 2000
	DefaultTimeoutMs  = 5000

	DefaultBackoffMinMs = 1000
	DefaultBackoffMaxMs = 60000

	DefaultTopicPrefix     = "velectric"
	DefaultDiscoveryPrefix = "homeassistant"
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Device.Host = strings.TrimSpace(cfg.Device.Host)

	if cfg.Device.Port == 0 {
		cfg.Device.Port = DefaultPort
	}
	if cfg.Device.Name == "" {
		cfg.Device.Name = fmt.Sprintf("VElectric Load Manager (%s)", cfg.Device.Host)
	}

	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.Poll.TimeoutMs == 0 {
		cfg.Poll.TimeoutMs = DefaultTimeoutMs
	}

	if cfg.Backoff.MinMs == 0 {
		cfg.Backoff.MinMs = DefaultBackoffMinMs
	}
	if cfg.Backoff.MaxMs == 0 {
		cfg.Backoff.MaxMs = DefaultBackoffMaxMs
	}

	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.MQTT.DiscoveryPrefix == "" {
		cfg.MQTT.DiscoveryPrefix = DefaultDiscoveryPrefix
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "velectric2mqtt-" + cfg.DeviceID()
	}
	if cfg.MQTT.Retain == nil {
		retain := true
		cfg.MQTT.Retain = &retain
	}
}

// DeviceID is a topic-safe identifier derived from the device host.
func (c *Config) DeviceID() string {
	id := strings.ToLower(strings.TrimSpace(c.Device.Host))
	id = strings.NewReplacer(".", "-", ":", "-").Replace(id)
	return id
}
