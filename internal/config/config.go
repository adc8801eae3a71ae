// internal/config/config.go
package config

type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Poll    PollConfig    `yaml:"poll"`
	Backoff BackoffConfig `yaml:"backoff"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Name is the display name for the host platform.
	Name string `yaml:"name"`

	// Voltage enables derived power readings (watts = amperes * voltage).
	// 0 disables them.
	Voltage float64 `yaml:"voltage"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
	TimeoutMs  int `yaml:"timeout_ms"`
}

// ---- BACKOFF ----

type BackoffConfig struct {
	MinMs int `yaml:"min_ms"`
	MaxMs int `yaml:"max_ms"`
}

// ---- MQTT ----

type MQTTConfig struct {
	// Broker is e.g. "tcp://127.0.0.1:1883". Empty disables MQTT and the
	// daemon logs readings instead.
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	TopicPrefix     string `yaml:"topic_prefix"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`

	QoS    int   `yaml:"qos"`
	Retain *bool `yaml:"retain"` // default true
}
