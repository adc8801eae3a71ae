// internal/config/validate.go
package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// hostLabel matches one DNS label: alphanumeric, inner hyphens, max 63 chars.
var hostLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
//
// Zero values for optional fields are accepted here and filled by
// Normalize. Violations are returned immediately and never retried.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if strings.TrimSpace(cfg.Device.Host) == "" {
		return fmt.Errorf("config: device host is required")
	}
	if err := validateHost(strings.TrimSpace(cfg.Device.Host)); err != nil {
		return err
	}

	// Port 0 means unset; Normalize fills the default.
	if cfg.Device.Port < 0 || cfg.Device.Port > 65535 {
		return fmt.Errorf("config: device port %d out of range 0-65535 (0 selects the default)", cfg.Device.Port)
	}

	// Voltage is opt-in; the device ships for 100-400 V mains.
	if v := cfg.Device.Voltage; v != 0 && (v < 100 || v > 400) {
		return fmt.Errorf("config: device voltage %g out of range 100-400", v)
	}

	// ------------------------------------------------------------
	// POLL + BACKOFF
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("config: poll interval_ms must be positive")
	}
	if cfg.Poll.TimeoutMs < 0 {
		return fmt.Errorf("config: poll timeout_ms must be positive")
	}

	if cfg.Backoff.MinMs < 0 || cfg.Backoff.MaxMs < 0 {
		return fmt.Errorf("config: backoff delays must be positive")
	}
	if cfg.Backoff.MinMs > 0 && cfg.Backoff.MaxMs > 0 && cfg.Backoff.MinMs > cfg.Backoff.MaxMs {
		return fmt.Errorf("config: backoff min_ms %d exceeds max_ms %d",
			cfg.Backoff.MinMs, cfg.Backoff.MaxMs)
	}

	// ------------------------------------------------------------
	// MQTT
	// ------------------------------------------------------------

	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt qos %d out of range 0-2", cfg.MQTT.QoS)
	}

	return nil
}

// validateHost accepts an IP address or a syntactically valid hostname.
func validateHost(host string) error {
	if strings.ContainsAny(host, `<>"'`) {
		return fmt.Errorf("config: invalid characters in host %q", host)
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if len(host) > 253 {
		return fmt.Errorf("config: host %q too long", host)
	}

	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if !hostLabel.MatchString(label) {
			return fmt.Errorf("config: invalid host %q", host)
		}
	}

	return nil
}
