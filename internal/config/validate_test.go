// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a minimal valid config
func base() *Config {
	return &Config{
		Device: DeviceConfig{Host: "192.168.1.50"},
	}
}

// ---- tests ----

func TestValidate_MinimalConfig(t *testing.T) {
	if err := Validate(base()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_HostRequired(t *testing.T) {
	cfg := base()
	cfg.Device.Host = "   "

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for empty host, got nil")
	}
}

func TestValidate_HostForms(t *testing.T) {
	valid := []string{
		"10.0.0.7",
		"fe80::1",
		"velectric.local",
		"device-1.example.com",
		"localhost",
	}
	for _, h := range valid {
		cfg := base()
		cfg.Device.Host = h
		if err := Validate(cfg); err != nil {
			t.Fatalf("host %q: unexpected error: %v", h, err)
		}
	}

	invalid := []string{
		"bad host",
		"<script>",
		"it's",
		"-leading.example.com",
		"trailing-.example.com",
		strings.Repeat("a", 64) + ".example.com",
		strings.Repeat("long.", 60) + "com",
	}
	for _, h := range invalid {
		cfg := base()
		cfg.Device.Host = h
		if err := Validate(cfg); err == nil {
			t.Fatalf("host %q: expected error, got nil", h)
		}
	}
}

func TestValidate_PortRange(t *testing.T) {
	cfg := base()
	cfg.Device.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for port 70000, got nil")
	}

	cfg.Device.Port = -1
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for negative port, got nil")
	}

	cfg.Device.Port = 8080
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0 means unset and is filled by Normalize.
	cfg.Device.Port = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("port 0 must validate: %v", err)
	}
}

func TestValidate_VoltageRange(t *testing.T) {
	for _, v := range []float64{0, 100, 230, 400} {
		cfg := base()
		cfg.Device.Voltage = v
		if err := Validate(cfg); err != nil {
			t.Fatalf("voltage %g: unexpected error: %v", v, err)
		}
	}

	for _, v := range []float64{-1, 50, 99.9, 401} {
		cfg := base()
		cfg.Device.Voltage = v
		if err := Validate(cfg); err == nil {
			t.Fatalf("voltage %g: expected error, got nil", v)
		}
	}
}

func TestValidate_BackoffOrdering(t *testing.T) {
	cfg := base()
	cfg.Backoff.MinMs = 5000
	cfg.Backoff.MaxMs = 1000

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for min > max, got nil")
	}
}

func TestValidate_QoSRange(t *testing.T) {
	cfg := base()
	cfg.MQTT.QoS = 3

	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for qos 3, got nil")
	}
}
