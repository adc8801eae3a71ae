// cmd/velectric2mqtt/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/velectric-tools/velectric2mqtt/internal/config"
	"github.com/velectric-tools/velectric2mqtt/internal/device"
	"github.com/velectric-tools/velectric2mqtt/internal/publish"
	"github.com/velectric-tools/velectric2mqtt/internal/supervisor"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: velectric2mqtt <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	// --------------------
	// Publisher (MQTT, or log-only when no broker is configured)
	// --------------------

	pub, err := buildPublisher(cfg)
	if err != nil {
		log.Fatalf("publisher setup failed: %v", err)
	}
	defer pub.Close()

	// --------------------
	// Device client + supervisor
	// --------------------

	client := device.New(device.Config{
		Host:    cfg.Device.Host,
		Port:    cfg.Device.Port,
		Timeout: time.Duration(cfg.Poll.TimeoutMs) * time.Millisecond,
	})

	sup, err := supervisor.New(
		supervisor.Config{
			Interval:   time.Duration(cfg.Poll.IntervalMs) * time.Millisecond,
			Timeout:    time.Duration(cfg.Poll.TimeoutMs) * time.Millisecond,
			BackoffMin: time.Duration(cfg.Backoff.MinMs) * time.Millisecond,
			BackoffMax: time.Duration(cfg.Backoff.MaxMs) * time.Millisecond,
			Voltage:    cfg.Device.Voltage,
		},
		client,
		pub,
	)
	if err != nil {
		log.Fatalf("supervisor setup failed: %v", err)
	}

	// --------------------
	// Run until SIGINT/SIGTERM
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("polling %s every %dms", client.URL(), cfg.Poll.IntervalMs)
	sup.Run(ctx)
	log.Printf("shutdown complete")
}

func buildPublisher(cfg *config.Config) (publish.Publisher, error) {
	if cfg.MQTT.Broker == "" {
		log.Printf("no mqtt broker configured, logging readings only")
		return publish.NewLog(), nil
	}

	return publish.NewMQTT(publish.MQTTConfig{
		Broker:          cfg.MQTT.Broker,
		ClientID:        cfg.MQTT.ClientID,
		Username:        cfg.MQTT.Username,
		Password:        cfg.MQTT.Password,
		TopicPrefix:     cfg.MQTT.TopicPrefix,
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
		DeviceID:        cfg.DeviceID(),
		DeviceName:      cfg.Device.Name,
		QoS:             byte(cfg.MQTT.QoS),
		Retain:          *cfg.MQTT.Retain,
		PowerEnabled:    cfg.Device.Voltage > 0,
	})
}
