// internal/publish/mqtt.go
package publish

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/velectric-tools/velectric2mqtt/internal/status"
)

// MQTTConfig is everything the MQTT publisher needs.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string

	TopicPrefix     string
	DiscoveryPrefix string

	// DeviceID is the topic-safe identifier; DeviceName the display name.
	DeviceID   string
	DeviceName string

	QoS    byte
	Retain bool

	// PowerEnabled adds the derived power sensors to discovery.
	PowerEnabled bool

	// Timeout bounds connect and per-publish waits; 0 selects the default.
	Timeout time.Duration
}

// mqttClient is the exact paho surface the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes snapshots to an MQTT broker, announcing the sensors
// via Home Assistant discovery on every (re)connect. The availability
// topic carries "online"/"offline" with an offline LWT, so consumers
// can tell a dead bridge from a dead device.
type MQTT struct {
	cfg     MQTTConfig
	cli     mqttClient
	timeout time.Duration
}

const defaultPublishTimeout = 10 * time.Second

// closeTimeout caps the offline publish during shutdown. A dead broker
// must not stall process exit for the full publish timeout.
const closeTimeout = time.Second

func effectiveTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultPublishTimeout
	}
	return d
}

// NewMQTT connects to the broker. Fails fast: a broker that is down at
// startup is a deployment problem, not a runtime transient.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, errors.New("publish: mqtt broker required")
	}
	if cfg.DeviceID == "" {
		return nil, errors.New("publish: device id required")
	}
	cfg.Timeout = effectiveTimeout(cfg.Timeout)

	m := &MQTT{cfg: cfg, timeout: cfg.Timeout}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetWill(m.availabilityTopic(), "offline", cfg.QoS, true).
		SetOnConnectHandler(func(c mqtt.Client) {
			m.announce(c)
		})

	cli := mqtt.NewClient(opts)
	tok := cli.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("publish: mqtt connect to %s timed out", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("publish: mqtt connect to %s: %w", cfg.Broker, err)
	}

	m.cli = cli
	return m, nil
}

// PublishReading sends the per-value topics and the JSON state topic.
func (m *MQTT) PublishReading(snap status.Snapshot) error {
	if err := m.send(m.topic("ct1_current"), fmt.Sprintf("%.1f", snap.CT1Current)); err != nil {
		return err
	}
	if err := m.send(m.topic("ct2_current"), fmt.Sprintf("%.1f", snap.CT2Current)); err != nil {
		return err
	}

	if m.cfg.PowerEnabled {
		if err := m.send(m.topic("ct1_power"), fmt.Sprintf("%.0f", snap.CT1Power)); err != nil {
			return err
		}
		if err := m.send(m.topic("ct2_power"), fmt.Sprintf("%.0f", snap.CT2Power)); err != nil {
			return err
		}
	}

	return m.sendStateJSON(snap)
}

// PublishState sends the connectivity topic and the JSON state topic.
func (m *MQTT) PublishState(snap status.Snapshot) error {
	payload := "disconnected"
	if snap.State.Connected() {
		payload = "connected"
	}
	if err := m.send(m.topic("connection_status"), payload); err != nil {
		return err
	}
	return m.sendStateJSON(snap)
}

// Close marks the bridge offline and disconnects. The offline publish
// wait is capped at closeTimeout so shutdown stays prompt.
func (m *MQTT) Close() error {
	wait := m.timeout
	if wait > closeTimeout {
		wait = closeTimeout
	}

	var err error
	tok := m.cli.Publish(m.availabilityTopic(), m.cfg.QoS, true, "offline")
	if !tok.WaitTimeout(wait) {
		err = fmt.Errorf("publish: timeout on %s", m.availabilityTopic())
	} else {
		err = tok.Error()
	}

	m.cli.Disconnect(250)
	return err
}

// announce publishes availability and the discovery configs.
// Runs on every (re)connect so a restarted broker re-learns the device.
func (m *MQTT) announce(c mqttClient) {
	_ = c.Publish(m.availabilityTopic(), m.cfg.QoS, true, "online")
	for _, msg := range discoveryMessages(m.cfg) {
		_ = c.Publish(msg.topic, m.cfg.QoS, true, msg.payload)
	}
}

func (m *MQTT) send(topic, payload string) error {
	tok := m.cli.Publish(topic, m.cfg.QoS, m.cfg.Retain, payload)
	if !tok.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish: timeout on %s", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}
	return nil
}

func (m *MQTT) sendStateJSON(snap status.Snapshot) error {
	b, err := status.Encode(snap)
	if err != nil {
		return fmt.Errorf("publish: encode state: %w", err)
	}
	return m.send(m.topic("state"), string(b))
}

func (m *MQTT) topic(suffix string) string {
	return fmt.Sprintf("%s/%s/%s", m.cfg.TopicPrefix, m.cfg.DeviceID, suffix)
}

func (m *MQTT) availabilityTopic() string {
	return m.topic("availability")
}
