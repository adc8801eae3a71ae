// internal/publish/discovery.go
package publish

import (
	"encoding/json"
	"fmt"
)

// Home Assistant MQTT discovery.
// https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

type discoveryConfig struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	StateTopic        string `json:"state_topic"`
	AvailabilityTopic string `json:"availability_topic"`

	DeviceClass       string `json:"device_class,omitempty"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	StateClass        string `json:"state_class,omitempty"`
	DisplayPrecision  int    `json:"suggested_display_precision,omitempty"`
	Icon              string `json:"icon,omitempty"`

	// Binary sensor only.
	PayloadOn  string `json:"payload_on,omitempty"`
	PayloadOff string `json:"payload_off,omitempty"`

	Device discoveryDevice `json:"device"`
}

type discoveryMessage struct {
	topic   string
	payload []byte
}

// discoveryMessages builds the retained config messages for the two CT
// current sensors, the optional power sensors and the connectivity
// binary sensor.
func discoveryMessages(cfg MQTTConfig) []discoveryMessage {
	device := discoveryDevice{
		Identifiers:  []string{cfg.DeviceID},
		Name:         cfg.DeviceName,
		Manufacturer: "VElectric",
		Model:        "Load Manager",
	}

	stateTopic := func(suffix string) string {
		return fmt.Sprintf("%s/%s/%s", cfg.TopicPrefix, cfg.DeviceID, suffix)
	}
	availability := stateTopic("availability")

	var msgs []discoveryMessage

	add := func(component, key string, dc discoveryConfig) {
		dc.UniqueID = fmt.Sprintf("%s_%s", cfg.DeviceID, key)
		dc.StateTopic = stateTopic(key)
		dc.AvailabilityTopic = availability
		dc.Device = device

		payload, err := json.Marshal(dc)
		if err != nil {
			return
		}
		msgs = append(msgs, discoveryMessage{
			topic: fmt.Sprintf("%s/%s/%s/%s/config",
				cfg.DiscoveryPrefix, component, cfg.DeviceID, key),
			payload: payload,
		})
	}

	add("sensor", "ct1_current", discoveryConfig{
		Name:              "CT1 Current",
		DeviceClass:       "current",
		UnitOfMeasurement: "A",
		StateClass:        "measurement",
		DisplayPrecision:  1,
	})
	add("sensor", "ct2_current", discoveryConfig{
		Name:              "CT2 Current",
		DeviceClass:       "current",
		UnitOfMeasurement: "A",
		StateClass:        "measurement",
		DisplayPrecision:  1,
	})

	if cfg.PowerEnabled {
		add("sensor", "ct1_power", discoveryConfig{
			Name:              "CT1 Power",
			DeviceClass:       "power",
			UnitOfMeasurement: "W",
			StateClass:        "measurement",
		})
		add("sensor", "ct2_power", discoveryConfig{
			Name:              "CT2 Power",
			DeviceClass:       "power",
			UnitOfMeasurement: "W",
			StateClass:        "measurement",
		})
	}

	add("binary_sensor", "connection_status", discoveryConfig{
		Name:        "Connection Status",
		DeviceClass: "connectivity",
		PayloadOn:   "connected",
		PayloadOff:  "disconnected",
		Icon:        "mdi:connection",
	})

	return msgs
}
