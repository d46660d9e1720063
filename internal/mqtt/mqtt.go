// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/http-gpio/internal/logic"
)

// Topic is the MQTT topic for pin operation events.
const Topic = "gpio/http-gpio/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "gpio/http-gpio/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a pin operation event to the broker.
	// Returns error if publishing fails (should not fail the request).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	GPIO GPIOPayload `json:"gpio"`
}

// GPIOPayload contains the pin event details.
type GPIOPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Chip      string `json:"chip"`
	Pin       int    `json:"pin"`
	Direction string `json:"direction"`
	Value     *int   `json:"value,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a pin event.
// Failed events carry kind and error instead of a value.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := GPIOPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Chip:      event.Key.Chip,
		Pin:       event.Key.Pin,
		Direction: string(event.Key.Direction),
	}
	if event.Type == logic.EventFailed {
		p.Kind = event.Kind.String()
		p.Error = event.Error
	} else {
		v := event.Value
		p.Value = &v
	}
	return json.Marshal(Payload{GPIO: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
