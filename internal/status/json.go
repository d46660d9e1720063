package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"op_counts"`
	Cache         CacheJSON     `json:"cache"`
	Claimed       []ClaimedJSON `json:"claimed"`
	Pins          []PinJSON     `json:"pins"`
	Config        ConfigJSON    `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of operation counts.
type CountsJSON struct {
	Writes   int `json:"writes"`
	Reads    int `json:"reads"`
	Failures int `json:"failures"`
}

// CacheJSON is the JSON representation of handle cache counters.
type CacheJSON struct {
	Claims int `json:"claims"`
	Hits   int `json:"hits"`
	Failed int `json:"failed"`
}

// ClaimedJSON describes one held line.
type ClaimedJSON struct {
	Chip      string `json:"chip"`
	Pin       int    `json:"pin"`
	Direction string `json:"direction"`
	ClaimedAt string `json:"claimed_at"`
}

// PinJSON is the last observed state of one key.
type PinJSON struct {
	Chip      string `json:"chip"`
	Pin       int    `json:"pin"`
	Direction string `json:"direction"`
	LastEvent string `json:"last_event"`
	Value     int    `json:"value"`
	Error     string `json:"error,omitempty"`
	Ops       int    `json:"ops"`
	Updated   string `json:"updated"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Listen   string `json:"listen"`
	Consumer string `json:"consumer"`
	SettleMs int64  `json:"settle_ms"`
	Broker   string `json:"broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Writes:   snap.Counts.Writes,
			Reads:    snap.Counts.Reads,
			Failures: snap.Counts.Failures,
		},
		Cache: CacheJSON{
			Claims: snap.CacheStats.Claims,
			Hits:   snap.CacheStats.Hits,
			Failed: snap.CacheStats.Failed,
		},
		Claimed: make([]ClaimedJSON, 0, len(snap.Claimed)),
		Pins:    make([]PinJSON, 0, len(snap.Pins)),
		Config: ConfigJSON{
			Listen:   snap.Config.Listen,
			Consumer: snap.Config.Consumer,
			SettleMs: snap.Config.SettleMs,
			Broker:   snap.Config.Broker,
		},
	}

	for _, e := range snap.Claimed {
		inner.Claimed = append(inner.Claimed, ClaimedJSON{
			Chip:      e.Key.Chip,
			Pin:       e.Key.Pin,
			Direction: string(e.Key.Direction),
			ClaimedAt: e.ClaimedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, p := range snap.Pins {
		inner.Pins = append(inner.Pins, PinJSON{
			Chip:      p.Key.Chip,
			Pin:       p.Key.Pin,
			Direction: string(p.Key.Direction),
			LastEvent: string(p.LastEvent),
			Value:     p.Value,
			Error:     p.Error,
			Ops:       p.Ops,
			Updated:   p.Updated.UTC().Format(time.RFC3339),
		})
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
