// Package status provides a thread-safe status tracker for the http-gpio daemon.
// It is read by the HTTP status endpoints and the MQTT lifecycle events.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/http-gpio/internal/lines"
	"github.com/sweeney/http-gpio/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Listen   string
	Consumer string
	SettleMs int64
	Broker   string // empty = MQTT disabled
}

// Counts tracks completed operations since startup.
type Counts struct {
	Writes   int
	Reads    int
	Failures int
}

// PinState is the last observed state of a key.
type PinState struct {
	Key       logic.Key
	LastEvent logic.EventType
	Value     int
	Error     string
	Updated   time.Time
	Ops       int
}

// ClaimSource reports the lines currently held by the handle cache.
type ClaimSource interface {
	Entries() []lines.Entry
	Stats() lines.Stats
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Counts        Counts
	Pins          []PinState // sorted by key
	Claimed       []lines.Entry
	CacheStats    lines.Stats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	start         time.Time
	cfg           Config
	counts        Counts
	pins          map[logic.Key]PinState
	mqttConnected bool
	claims        ClaimSource
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		start: startTime,
		cfg:   cfg,
		pins:  make(map[logic.Key]PinState),
	}
}

// SetClaimSource attaches the handle cache whose entries are reported.
func (t *Tracker) SetClaimSource(src ClaimSource) {
	t.mu.Lock()
	t.claims = src
	t.mu.Unlock()
}

// Record updates counts and the per-key state from a completed operation.
func (t *Tracker) Record(ev logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case logic.EventWrite:
		t.counts.Writes++
	case logic.EventRead:
		t.counts.Reads++
	case logic.EventFailed:
		t.counts.Failures++
	}

	ps := t.pins[ev.Key]
	ps.Key = ev.Key
	ps.LastEvent = ev.Type
	ps.Updated = ev.Timestamp
	ps.Ops++
	if ev.Type == logic.EventFailed {
		ps.Error = ev.Error
	} else {
		ps.Value = ev.Value
		ps.Error = ""
	}
	t.pins[ev.Key] = ps
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := Snapshot{
		Counts:        t.counts,
		Pins:          make([]PinState, 0, len(t.pins)),
		StartTime:     t.start,
		MQTTConnected: t.mqttConnected,
		Config:        t.cfg,
	}
	for _, ps := range t.pins {
		s.Pins = append(s.Pins, ps)
	}
	src := t.claims
	t.mu.RUnlock()

	// Queried outside our lock: the cache takes its own.
	if src != nil {
		s.Claimed = src.Entries()
		s.CacheStats = src.Stats()
	}

	sort.Slice(s.Pins, func(i, j int) bool {
		return s.Pins[i].Key.Less(s.Pins[j].Key)
	})
	s.Now = time.Now()
	return s
}
