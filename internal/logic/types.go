// Package logic contains the pure domain types for GPIO line control.
// This package has NO external dependencies (no GPIO, MQTT, HTTP or OS).
package logic

import (
	"fmt"
	"time"
)

// Direction is the direction a line is claimed for.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Op identifies a command variant.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

// Command is a parsed pin command: Read, or Write with a value.
// Construct with Read or Write; the zero value is a Read.
type Command struct {
	Op    Op
	Value bool // only meaningful for OpWrite
}

// Read returns a Read command.
func Read() Command { return Command{Op: OpRead} }

// Write returns a Write command carrying v.
func Write(v bool) Command { return Command{Op: OpWrite, Value: v} }

// Direction returns the direction a line must be claimed for to run c.
func (c Command) Direction() Direction {
	if c.Op == OpWrite {
		return Output
	}
	return Input
}

func (c Command) String() string {
	if c.Op == OpWrite {
		return fmt.Sprintf("Out{value: %t}", c.Value)
	}
	return "In"
}

// Key identifies a claimed line. Two keys are equal iff chip, pin and
// direction are all equal, so Key is used directly as a map key.
type Key struct {
	Chip      string
	Pin       int
	Direction Direction
}

// KeyFor returns the key that cmd resolves to on chip/pin.
func KeyFor(chip string, pin int, cmd Command) Key {
	return Key{Chip: chip, Pin: pin, Direction: cmd.Direction()}
}

// Less orders keys by chip, then pin, then direction.
func (k Key) Less(o Key) bool {
	if k.Chip != o.Chip {
		return k.Chip < o.Chip
	}
	if k.Pin != o.Pin {
		return k.Pin < o.Pin
	}
	return k.Direction < o.Direction
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%s", k.Chip, k.Pin, k.Direction)
}

// Outcome is the result of a successful command.
// HasValue is set for reads; writes report nothing.
type Outcome struct {
	Value    int
	HasValue bool
}

// BoolToValue converts a logical value to the line's binary representation.
func BoolToValue(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EventType describes what an Event reports.
type EventType string

const (
	EventWrite  EventType = "WRITE"
	EventRead   EventType = "READ"
	EventFailed EventType = "FAILED"
)

// Event records a completed pin operation.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Key       Key
	Value     int    // written or read value; unset for FAILED
	Kind      Kind   // FAILED only
	Error     string // FAILED only
}
