// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/http-gpio/internal/logic"

// DefaultConsumer is the label lines are requested with.
const DefaultConsumer = "http-gpio"

// Opener opens GPIO chips by name.
type Opener interface {
	// Open opens the named chip, e.g. "gpiochip0" or "/dev/gpiochip0".
	Open(name string) (Chip, error)
}

// Chip is an open GPIO chip.
type Chip interface {
	// Line returns the line at offset. Fails if offset is out of range.
	Line(offset int) (Line, error)

	// Close releases the chip. Lines already requested stay claimed.
	Close() error
}

// Line is an unclaimed line on a chip.
type Line interface {
	// Request claims the line for dir. For outputs, initial is the value
	// driven once the line is claimed.
	Request(dir logic.Direction, initial int, consumer string) (Handle, error)
}

// Handle is a claimed line.
type Handle interface {
	// Value returns the current line value, 0 or 1.
	Value() (int, error)

	// SetValue drives the line to value (0 or 1).
	SetValue(value int) error

	// Close releases the claim.
	Close() error
}
