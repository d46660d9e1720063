//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/http-gpio/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

// RealOpener opens chips through the Linux GPIO character device.
type RealOpener struct{}

// NewRealOpener returns an Opener for actual hardware.
func NewRealOpener() (*RealOpener, error) {
	return &RealOpener{}, nil
}

// Open opens the chip. name may be a bare device name or a /dev path.
func (RealOpener) Open(name string) (Chip, error) {
	c, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &realChip{chip: c}, nil
}

type realChip struct {
	chip *gpiocdev.Chip
}

func (c *realChip) Line(offset int) (Line, error) {
	if offset < 0 || offset >= c.chip.Lines() {
		return nil, fmt.Errorf("line %d on %s (%d lines): %w", offset, c.chip.Name, c.chip.Lines(), gpiocdev.ErrInvalidOffset)
	}
	return &realLine{chip: c.chip, offset: offset}, nil
}

func (c *realChip) Close() error {
	return c.chip.Close()
}

type realLine struct {
	chip   *gpiocdev.Chip
	offset int
}

// Request claims the line. The returned line holds its own file descriptor,
// so it outlives the chip it was requested from.
func (l *realLine) Request(dir logic.Direction, initial int, consumer string) (Handle, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(consumer)}
	switch dir {
	case logic.Output:
		opts = append(opts, gpiocdev.AsOutput(initial))
	case logic.Input:
		opts = append(opts, gpiocdev.AsInput)
	default:
		return nil, fmt.Errorf("unsupported direction %q", dir)
	}

	line, err := l.chip.RequestLine(l.offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request %s line %d as %s: %w", l.chip.Name, l.offset, dir, err)
	}
	return line, nil
}

var _ Handle = (*gpiocdev.Line)(nil)
