//go:build !linux

package gpio

import "errors"

// RealOpener is not available on non-Linux platforms.
type RealOpener struct{}

// NewRealOpener returns an error on non-Linux platforms.
func NewRealOpener() (*RealOpener, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Open is not implemented on non-Linux platforms.
func (RealOpener) Open(name string) (Chip, error) {
	return nil, errors.New("gpio: not supported")
}
