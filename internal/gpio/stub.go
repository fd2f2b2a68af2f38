//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// RealPin is not available on non-Linux platforms.
type RealPin struct{}

// RequestPin is not implemented on non-Linux platforms.
func (c *Chip) RequestPin(offset int, activeLow bool) (*RealPin, error) {
	return nil, errUnsupported
}

// SetValue is not implemented on non-Linux platforms.
func (p *RealPin) SetValue(value int) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (p *RealPin) Close() error {
	return nil
}

// RealBank is not available on non-Linux platforms.
type RealBank struct{}

// RequestBank is not implemented on non-Linux platforms.
func (c *Chip) RequestBank(offsets []int, activeLow bool) (*RealBank, error) {
	return nil, errUnsupported
}

// SetValues is not implemented on non-Linux platforms.
func (b *RealBank) SetValues(values []int) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *RealBank) Close() error {
	return nil
}

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

// WatchCrossing is not implemented on non-Linux platforms.
func (c *Chip) WatchCrossing(offset int, activeLow bool, crossing *Crossing) (*RealInput, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (in *RealInput) Close() error {
	return nil
}

// Close is not implemented on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}
