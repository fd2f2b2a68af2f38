//go:build !linux

// Package i2c is a minimal Linux I2C master backed by /dev/i2c-*.
package i2c

import "errors"

var errUnsupported = errors.New("i2c: not supported on this platform (requires Linux)")

// Bus is not available on non-Linux platforms.
type Bus struct{}

// Dev is not available on non-Linux platforms.
type Dev struct{}

// Open returns an error on non-Linux platforms.
func Open(path string) (*Bus, error) { return nil, errUnsupported }

func (b *Bus) Close() error         { return nil }
func (b *Bus) Dev(addr uint16) *Dev { return &Dev{} }
func (d *Dev) Write(p []byte) error { return errUnsupported }
func (d *Dev) WriteRead(w, r []byte) error {
	return errUnsupported
}
func (d *Dev) ReadRegU16(reg byte) (uint16, error)  { return 0, errUnsupported }
func (d *Dev) WriteRegU16(reg byte, v uint16) error { return errUnsupported }
