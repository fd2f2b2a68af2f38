// Package adc reads the regulator's analog inputs: the mains reference, the
// temperature probe and the button ladder.
//
// Readings are reported in 10-bit counts (0..1023) whatever the converter,
// so thresholds stay in the units the rest of the regulator uses.
package adc

import (
	"errors"
	"fmt"
	"time"
)

// MaxCount is the largest normalized reading.
const MaxCount = 1023

// ErrChannel is returned for a channel the converter does not have.
var ErrChannel = errors.New("adc: invalid channel")

// Reader samples one single-ended channel.
type Reader interface {
	Read(ch int) (int, error)
	Close() error
}

// Timestamper is implemented by readers that know when a reading was taken.
type Timestamper interface {
	SampledAt(ch int) time.Time
}

// Channel binds a Reader to one input.
type Channel struct {
	r  Reader
	ch int
}

// NewChannel returns the input ch of r.
func NewChannel(r Reader, ch int) *Channel {
	return &Channel{r: r, ch: ch}
}

// Read returns the normalized count on the channel.
func (c *Channel) Read() (int, error) {
	v, err := c.r.Read(c.ch)
	if err != nil {
		return 0, fmt.Errorf("read channel %d: %w", c.ch, err)
	}
	return v, nil
}

// Sampled returns when the last reading on the channel was taken, or the
// zero time if the reader does not record it.
func (c *Channel) Sampled() time.Time {
	if ts, ok := c.r.(Timestamper); ok {
		return ts.SampledAt(c.ch)
	}
	return time.Time{}
}

// Probe converts a linear analog temperature sensor reading to °C.
type Probe struct {
	in              *Channel
	celsiusPerCount float64
}

// NewProbe returns a probe on in scaling each count by celsiusPerCount.
func NewProbe(in *Channel, celsiusPerCount float64) *Probe {
	return &Probe{in: in, celsiusPerCount: celsiusPerCount}
}

// Temperature returns the current raw probe temperature.
func (p *Probe) Temperature() (float64, error) {
	v, err := p.in.Read()
	if err != nil {
		return 0, err
	}
	return float64(v) * p.celsiusPerCount, nil
}

// VoltsPerCount is the input voltage of one normalized count at full-scale
// range fsr.
func VoltsPerCount(fsr float64) float64 {
	return fsr / (MaxCount + 1)
}

// Normalize maps a signed 16-bit single-ended conversion to 10-bit counts.
// Negative results (input below ground) read as 0.
func Normalize(raw int16) int {
	if raw < 0 {
		return 0
	}
	return int(raw) >> 5
}
