//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// Chip is an opened GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// RealPin is an output line on actual hardware.
type RealPin struct {
	line *gpiocdev.Line
}

// RequestPin requests offset as an output, initially inactive.
func (c *Chip) RequestPin(offset int, activeLow bool) (*RealPin, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0), gpiocdev.WithConsumer(consumer)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", offset, err)
	}
	return &RealPin{line: line}, nil
}

// SetValue drives the line.
func (p *RealPin) SetValue(value int) error {
	return p.line.SetValue(value)
}

// Close drives the line inactive and hands it back as an input with pull-down,
// so the optocoupler cannot be left conducting after shutdown.
func (p *RealPin) Close() error {
	var errs []error
	if p.line != nil {
		if err := p.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release pin: %w", err))
		}
		if err := p.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := p.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RealBank is a group of output lines on actual hardware.
type RealBank struct {
	lines *gpiocdev.Lines
	off   []int
}

// RequestBank requests offsets as outputs, all initially inactive.
func (c *Chip) RequestBank(offsets []int, activeLow bool) (*RealBank, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(make([]int, len(offsets))...), gpiocdev.WithConsumer(consumer)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	lines, err := c.chip.RequestLines(offsets, opts...)
	if err != nil {
		return nil, fmt.Errorf("request pins %v: %w", offsets, err)
	}
	return &RealBank{lines: lines, off: make([]int, len(offsets))}, nil
}

// SetValues drives every line of the bank.
func (b *RealBank) SetValues(values []int) error {
	return b.lines.SetValues(values)
}

// Close blanks the bank and releases the lines.
func (b *RealBank) Close() error {
	var errs []error
	if b.lines != nil {
		if err := b.lines.SetValues(b.off); err != nil {
			errs = append(errs, fmt.Errorf("blank bank: %w", err))
		}
		if err := b.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bank: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RealInput is an input line watched for edges.
type RealInput struct {
	line *gpiocdev.Line
}

// WatchCrossing requests offset as the zero-cross comparator input and hands
// every rising edge (falling when activeLow) to c, with the kernel timestamp.
func (c *Chip) WatchCrossing(offset int, activeLow bool, crossing *Crossing) (*RealInput, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			crossing.Edge(eventTime(evt.Timestamp))
		}),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request zero-cross pin %d: %w", offset, err)
	}
	return &RealInput{line: line}, nil
}

// eventTime converts a CLOCK_MONOTONIC event timestamp to wall time.
func eventTime(ts time.Duration) time.Time {
	now := time.Now()
	var mono unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &mono); err != nil {
		return now
	}
	age := time.Duration(mono.Nano()) - ts
	if age < 0 {
		age = 0
	}
	return now.Add(-age)
}

// Close releases the line.
func (in *RealInput) Close() error {
	if in.line == nil {
		return nil
	}
	if err := in.line.Close(); err != nil {
		return fmt.Errorf("close zero-cross pin: %w", err)
	}
	return nil
}

// Close releases the chip.
func (c *Chip) Close() error {
	if c.chip == nil {
		return nil
	}
	if err := c.chip.Close(); err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}
