package adc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	regConversion = 0x00
	regConfig     = 0x01

	cfgOSSingle   uint16 = 0x8000
	cfgModeSingle uint16 = 0x0100
	cfgRate860    uint16 = 0x00E0
	cfgQueueNone  uint16 = 0x0003

	pollInterval = 200 * time.Microsecond
	pollTimeout  = 50 * time.Millisecond
)

// DefaultAddress is the ADS1115 address with ADDR tied to ground.
const DefaultAddress = 0x48

// Channels is the number of single-ended inputs.
const Channels = 4

var muxSingle = [Channels]uint16{0x4000, 0x5000, 0x6000, 0x7000}

// gains maps full-scale range in volts to PGA bits.
var gains = map[float64]uint16{
	6.144: 0x0000,
	4.096: 0x0200,
	2.048: 0x0400,
	1.024: 0x0600,
	0.512: 0x0800,
	0.256: 0x0A00,
}

// GainFor returns the PGA bits for a full-scale range.
func GainFor(fsr float64) (uint16, error) {
	g, ok := gains[fsr]
	if !ok {
		return 0, fmt.Errorf("adc: unsupported full-scale range %gV (want one of %s)", fsr, ranges())
	}
	return g, nil
}

func ranges() string {
	keys := make([]float64, 0, len(gains))
	for k := range gains {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%g", k)
	}
	return strings.Join(parts, ", ")
}

// Registers is 16-bit big-endian register access to one I2C device.
type Registers interface {
	ReadRegU16(reg byte) (uint16, error)
	WriteRegU16(reg byte, v uint16) error
}

var (
	sleepFn = time.Sleep
	nowFn   = time.Now
)

// ADS1115 is a 16-bit four channel converter used in single-shot mode.
// Conversions are serialized.
type ADS1115 struct {
	mu      sync.Mutex
	regs    Registers
	gain    uint16
	sampled [Channels]time.Time
}

// NewADS1115 returns a converter on regs with the given full-scale range.
func NewADS1115(regs Registers, fsr float64) (*ADS1115, error) {
	g, err := GainFor(fsr)
	if err != nil {
		return nil, err
	}
	return &ADS1115{regs: regs, gain: g}, nil
}

// Read starts a conversion on ch, waits for it and returns the normalized count.
func (a *ADS1115) Read(ch int) (int, error) {
	raw, err := a.convert(ch)
	if err != nil {
		return 0, err
	}
	return Normalize(raw), nil
}

func (a *ADS1115) convert(ch int) (int16, error) {
	if ch < 0 || ch >= Channels {
		return 0, fmt.Errorf("%w: %d", ErrChannel, ch)
	}
	cfg := cfgOSSingle | muxSingle[ch] | a.gain | cfgModeSingle | cfgRate860 | cfgQueueNone

	a.mu.Lock()
	defer a.mu.Unlock()

	start := nowFn()
	if err := a.regs.WriteRegU16(regConfig, cfg); err != nil {
		return 0, fmt.Errorf("ads1115: write config: %w", err)
	}

	deadline := start.Add(pollTimeout)
	for {
		sleepFn(pollInterval)
		st, err := a.regs.ReadRegU16(regConfig)
		if err != nil {
			return 0, fmt.Errorf("ads1115: poll config: %w", err)
		}
		if st&cfgOSSingle != 0 {
			// The converter integrates over the whole conversion.
			a.sampled[ch] = start.Add(nowFn().Sub(start) / 2)
			break
		}
		if nowFn().After(deadline) {
			return 0, fmt.Errorf("ads1115: conversion timeout on AIN%d (cfg=0x%04X)", ch, st)
		}
	}

	v, err := a.regs.ReadRegU16(regConversion)
	if err != nil {
		return 0, fmt.Errorf("ads1115: read conversion: %w", err)
	}
	return int16(v), nil
}

// SampledAt returns the midpoint of the last conversion on ch, or the zero
// time if ch has not been read.
func (a *ADS1115) SampledAt(ch int) time.Time {
	if ch < 0 || ch >= Channels {
		return time.Time{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sampled[ch]
}

// Close is a no-op; the bus is owned by the caller.
func (a *ADS1115) Close() error { return nil }
