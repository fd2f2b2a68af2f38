// Package config loads the regulator's hardware wiring and thresholds from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/shower-regulator/internal/adc"
	"github.com/sweeney/shower-regulator/internal/firing"
	"github.com/sweeney/shower-regulator/internal/gpio"
	"github.com/sweeney/shower-regulator/internal/regulator"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete file configuration.
type Config struct {
	GPIO       GPIOConfig       `yaml:"gpio"`
	ADC        ADCConfig        `yaml:"adc"`
	Mains      MainsConfig      `yaml:"mains"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Setpoint   SetpointConfig   `yaml:"setpoint"`
	Sensor     SensorConfig     `yaml:"sensor"`
}

// GPIOConfig names the output lines.
type GPIOConfig struct {
	Chip      string `yaml:"chip"`
	Trigger   int    `yaml:"trigger"`
	Segments  []int  `yaml:"segments"` // a..g
	Selects   []int  `yaml:"selects"`  // tens, ones
	ActiveLow bool   `yaml:"active_low"`

	// ZeroCross is the zero-cross comparator input. Unset, the crossing is
	// found by sampling adc.mains.
	ZeroCross          *int `yaml:"zero_cross"`
	ZeroCrossActiveLow bool `yaml:"zero_cross_active_low"`
}

// ADCConfig describes the converter and which input carries what.
type ADCConfig struct {
	Bus     string  `yaml:"bus"`
	Address uint16  `yaml:"address"`
	FSR     float64 `yaml:"fsr"` // full-scale range, volts
	Mains   int     `yaml:"mains"`
	Sensor  int     `yaml:"sensor"`
	Button  int     `yaml:"button"`
}

// MainsConfig describes the supply.
type MainsConfig struct {
	Frequency int `yaml:"frequency"` // Hz
}

// ThresholdsConfig holds the analog thresholds in 10-bit counts.
type ThresholdsConfig struct {
	ZeroCross   int `yaml:"zero_cross"`
	Rearm       int `yaml:"rearm"`
	ButtonPress int `yaml:"button_press"`
	ButtonSplit int `yaml:"button_split"`
}

// SetpointConfig bounds the desired temperature (°C).
type SetpointConfig struct {
	Default float64 `yaml:"default"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

// SensorConfig scales the temperature probe.
type SensorConfig struct {
	// VoltsPerDegree is the probe output slope (0.01 for an LM35).
	VoltsPerDegree float64 `yaml:"volts_per_degree"`
	// CelsiusPerCount overrides the scale derived from the slope and
	// adc.fsr. Zero derives it.
	CelsiusPerCount float64 `yaml:"celsius_per_count"`
}

// Default returns the stock board wiring.
func Default() *Config {
	return &Config{
		GPIO: GPIOConfig{
			Chip:     gpio.DefaultChip,
			Trigger:  gpio.PinTrigger,
			Segments: append([]int(nil), gpio.SegmentPins[:]...),
			Selects:  append([]int(nil), gpio.SelectPins[:]...),
		},
		ADC: ADCConfig{
			Bus:     "/dev/i2c-1",
			Address: adc.DefaultAddress,
			FSR:     1.024,
			Mains:   0,
			Sensor:  1,
			Button:  2,
		},
		Mains: MainsConfig{Frequency: 60},
		Thresholds: ThresholdsConfig{
			ZeroCross:   regulator.DefaultZeroCross,
			Rearm:       regulator.DefaultRearm,
			ButtonPress: regulator.DefaultButtonPress,
			ButtonSplit: regulator.DefaultButtonSplit,
		},
		Setpoint: SetpointConfig{
			Default: regulator.DefaultDesired,
			Min:     regulator.DefaultMinimum,
			Max:     regulator.DefaultMaximum,
		},
		Sensor: SensorConfig{VoltsPerDegree: 0.01},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ensureDefaults restores fields explicitly set to their zero value where zero
// is never meaningful. Thresholds, setpoint bounds and ADC channel numbers are
// taken as written: 0 is a legal value for each and Validate rejects the
// combinations that cannot work.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if len(c.GPIO.Segments) == 0 {
		c.GPIO.Segments = def.GPIO.Segments
	}
	if len(c.GPIO.Selects) == 0 {
		c.GPIO.Selects = def.GPIO.Selects
	}

	if c.ADC.Bus == "" {
		c.ADC.Bus = def.ADC.Bus
	}
	if c.ADC.Address == 0 {
		c.ADC.Address = def.ADC.Address
	}
	if c.ADC.FSR == 0 {
		c.ADC.FSR = def.ADC.FSR
	}

	if c.Mains.Frequency == 0 {
		c.Mains.Frequency = def.Mains.Frequency
	}

	if c.Sensor.VoltsPerDegree == 0 {
		c.Sensor.VoltsPerDegree = def.Sensor.VoltsPerDegree
	}
}

// Validate checks the configuration for values the hardware cannot honour.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if len(c.GPIO.Segments) != 7 {
		bad("gpio.segments: want 7 lines, got %d", len(c.GPIO.Segments))
	}
	if len(c.GPIO.Selects) != 2 {
		bad("gpio.selects: want 2 lines, got %d", len(c.GPIO.Selects))
	}
	seen := map[int]bool{c.GPIO.Trigger: true}
	lines := append(append([]int(nil), c.GPIO.Segments...), c.GPIO.Selects...)
	if c.GPIO.ZeroCross != nil {
		lines = append(lines, *c.GPIO.ZeroCross)
	}
	for _, p := range lines {
		if seen[p] {
			bad("gpio: line %d used twice", p)
		}
		seen[p] = true
	}

	if c.ADC.Address > 0x7F {
		bad("adc.address: 0x%X is not a 7-bit address", c.ADC.Address)
	}
	if _, err := adc.GainFor(c.ADC.FSR); err != nil {
		bad("adc.fsr: %v", err)
	}
	chans := map[string]int{"mains": c.ADC.Mains, "sensor": c.ADC.Sensor, "button": c.ADC.Button}
	used := map[int]string{}
	for _, name := range []string{"mains", "sensor", "button"} {
		ch := chans[name]
		if ch < 0 || ch >= adc.Channels {
			bad("adc.%s: channel %d out of range", name, ch)
			continue
		}
		if other, ok := used[ch]; ok {
			bad("adc.%s: channel %d already used by %s", name, ch, other)
		}
		used[ch] = name
	}

	if c.Mains.Frequency != 50 && c.Mains.Frequency != 60 {
		bad("mains.frequency: want 50 or 60, got %d", c.Mains.Frequency)
	}

	t := c.Thresholds
	if t.ZeroCross <= 0 {
		bad("thresholds: zero_cross %d never opens the firing window", t.ZeroCross)
	}
	if t.ButtonPress <= 0 {
		bad("thresholds: button_press %d never registers a press", t.ButtonPress)
	}
	if t.Rearm <= t.ZeroCross {
		bad("thresholds: rearm %d must exceed zero_cross %d", t.Rearm, t.ZeroCross)
	}
	if t.ButtonSplit <= t.ButtonPress {
		bad("thresholds: button_split %d must exceed button_press %d", t.ButtonSplit, t.ButtonPress)
	}
	if t.ButtonSplit > adc.MaxCount {
		bad("thresholds: button_split %d exceeds %d", t.ButtonSplit, adc.MaxCount)
	}

	s := c.Setpoint
	if s.Min > s.Max {
		bad("setpoint: min %g above max %g", s.Min, s.Max)
	} else if s.Default < s.Min || s.Default > s.Max {
		bad("setpoint: default %g outside [%g, %g]", s.Default, s.Min, s.Max)
	}

	if c.Sensor.VoltsPerDegree <= 0 {
		bad("sensor.volts_per_degree: must be positive")
	}
	if c.Sensor.CelsiusPerCount < 0 {
		bad("sensor.celsius_per_count: must not be negative")
	}

	return errors.Join(errs...)
}

// HalfCycle returns the mains half-cycle duration.
func (c *Config) HalfCycle() time.Duration {
	if c.Mains.Frequency == 50 {
		return firing.HalfCycle50Hz
	}
	return firing.HalfCycle60Hz
}

// CelsiusPerCount returns the probe scale for one normalized ADC count.
func (c *Config) CelsiusPerCount() float64 {
	if c.Sensor.CelsiusPerCount > 0 {
		return c.Sensor.CelsiusPerCount
	}
	return adc.VoltsPerCount(c.ADC.FSR) / c.Sensor.VoltsPerDegree
}

// Regulator returns the cycle thresholds and setpoint bounds.
func (c *Config) Regulator() regulator.Config {
	return regulator.Config{
		ZeroCross: c.Thresholds.ZeroCross,
		Rearm:     c.Thresholds.Rearm,
		Setpoint: regulator.SetpointConfig{
			Press:   c.Thresholds.ButtonPress,
			Split:   c.Thresholds.ButtonSplit,
			Desired: c.Setpoint.Default,
			Minimum: c.Setpoint.Min,
			Maximum: c.Setpoint.Max,
		},
	}
}
