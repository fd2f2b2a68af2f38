// Package gpio provides digital output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Pin is a single output line.
type Pin interface {
	// SetValue drives the line: 1 = active, 0 = inactive.
	SetValue(value int) error

	// Close releases the line.
	Close() error
}

// Bank is a group of output lines written in one operation.
type Bank interface {
	// SetValues drives every line of the bank, in request order.
	SetValues(values []int) error

	// Close releases the lines.
	Close() error
}

// DefaultChip is the GPIO character device carrying the header pins.
const DefaultChip = "gpiochip0"

// Pin definitions (BCM numbering)
const (
	PinTrigger = 17 // Optocoupler driving the triac gate
)

// SegmentPins drive display segments a..g.
var SegmentPins = [7]int{5, 6, 13, 19, 26, 12, 16}

// SelectPins enable the tens and ones digit.
var SelectPins = [2]int{20, 21}

// consumer labels requested lines in gpioinfo output.
const consumer = "shower-regulator"
