package regulator

import (
	"fmt"
	"time"
)

// Segments is the on/off pattern of segments a through g.
type Segments [7]bool

// digitSegments maps 0-9 to their seven-segment patterns.
var digitSegments = [10]Segments{
	{true, true, true, true, true, true, false},     // 0
	{false, true, true, false, false, false, false}, // 1
	{true, true, false, true, true, false, true},    // 2
	{true, true, true, true, false, false, true},    // 3
	{false, true, true, false, false, true, true},   // 4
	{true, false, true, true, false, true, true},    // 5
	{true, false, true, true, true, true, true},     // 6
	{true, true, true, false, false, false, false},  // 7
	{true, true, true, true, true, true, true},      // 8
	{true, true, true, true, false, true, true},     // 9
}

// DigitSegments returns the pattern for a decimal digit.
func DigitSegments(digit int) (Segments, error) {
	if digit < 0 || digit > 9 {
		return Segments{}, fmt.Errorf("display: digit %d out of range", digit)
	}
	return digitSegments[digit], nil
}

// Position selects one of the two multiplexed digits.
type Position int

const (
	PositionTens Position = iota
	PositionOnes
)

// Frame is the two-digit content of the display.
type Frame struct {
	Tens     int
	Ones     int
	Setpoint bool // true while showing DesiredTemperature
}

// FrameFor derives the display content: the setpoint while the display window
// after the last change is open, the power percentage (d*99) otherwise.
func FrameFor(now, lastChange time.Time, desired, duty float64) Frame {
	if now.Sub(lastChange) < DisplayWindow {
		v := int(desired)
		return Frame{Tens: v / 10 % 10, Ones: v % 10, Setpoint: true}
	}
	p := int(clamp(duty, 0, 1) * 99)
	return Frame{Tens: p / 10, Ones: p % 10}
}

// Display multiplexes a Frame onto the segment bank, one position per refresh.
type Display struct {
	out  SegmentWriter
	next Position
	vals []int
}

// NewDisplay creates a display writing to out. The first refresh drives the
// tens position.
func NewDisplay(out SegmentWriter) *Display {
	return &Display{out: out, next: PositionTens, vals: make([]int, 9)}
}

// Refresh drives exactly one digit position with its segments, enables that
// position's select line and disables the other, then alternates.
func (d *Display) Refresh(f Frame) error {
	pos := d.next
	if pos == PositionTens {
		d.next = PositionOnes
	} else {
		d.next = PositionTens
	}

	digit := f.Ones
	if pos == PositionTens {
		digit = f.Tens
	}
	segs, err := DigitSegments(digit)
	if err != nil {
		return err
	}

	for i, on := range segs {
		d.vals[i] = boolToLevel(on)
	}
	d.vals[7] = boolToLevel(pos == PositionTens)
	d.vals[8] = boolToLevel(pos == PositionOnes)

	if err := d.out.SetValues(d.vals); err != nil {
		return fmt.Errorf("display: write position %d: %w", pos, err)
	}
	return nil
}

// Next returns the position the next refresh will drive.
func (d *Display) Next() Position {
	return d.next
}

func boolToLevel(b bool) int {
	if b {
		return 1
	}
	return 0
}
