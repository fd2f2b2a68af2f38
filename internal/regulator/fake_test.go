package regulator

import (
	"errors"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// scriptedAnalog returns scripted readings; the last one repeats.
type scriptedAnalog struct {
	values []int
	index  int
	err    error
	reads  int
}

func (a *scriptedAnalog) Read() (int, error) {
	a.reads++
	if a.err != nil {
		return 0, a.err
	}
	if len(a.values) == 0 {
		return 0, errors.New("no values configured")
	}
	v := a.values[a.index]
	if a.index < len(a.values)-1 {
		a.index++
	}
	return v, nil
}

// scriptedSensor returns scripted temperatures; the last one repeats.
type scriptedSensor struct {
	values []float64
	index  int
	err    error
	reads  int
}

func (s *scriptedSensor) Temperature() (float64, error) {
	s.reads++
	if s.err != nil {
		return 0, s.err
	}
	v := s.values[s.index]
	if s.index < len(s.values)-1 {
		s.index++
	}
	return v, nil
}

type recordingFirer struct {
	fractions []float64
	err       error
}

func (f *recordingFirer) Arm(fraction float64) error {
	f.fractions = append(f.fractions, fraction)
	return f.err
}

type recordingBank struct {
	writes [][]int
	err    error
}

func (b *recordingBank) SetValues(values []int) error {
	if b.err != nil {
		return b.err
	}
	b.writes = append(b.writes, append([]int(nil), values...))
	return nil
}

func approx(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
