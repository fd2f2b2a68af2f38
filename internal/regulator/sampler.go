package regulator

import "fmt"

// Sampler keeps an exponentially filtered temperature estimate.
type Sampler struct {
	sensor   Sensor
	estimate float64
	primed   bool
}

// NewSampler creates a sampler reading from sensor.
func NewSampler(sensor Sensor) *Sampler {
	return &Sampler{sensor: sensor}
}

// Sample takes one reading and returns the updated estimate.
// The first successful reading initializes the estimate directly; every later
// reading is blended in with weight SmoothingNew. On a read error the estimate
// is left unchanged.
func (s *Sampler) Sample() (float64, error) {
	raw, err := s.sensor.Temperature()
	if err != nil {
		return s.estimate, fmt.Errorf("read temperature: %w", err)
	}

	if !s.primed {
		s.estimate = raw
		s.primed = true
		return s.estimate, nil
	}

	s.estimate = s.estimate*SmoothingKeep + raw*SmoothingNew
	return s.estimate, nil
}

// Prime initializes the estimate from one reading followed by n smoothing
// updates.
func (s *Sampler) Prime(n int) (float64, error) {
	if _, err := s.Sample(); err != nil {
		return s.estimate, err
	}
	for i := 0; i < n; i++ {
		if _, err := s.Sample(); err != nil {
			return s.estimate, err
		}
	}
	return s.estimate, nil
}

// Estimate returns the current estimate without reading the sensor.
func (s *Sampler) Estimate() float64 {
	return s.estimate
}

// Primed reports whether the estimate has been initialized.
func (s *Sampler) Primed() bool {
	return s.primed
}
