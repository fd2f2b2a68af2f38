package regulator

import (
	"fmt"
	"time"
)

// NextDuty applies one step of the control law and clamps the result to [0,1].
func NextDuty(err, prevErr, d float64) float64 {
	return clamp(ErrorGain*err-PrevErrorGain*prevErr+d, 0, 1)
}

// InitialDuty is the duty fraction used before the first control update.
func InitialDuty(desired, ambient float64) float64 {
	return clamp((desired-ambient)/InitialRiseSpan, 0, 1)
}

// Controller converts (desired - estimated) temperature into a duty fraction.
// It self-paces: Update only acts once its scheduled instant has passed.
type Controller struct {
	sampler *Sampler
	ambient float64
	duty    float64
	err     float64
	prevErr float64
	next    time.Time
	period  time.Duration
	started bool
}

// NewController creates a controller reading temperatures from sampler.
func NewController(sampler *Sampler) *Controller {
	return &Controller{sampler: sampler, period: ControlPeriod}
}

// Start records the ambient baseline, computes the initial duty fraction and
// sets the first control instant.
func (c *Controller) Start(ambient, desired float64, first time.Time) {
	c.ambient = ambient
	c.duty = InitialDuty(desired, ambient)
	c.err = 0
	c.prevErr = 0
	c.next = first
	c.started = true
}

// Update runs the control law if now is past the scheduled instant.
// It reports whether an update was due. A sensor error leaves the duty
// fraction unchanged but still advances the schedule.
func (c *Controller) Update(now time.Time, desired float64) (bool, error) {
	if !c.started || !now.After(c.next) {
		return false, nil
	}
	c.next = c.next.Add(c.period)

	estimate, err := c.sampler.Sample()
	if err != nil {
		return true, fmt.Errorf("controller: %w", err)
	}

	measuredRel := estimate - c.ambient
	desiredRel := desired - c.ambient

	c.prevErr = c.err
	predicted := measuredRel*PlantPole + PlantGain*c.duty
	c.err = desiredRel - predicted
	c.duty = NextDuty(c.err, c.prevErr, c.duty)
	return true, nil
}

// Duty returns the current duty fraction d.
func (c *Controller) Duty() float64 {
	return c.duty
}

// DelayFraction returns the FiringDelayFraction (1 - d) for the next arm.
func (c *Controller) DelayFraction() float64 {
	return 1 - c.duty
}

// Ambient returns the baseline captured at startup.
func (c *Controller) Ambient() float64 {
	return c.ambient
}

// Errors returns the current and previous normalized errors.
func (c *Controller) Errors() (err, prev float64) {
	return c.err, c.prevErr
}

// Next returns the next scheduled control instant.
func (c *Controller) Next() time.Time {
	return c.next
}
