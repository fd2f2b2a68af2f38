package regulator

import (
	"errors"
	"testing"
	"time"
)

func TestNextDutyMatchesControlLaw(t *testing.T) {
	cases := []struct {
		err, prev, d float64
	}{
		{0, 0, 0.5},
		{1, 0, 0.2},
		{-1, 0, 0.2},
		{2.5, 1.5, 0.3},
		{100, 0, 0},
		{-100, 0, 1},
		{0, 10, 0.9},
		{-3.2, -4.1, 0.45},
	}
	for _, c := range cases {
		want := ErrorGain*c.err - PrevErrorGain*c.prev + c.d
		if want > 1 {
			want = 1
		}
		if want < 0 {
			want = 0
		}
		got := NextDuty(c.err, c.prev, c.d)
		if !approx(got, want, 1e-12) {
			t.Errorf("NextDuty(%v, %v, %v): got %v, want %v", c.err, c.prev, c.d, got, want)
		}
		if got < 0 || got > 1 {
			t.Errorf("NextDuty(%v, %v, %v) = %v outside [0,1]", c.err, c.prev, c.d, got)
		}
	}
}

func TestInitialDuty(t *testing.T) {
	if got := InitialDuty(30, 25); !approx(got, 5.0/28, 1e-12) {
		t.Errorf("InitialDuty(30, 25): got %v, want %v", got, 5.0/28)
	}
	if got := InitialDuty(20, 25); got != 0 {
		t.Errorf("InitialDuty below ambient: got %v, want 0", got)
	}
	if got := InitialDuty(60, 10); got != 1 {
		t.Errorf("InitialDuty far above ambient: got %v, want 1", got)
	}
}

func TestControllerFirstUpdateScenario(t *testing.T) {
	sensor := &scriptedSensor{values: []float64{25}}
	sampler := NewSampler(sensor)
	ambient, _ := sampler.Prime(PrimeSamples)

	c := NewController(sampler)
	c.Start(ambient, 30, t0)
	if !approx(c.Duty(), 0.1786, 1e-4) {
		t.Fatalf("initial duty: got %v, want 0.1786", c.Duty())
	}

	ran, err := c.Update(t0.Add(time.Millisecond), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("expected update to run")
	}

	e, prev := c.Errors()
	if prev != 0 {
		t.Errorf("previous error: got %v, want 0", prev)
	}
	if !approx(e, 4.803, 1e-3) {
		t.Errorf("error: got %v, want 4.803", e)
	}
	if !approx(c.Duty(), 0.8654, 1e-3) {
		t.Errorf("duty: got %v, want 0.8654", c.Duty())
	}
	if !approx(c.DelayFraction(), 0.1346, 1e-3) {
		t.Errorf("delay fraction: got %v, want 0.1346", c.DelayFraction())
	}
}

func TestControllerSelfPaces(t *testing.T) {
	sensor := &scriptedSensor{values: []float64{25}}
	sampler := NewSampler(sensor)
	sampler.Prime(PrimeSamples)
	reads := sensor.reads

	c := NewController(sampler)
	c.Start(25, 30, t0)

	if ran, _ := c.Update(t0, 30); ran {
		t.Error("update at the scheduled instant itself should not run")
	}
	if ran, _ := c.Update(t0.Add(time.Millisecond), 30); !ran {
		t.Error("first update should run")
	}
	if !c.Next().Equal(t0.Add(ControlPeriod)) {
		t.Errorf("next: got %v, want %v", c.Next(), t0.Add(ControlPeriod))
	}
	for _, d := range []time.Duration{2 * time.Millisecond, 500 * time.Millisecond, ControlPeriod} {
		if ran, _ := c.Update(t0.Add(d), 30); ran {
			t.Errorf("update at +%v should wait for the next period", d)
		}
	}
	if ran, _ := c.Update(t0.Add(ControlPeriod+time.Millisecond), 30); !ran {
		t.Error("second update should run after one period")
	}
	if sensor.reads-reads != 2 {
		t.Errorf("sensor reads: got %d, want 2", sensor.reads-reads)
	}
}

func TestControllerNotStarted(t *testing.T) {
	c := NewController(NewSampler(&scriptedSensor{values: []float64{25}}))
	if ran, err := c.Update(t0, 30); ran || err != nil {
		t.Errorf("unstarted controller: got (%v, %v), want (false, nil)", ran, err)
	}
}

func TestControllerSensorErrorKeepsDuty(t *testing.T) {
	sensor := &scriptedSensor{values: []float64{25}}
	sampler := NewSampler(sensor)
	sampler.Prime(PrimeSamples)

	c := NewController(sampler)
	c.Start(25, 30, t0)
	before := c.Duty()

	sensor.err = errors.New("bus error")
	ran, err := c.Update(t0.Add(time.Millisecond), 30)
	if !ran {
		t.Error("update should be reported as due")
	}
	if err == nil {
		t.Fatal("expected error")
	}
	if c.Duty() != before {
		t.Errorf("duty changed on sensor error: %v -> %v", before, c.Duty())
	}
	if !c.Next().Equal(t0.Add(ControlPeriod)) {
		t.Error("schedule should advance even when the sensor fails")
	}
}

func TestControllerDutyStaysClamped(t *testing.T) {
	sensor := &scriptedSensor{values: []float64{10}}
	sampler := NewSampler(sensor)
	sampler.Prime(PrimeSamples)

	c := NewController(sampler)
	c.Start(10, 50, t0)

	// Cold water, high setpoint: the integrator saturates at full duty.
	now := t0
	for i := 0; i < 20; i++ {
		now = now.Add(ControlPeriod + time.Millisecond)
		c.Update(now, 50)
		if c.Duty() < 0 || c.Duty() > 1 {
			t.Fatalf("update %d: duty %v outside [0,1]", i, c.Duty())
		}
	}
	if c.Duty() != 1 {
		t.Errorf("duty: got %v, want 1", c.Duty())
	}

	// Setpoint dropped below ambient: duty falls to zero.
	for i := 0; i < 20; i++ {
		now = now.Add(ControlPeriod + time.Millisecond)
		c.Update(now, 5)
	}
	if c.Duty() != 0 {
		t.Errorf("duty: got %v, want 0", c.Duty())
	}
	if c.DelayFraction() != 1 {
		t.Errorf("delay fraction: got %v, want 1", c.DelayFraction())
	}
}
