package regulator

import (
	"testing"
	"time"
)

func TestSetpointIncreaseOnRelease(t *testing.T) {
	s := NewSetpoint(DefaultSetpointConfig(), t0)

	if typ := s.Poll(0, t0.Add(time.Second)); typ != "" {
		t.Errorf("press: expected no change, got %s", typ)
	}
	if !s.Latched() {
		t.Fatal("press should be latched")
	}

	at := t0.Add(2 * time.Second)
	if typ := s.Poll(500, at); typ != EventSetpointUp {
		t.Errorf("release in increase band: got %q, want %s", typ, EventSetpointUp)
	}
	if s.Desired() != 31 {
		t.Errorf("desired: got %v, want 31", s.Desired())
	}
	if !s.LastChange().Equal(at) {
		t.Errorf("last change: got %v, want %v", s.LastChange(), at)
	}
	if s.Latched() {
		t.Error("latch should clear after the edge is consumed")
	}
}

func TestSetpointDecreaseOnRelease(t *testing.T) {
	s := NewSetpoint(DefaultSetpointConfig(), t0)

	s.Poll(1, t0)
	if typ := s.Poll(1023, t0.Add(time.Millisecond)); typ != EventSetpointDown {
		t.Errorf("release in decrease band: got %q, want %s", typ, EventSetpointDown)
	}
	if s.Desired() != 29 {
		t.Errorf("desired: got %v, want 29", s.Desired())
	}
}

func TestSetpointHeldCountsOnce(t *testing.T) {
	s := NewSetpoint(DefaultSetpointConfig(), t0)

	for i := 0; i < 50; i++ {
		if typ := s.Poll(0, t0.Add(time.Duration(i)*time.Millisecond)); typ != "" {
			t.Fatalf("poll %d while held: unexpected %s", i, typ)
		}
	}
	if s.Desired() != DefaultDesired {
		t.Errorf("desired changed while held: %v", s.Desired())
	}

	s.Poll(500, t0.Add(time.Second))
	for i := 0; i < 10; i++ {
		if typ := s.Poll(1023, t0.Add(time.Second+time.Duration(i)*time.Millisecond)); typ != "" {
			t.Fatalf("poll %d after release: unexpected %s", i, typ)
		}
	}
	if s.Desired() != DefaultDesired+1 {
		t.Errorf("desired: got %v, want %v", s.Desired(), DefaultDesired+1)
	}
}

func TestSetpointNoPressNoChange(t *testing.T) {
	s := NewSetpoint(DefaultSetpointConfig(), t0)
	for _, raw := range []int{1023, 500, 819, 2} {
		if typ := s.Poll(raw, t0); typ != "" {
			t.Errorf("reading %d without press: unexpected %s", raw, typ)
		}
	}
	if !s.LastChange().Equal(t0) {
		t.Error("last change should stay at boot time")
	}
}

func TestSetpointClampedAtBounds(t *testing.T) {
	cfg := DefaultSetpointConfig()
	cfg.Desired = cfg.Maximum
	s := NewSetpoint(cfg, t0)

	s.Poll(0, t0)
	at := t0.Add(time.Second)
	if typ := s.Poll(500, at); typ != "" {
		t.Errorf("press at maximum: expected no event, got %s", typ)
	}
	if s.Desired() != cfg.Maximum {
		t.Errorf("desired: got %v, want %v", s.Desired(), cfg.Maximum)
	}
	if !s.LastChange().Equal(at) {
		t.Error("press at a bound should still refresh the display window")
	}

	cfg.Desired = cfg.Minimum
	s = NewSetpoint(cfg, t0)
	s.Poll(0, t0)
	if typ := s.Poll(1000, at); typ != "" {
		t.Errorf("press at minimum: expected no event, got %s", typ)
	}
	if s.Desired() != cfg.Minimum {
		t.Errorf("desired: got %v, want %v", s.Desired(), cfg.Minimum)
	}
}

func TestSetpointInitialClamped(t *testing.T) {
	cfg := DefaultSetpointConfig()
	cfg.Desired = 90
	s := NewSetpoint(cfg, t0)
	if s.Desired() != cfg.Maximum {
		t.Errorf("desired: got %v, want %v", s.Desired(), cfg.Maximum)
	}
}
