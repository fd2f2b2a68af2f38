package gpio

import (
	"errors"
	"testing"
)

// Compile-time checks that fakes satisfy the interfaces.
var (
	_ Pin  = (*FakePin)(nil)
	_ Bank = (*FakeBank)(nil)
	_ Pin  = (*RealPin)(nil)
	_ Bank = (*RealBank)(nil)
)

func TestFakePinRecordsValues(t *testing.T) {
	p := NewFakePin()

	for _, v := range []int{1, 0, 1, 0} {
		if err := p.SetValue(v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(p.Values) != 4 {
		t.Fatalf("expected 4 values, got %d", len(p.Values))
	}
	if p.Pulses() != 2 {
		t.Errorf("expected 2 pulses, got %d", p.Pulses())
	}
}

func TestFakePinError(t *testing.T) {
	p := NewFakePin()
	p.SetError = errors.New("simulated error")

	err := p.SetValue(1)
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
	if len(p.Values) != 0 {
		t.Error("failed write should not be recorded")
	}
}

func TestFakePinClose(t *testing.T) {
	p := NewFakePin()

	if p.Closed {
		t.Error("should not be closed initially")
	}
	if err := p.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !p.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeBankCopiesWrites(t *testing.T) {
	b := NewFakeBank()
	vals := []int{1, 1, 0, 0, 0, 0, 0, 1, 0}

	b.SetValues(vals)
	vals[0] = 0
	b.SetValues(vals)

	if len(b.Writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(b.Writes))
	}
	if b.Writes[0][0] != 1 {
		t.Error("first write was modified by caller reuse")
	}
	if b.Last()[0] != 0 {
		t.Errorf("last write: expected 0 at index 0, got %d", b.Last()[0])
	}
}

func TestFakeBankReset(t *testing.T) {
	b := NewFakeBank()
	b.SetValues([]int{1})
	b.Close()

	b.Reset()

	if b.Last() != nil {
		t.Error("expected no writes after reset")
	}
	if b.Closed {
		t.Error("expected not closed after reset")
	}
}
