//go:build linux

package i2c

import (
	"os"
	"strings"
	"testing"
)

func openNull(t *testing.T) *Bus {
	t.Helper()
	f, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open /dev/null: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return &Bus{f: f, path: "/dev/null"}
}

func TestDevInvalidAddr(t *testing.T) {
	b := openNull(t)

	for _, addr := range []uint16{0, 0x80} {
		err := b.Dev(addr).Write([]byte{0x00})
		if err == nil || !strings.Contains(err.Error(), "invalid addr") {
			t.Errorf("addr 0x%X: err=%v, want invalid addr", addr, err)
		}
	}
}

func TestDevEmptyTransferIsNoop(t *testing.T) {
	b := openNull(t)

	n, err := b.Dev(0x48).tx(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("n=%d, want 0", n)
	}
}

func TestDevClosedBus(t *testing.T) {
	b := openNull(t)
	d := b.Dev(0x48)
	b.Close()

	if err := d.Write([]byte{0x01}); err == nil || !strings.Contains(err.Error(), "bus closed") {
		t.Errorf("err=%v, want bus closed", err)
	}
}

func TestNilBus(t *testing.T) {
	var b *Bus
	if b.Dev(0x48) != nil {
		t.Error("nil bus should return nil device")
	}
	if err := b.Close(); err != nil {
		t.Errorf("close nil bus: %v", err)
	}
}
