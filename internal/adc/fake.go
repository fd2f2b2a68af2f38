package adc

import (
	"sync"
	"time"
)

// FakeReader is a test double returning scripted counts per channel.
// Each channel replays its script and then repeats the last value.
type FakeReader struct {
	mu      sync.Mutex
	scripts map[int][]int
	reads   map[int]int

	// Errors, if set for a channel, is returned by Read on that channel.
	Errors map[int]error

	// Sampled is returned by SampledAt.
	Sampled map[int]time.Time

	Closed bool
}

// NewFakeReader creates a FakeReader with no scripts.
func NewFakeReader() *FakeReader {
	return &FakeReader{
		scripts: make(map[int][]int),
		reads:   make(map[int]int),
		Errors:  make(map[int]error),
		Sampled: make(map[int]time.Time),
	}
}

// Script sets the values returned on ch.
func (f *FakeReader) Script(ch int, values ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[ch] = append([]int(nil), values...)
	f.reads[ch] = 0
}

// Read returns the next scripted value on ch.
func (f *FakeReader) Read(ch int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errors[ch]; err != nil {
		return 0, err
	}
	s, ok := f.scripts[ch]
	if !ok || len(s) == 0 {
		return 0, ErrChannel
	}
	i := f.reads[ch]
	f.reads[ch]++
	if i >= len(s) {
		i = len(s) - 1
	}
	return s[i], nil
}

// SampledAt returns the Sampled entry for ch.
func (f *FakeReader) SampledAt(ch int) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Sampled[ch]
}

// Reads returns how many times ch was read.
func (f *FakeReader) Reads(ch int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[ch]
}

// Close marks the reader closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
