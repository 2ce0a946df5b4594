package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer guards a builder against the animation goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Fetching clusters", nil)
	assert.Equal(t, "Fetching clusters", s.Label())
	assert.Equal(t, SpinnerPending, s.State())
}

func TestSpinnerFinish(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		state  SpinnerState
		symbol string
	}{
		{name: "success", state: SpinnerSuccess, symbol: SymbolComplete},
		{name: "failure", err: errors.New("boom"), state: SpinnerFailed, symbol: SymbolFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf syncBuffer
			s := NewSpinner("Fetching", &buf)
			s.Start()
			time.Sleep(20 * time.Millisecond)

			assert.Equal(t, tt.err, s.Finish(tt.err))
			assert.Equal(t, tt.state, s.State())
			assert.Contains(t, buf.String(), tt.symbol)
			assert.True(t, strings.HasSuffix(buf.String(), "\n"))
		})
	}
}

func TestSpinnerSilentWithoutWriter(t *testing.T) {
	s := NewSpinner("Fetching", nil)
	s.Start()
	s.Start()
	assert.NoError(t, s.Finish(nil))
	assert.Equal(t, SpinnerSuccess, s.State())
}

func TestSpinnerDoubleStop(t *testing.T) {
	s := NewSpinner("Test", nil)
	s.Start()
	s.Stop()
	s.Stop()
	assert.Equal(t, SpinnerInProgress, s.State())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{0, "0.00s"},
		{50 * time.Millisecond, "0.05s"},
		{100 * time.Millisecond, "0.1s"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.duration))
		})
	}
}
