package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerState is where a request spinner is in its life.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

// requestFrames reuses the dashboard's frame set so the CLI and TUI spin
// the same way.
var requestFrames = spinner.Dot

// Spinner is a one-line "waiting on the portal" indicator for CLI commands.
// The elapsed time is shown next to the label while the request runs and
// on the outcome line afterwards. A nil writer makes it silent.
type Spinner struct {
	out   io.Writer
	label string

	mu      sync.Mutex
	state   SpinnerState
	began   time.Time
	tick    int
	width   int
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewSpinner returns a pending spinner for label.
func NewSpinner(label string, out io.Writer) *Spinner {
	return &Spinner{label: label, out: out}
}

// Label is the text shown next to the frame.
func (s *Spinner) Label() string { return s.label }

// State returns the current state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start marks the request in flight and begins drawing. A second call
// while running does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.state = SpinnerInProgress
	s.began = time.Now()
	s.drawLocked()
	go s.run(ctx, s.stopped)
}

// Stop ends the animation and leaves the state alone.
func (s *Spinner) Stop() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Finish stops the spinner, replaces its line with the outcome and hands
// err back so callers can write `return sp.Finish(err)`.
func (s *Spinner) Finish(err error) error {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SpinnerSuccess
	mark, style := SymbolComplete, SuccessStyle()
	if err != nil {
		s.state = SpinnerFailed
		mark, style = SymbolFail, ErrorStyle()
	}
	if s.out == nil {
		return err
	}
	s.eraseLocked()
	fmt.Fprintf(s.out, "%s %s %s\n", style.Render(mark), s.label, MutedStyle().Render(formatDuration(time.Since(s.began))))
	return err
}

func (s *Spinner) run(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	t := time.NewTicker(requestFrames.FPS)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.mu.Lock()
			s.tick++
			s.drawLocked()
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) drawLocked() {
	if s.out == nil {
		return
	}
	frame := requestFrames.Frames[s.tick%len(requestFrames.Frames)]
	color := GradientColors[(s.tick/2)%len(GradientColors)]
	line := fmt.Sprintf("%s %s %s",
		lipgloss.NewStyle().Foreground(color).Render(frame),
		s.label,
		MutedStyle().Render(formatDuration(time.Since(s.began))),
	)
	s.eraseLocked()
	fmt.Fprint(s.out, line)
	s.width = lipgloss.Width(line)
}

func (s *Spinner) eraseLocked() {
	if s.width == 0 {
		return
	}
	fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.width)+"\r")
	s.width = 0
}

// formatDuration keeps two decimals under a tenth of a second, one above.
func formatDuration(d time.Duration) string {
	if secs := d.Seconds(); secs >= 0.1 {
		return fmt.Sprintf("%.1fs", secs)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
