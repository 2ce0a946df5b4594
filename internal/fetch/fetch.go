// Package fetch tracks the lifecycle of one asynchronous data fetch for a
// view: Idle, Fetching, Done or Error, scoped to an identity key.
//
// A Tracker never performs I/O itself. Start hands back a tea.Cmd that runs
// the fetch function off the Update loop and reports a ResultMsg, which the
// owning model feeds back through Resolve. Every mutation happens in Update,
// so no locking is needed.
//
// Guard: a fetch starts only when the caller says the session is ready, the
// key is non-empty, and the tracker is Idle. Changing the key, refreshing or
// resetting returns the tracker to Idle, cancels the in-flight request, and
// bumps a generation counter so late results for the old request are dropped.
package fetch

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// State is the lifecycle position of a Tracker.
type State int

const (
	Idle State = iota
	Fetching
	Done
	Error
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Done:
		return "done"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Func fetches the payload for key.
type Func[T any] func(ctx context.Context, key string) (T, error)

// Ticket identifies one issued request.
type Ticket struct {
	Name string
	Key  string
	Gen  uint64
}

// ResultMsg carries a finished fetch back into the Update loop.
type ResultMsg[T any] struct {
	Ticket Ticket
	Data   T
	Err    error
}

// Tracker holds the fetch state for one view.
type Tracker[T any] struct {
	name    string
	timeout time.Duration

	key   string
	state State
	data  T
	err   error

	gen    uint64
	cancel context.CancelFunc
}

// New creates an idle tracker. name tags its ResultMsgs so a model with
// several trackers of the same payload type can route results.
func New[T any](name string) *Tracker[T] {
	return &Tracker[T]{name: name}
}

// WithTimeout bounds each request. Zero means no timeout.
func (t *Tracker[T]) WithTimeout(d time.Duration) *Tracker[T] {
	t.timeout = d
	return t
}

func (t *Tracker[T]) Name() string  { return t.name }
func (t *Tracker[T]) Key() string   { return t.key }
func (t *Tracker[T]) State() State  { return t.state }
func (t *Tracker[T]) Data() T       { return t.data }
func (t *Tracker[T]) Err() error    { return t.err }
func (t *Tracker[T]) Loading() bool { return t.state == Fetching }

// ShowError reports whether an undismissed error banner should be shown.
func (t *Tracker[T]) ShowError() bool {
	return t.state == Error && t.err != nil
}

// SetKey points the tracker at a new identity. A different key clears the
// payload and error and returns the tracker to Idle; the same key is a no-op.
// Returns true when the key changed.
func (t *Tracker[T]) SetKey(key string) bool {
	if key == t.key {
		return false
	}
	t.key = key
	t.clear()
	return true
}

// Begin applies the guard and, when it passes, moves the tracker to Fetching.
// The returned context is cancelled when the request becomes stale.
func (t *Tracker[T]) Begin(ready bool) (Ticket, context.Context, bool) {
	if !ready || t.key == "" || t.state != Idle {
		return Ticket{}, nil, false
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), t.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	t.gen++
	t.cancel = cancel
	t.state = Fetching
	return Ticket{Name: t.name, Key: t.key, Gen: t.gen}, ctx, true
}

// Start is Begin plus a command that runs fn. Returns nil when the guard fails.
func (t *Tracker[T]) Start(ready bool, fn Func[T]) tea.Cmd {
	ticket, ctx, ok := t.Begin(ready)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		data, err := fn(ctx, ticket.Key)
		return ResultMsg[T]{Ticket: ticket, Data: data, Err: err}
	}
}

// Owns reports whether msg was issued by this tracker, stale or not.
func (t *Tracker[T]) Owns(msg ResultMsg[T]) bool {
	return msg.Ticket.Name == t.name
}

// Resolve records the outcome of a request. Results for a stale ticket are
// ignored and Resolve returns false.
func (t *Tracker[T]) Resolve(ticket Ticket, data T, err error) bool {
	if ticket.Name != t.name || ticket.Gen != t.gen || ticket.Key != t.key || t.state != Fetching {
		return false
	}

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}

	if err != nil {
		var zero T
		t.data = zero
		t.err = err
		t.state = Error
		return true
	}

	t.data = data
	t.err = nil
	t.state = Done
	return true
}

// Apply is Resolve for a ResultMsg.
func (t *Tracker[T]) Apply(msg ResultMsg[T]) bool {
	return t.Resolve(msg.Ticket, msg.Data, msg.Err)
}

// Refresh clears the payload and returns to Idle for the current key so the
// next Start re-fetches.
func (t *Tracker[T]) Refresh() {
	t.clear()
}

// Dismiss hides the error banner. The tracker stays in Error so nothing is
// re-fetched until Refresh or a key change.
func (t *Tracker[T]) Dismiss() {
	t.err = nil
}

// Reset clears the key as well as all state.
func (t *Tracker[T]) Reset() {
	t.key = ""
	t.clear()
}

// Cancel aborts the in-flight request, if any, without changing state.
// Used on program exit.
func (t *Tracker[T]) Cancel() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker[T]) clear() {
	t.Cancel()
	t.gen++
	var zero T
	t.data = zero
	t.err = nil
	t.state = Idle
}
