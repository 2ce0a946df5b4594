package fetch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "fetching", Fetching.String())
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestBegin_Guard(t *testing.T) {
	tests := []struct {
		name  string
		ready bool
		key   string
		setup func(*Tracker[string])
		want  bool
	}{
		{name: "ready with key", ready: true, key: "/sub/a", want: true},
		{name: "not ready", ready: false, key: "/sub/a", want: false},
		{name: "empty key", ready: true, key: "", want: false},
		{
			name: "already fetching", ready: true, key: "/sub/a",
			setup: func(tr *Tracker[string]) { tr.Begin(true) },
			want:  false,
		},
		{
			name: "already done for key", ready: true, key: "/sub/a",
			setup: func(tr *Tracker[string]) {
				ticket, _, _ := tr.Begin(true)
				tr.Resolve(ticket, "payload", nil)
			},
			want: false,
		},
		{
			name: "errored for key", ready: true, key: "/sub/a",
			setup: func(tr *Tracker[string]) {
				ticket, _, _ := tr.Begin(true)
				tr.Resolve(ticket, "", errors.New("boom"))
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New[string]("detail")
			tr.SetKey(tt.key)
			if tt.setup != nil {
				tt.setup(tr)
			}
			_, ctx, ok := tr.Begin(tt.ready)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.NotNil(t, ctx)
				assert.Equal(t, Fetching, tr.State())
			}
		})
	}
}

func TestResolve_Success(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k1")

	ticket, _, ok := tr.Begin(true)
	require.True(t, ok)
	assert.True(t, tr.Loading())

	assert.True(t, tr.Resolve(ticket, "payload", nil))
	assert.Equal(t, Done, tr.State())
	assert.Equal(t, "payload", tr.Data())
	assert.NoError(t, tr.Err())
	assert.False(t, tr.ShowError())
}

func TestResolve_Failure(t *testing.T) {
	tr := New[[]int]("nodes")
	tr.SetKey("k1")
	ticket, _, _ := tr.Begin(true)

	fetchErr := errors.New("500")
	assert.True(t, tr.Resolve(ticket, []int{1}, fetchErr))
	assert.Equal(t, Error, tr.State())
	assert.Nil(t, tr.Data())
	assert.Equal(t, fetchErr, tr.Err())
	assert.True(t, tr.ShowError())
}

func TestDismiss_DoesNotRetry(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k1")
	ticket, _, _ := tr.Begin(true)
	tr.Resolve(ticket, "", errors.New("boom"))

	tr.Dismiss()

	assert.False(t, tr.ShowError())
	assert.Equal(t, Error, tr.State())
	_, _, ok := tr.Begin(true)
	assert.False(t, ok, "dismissing must not re-arm the fetch")
}

func TestSetKey_ResetsState(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k1")
	ticket, _, _ := tr.Begin(true)
	tr.Resolve(ticket, "k1 payload", nil)

	assert.False(t, tr.SetKey("k1"), "same key is a no-op")
	assert.Equal(t, "k1 payload", tr.Data())

	assert.True(t, tr.SetKey("k2"))
	assert.Equal(t, Idle, tr.State())
	assert.Equal(t, "", tr.Data(), "old payload cleared before new one arrives")

	_, _, ok := tr.Begin(true)
	assert.True(t, ok)
}

func TestStaleResultIgnored(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k1")
	oldTicket, oldCtx, _ := tr.Begin(true)

	tr.SetKey("k2")
	assert.ErrorIs(t, oldCtx.Err(), context.Canceled, "key change cancels in-flight request")

	newTicket, _, ok := tr.Begin(true)
	require.True(t, ok)

	assert.False(t, tr.Resolve(oldTicket, "k1 payload", nil))
	assert.Equal(t, Fetching, tr.State())
	assert.Equal(t, "", tr.Data())

	assert.True(t, tr.Resolve(newTicket, "k2 payload", nil))
	assert.Equal(t, "k2 payload", tr.Data())
}

func TestStaleResult_SameKeyAfterRefresh(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k1")
	first, _, _ := tr.Begin(true)

	tr.Refresh()
	second, _, _ := tr.Begin(true)

	assert.False(t, tr.Resolve(first, "old", nil))
	assert.True(t, tr.Resolve(second, "new", nil))
	assert.Equal(t, "new", tr.Data())
}

func TestRefresh(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k1")
	ticket, _, _ := tr.Begin(true)
	tr.Resolve(ticket, "payload", nil)

	tr.Refresh()

	assert.Equal(t, Idle, tr.State())
	assert.Equal(t, "", tr.Data())
	assert.Equal(t, "k1", tr.Key())
	_, _, ok := tr.Begin(true)
	assert.True(t, ok)
}

func TestReset(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k1")
	ticket, _, _ := tr.Begin(true)
	tr.Resolve(ticket, "", errors.New("x"))

	tr.Reset()

	assert.Equal(t, "", tr.Key())
	assert.Equal(t, Idle, tr.State())
	assert.NoError(t, tr.Err())
	_, _, ok := tr.Begin(true)
	assert.False(t, ok, "no key, no fetch")
}

func TestResolve_WrongTracker(t *testing.T) {
	a := New[string]("a")
	b := New[string]("b")
	a.SetKey("k")
	b.SetKey("k")
	ticket, _, _ := a.Begin(true)
	b.Begin(true)

	assert.False(t, b.Resolve(ticket, "x", nil))
	assert.False(t, b.Owns(ResultMsg[string]{Ticket: ticket}))
	assert.True(t, a.Owns(ResultMsg[string]{Ticket: ticket}))
}

func TestStart_RunsFetchOnce(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("/sub/x/rg/y/c1")

	var calls int32
	fn := func(ctx context.Context, key string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "payload for " + key, nil
	}

	cmd := tr.Start(true, fn)
	require.NotNil(t, cmd)
	assert.Nil(t, tr.Start(true, fn), "second start while in flight is refused")

	msg, ok := cmd().(ResultMsg[string])
	require.True(t, ok)
	assert.True(t, tr.Apply(msg))
	assert.Equal(t, "payload for /sub/x/rg/y/c1", tr.Data())
	assert.Nil(t, tr.Start(true, fn), "satisfied key is not re-fetched")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStart_NotReady(t *testing.T) {
	tr := New[string]("detail")
	tr.SetKey("k")
	assert.Nil(t, tr.Start(false, func(context.Context, string) (string, error) { return "", nil }))
	assert.Equal(t, Idle, tr.State())
}

func TestWithTimeout(t *testing.T) {
	tr := New[string]("slow").WithTimeout(10 * time.Millisecond)
	tr.SetKey("k")

	cmd := tr.Start(true, func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	msg := cmd().(ResultMsg[string])

	assert.True(t, tr.Apply(msg))
	assert.Equal(t, Error, tr.State())
	assert.ErrorIs(t, tr.Err(), context.DeadlineExceeded)
}

func TestCancel(t *testing.T) {
	tr := New[string]("x")
	tr.SetKey("k")
	_, ctx, _ := tr.Begin(true)

	tr.Cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, Fetching, tr.State())
}
