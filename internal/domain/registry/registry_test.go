package registry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPollerTicks(t *testing.T) {
	r := New(nil, nil)
	defer r.ClearAll()

	var ticks atomic.Int64
	r.StartPoller("games", KindGamePoll, 5*time.Millisecond, func(ctx context.Context, seq uint64) error {
		ticks.Add(1)
		return nil
	})

	waitFor(t, func() bool { return ticks.Load() >= 3 }, "poller never ticked")
}

func TestDuplicateRegistrationKeepsOneHandle(t *testing.T) {
	r := New(nil, nil)
	defer r.ClearAll()

	var first, second atomic.Int64
	h1 := r.StartPoller("games", KindGamePoll, 5*time.Millisecond, func(ctx context.Context, seq uint64) error {
		first.Add(1)
		return nil
	})
	waitFor(t, func() bool { return first.Load() >= 1 }, "first poller never ticked")

	h2 := r.StartPoller("games", KindGamePoll, 5*time.Millisecond, func(ctx context.Context, seq uint64) error {
		second.Add(1)
		return nil
	})

	assert.False(t, r.Live(h1), "superseded handle must be dead")
	assert.True(t, r.Live(h2))
	require.Len(t, r.Handles(), 1)

	stopped := first.Load()
	waitFor(t, func() bool { return second.Load() >= 2 }, "replacement never ticked")
	assert.Equal(t, stopped, first.Load(), "old poller ticked after replacement")
}

func TestClearStopsTicksBeforeReturning(t *testing.T) {
	r := New(nil, nil)

	var ticks atomic.Int64
	h := r.StartPoller("whiteboard", KindDrawingPoll, 5*time.Millisecond, func(ctx context.Context, seq uint64) error {
		ticks.Add(1)
		return nil
	})
	waitFor(t, func() bool { return ticks.Load() >= 1 }, "poller never ticked")

	r.Clear(h)
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "tick ran after Clear returned")
	assert.False(t, r.Live(h))

	r.Clear(h) // idempotent
}

func TestClearAllEmptiesEveryOwner(t *testing.T) {
	r := New(nil, nil)

	noop := func(ctx context.Context, seq uint64) error { return nil }
	r.StartPoller("games", KindGamePoll, time.Millisecond, noop)
	r.StartPoller("games", KindGesturePoll, time.Millisecond, noop)
	r.StartPoller("whiteboard", KindDrawingPoll, time.Millisecond, noop)
	require.Len(t, r.Handles(), 3)

	r.ClearAll()
	assert.Empty(t, r.Handles())
}

func TestClearOwnerLeavesOthers(t *testing.T) {
	r := New(nil, nil)
	defer r.ClearAll()

	noop := func(ctx context.Context, seq uint64) error { return nil }
	r.StartPoller("games", KindGamePoll, time.Millisecond, noop)
	kept := r.StartPoller("dashboard", KindStatusPoll, time.Millisecond, noop)

	r.ClearOwner("games")
	handles := r.Handles()
	require.Len(t, handles, 1)
	assert.Equal(t, kept.ID, handles[0].ID)
}

type fakeStream struct {
	blanked atomic.Int32
}

func (f *fakeStream) Blank() error {
	f.blanked.Add(1)
	return nil
}

func TestClearingStreamBlanksIt(t *testing.T) {
	r := New(nil, nil)

	s := &fakeStream{}
	h := r.BindStream("games", KindStream, s)
	assert.True(t, r.Live(h))

	r.Clear(h)
	assert.Equal(t, int32(1), s.blanked.Load())

	r.Clear(h)
	assert.Equal(t, int32(1), s.blanked.Load(), "double clear must not double blank")
}

func TestBindStreamReplacesAndBlanksPrevious(t *testing.T) {
	r := New(nil, nil)
	defer r.ClearAll()

	old := &fakeStream{}
	r.BindStream("games", KindStream, old)
	next := &fakeStream{}
	r.BindStream("games", KindStream, next)

	assert.Equal(t, int32(1), old.blanked.Load(), "replaced stream must be blanked")
	assert.Equal(t, int32(0), next.blanked.Load())
	require.Len(t, r.Handles(), 1)
}

func TestSequenceNumbersAreMonotonic(t *testing.T) {
	r := New(nil, nil)
	defer r.ClearAll()

	seqs := make(chan uint64, 16)
	r.StartPoller("camera", KindGesturePoll, 2*time.Millisecond, func(ctx context.Context, seq uint64) error {
		select {
		case seqs <- seq:
		default:
		}
		return nil
	})

	var prev uint64
	for i := 0; i < 5; i++ {
		select {
		case s := <-seqs:
			assert.Greater(t, s, prev)
			assert.GreaterOrEqual(t, r.Latest("camera", KindGesturePoll), s)
			prev = s
		case <-time.After(2 * time.Second):
			t.Fatal("no sequence observed")
		}
	}
}

func TestPanickingTickDoesNotKillPoller(t *testing.T) {
	r := New(nil, nil)
	defer r.ClearAll()

	var ticks atomic.Int64
	r.StartPoller("games", KindGamePoll, 2*time.Millisecond, func(ctx context.Context, seq uint64) error {
		n := ticks.Add(1)
		if n == 1 {
			panic("boom")
		}
		return nil
	})

	waitFor(t, func() bool { return ticks.Load() >= 3 }, "poller died after panic")
}
