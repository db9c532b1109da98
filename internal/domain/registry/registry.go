// Package registry owns every polling goroutine and media stream handle
// in the client. Screens never hold timers themselves; they register
// pollers here so navigation can tear everything down in one call and
// nothing leaks across screen changes.
package registry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
	"github.com/gestureflow/client/internal/shared/id"
)

// Kind classifies a registered resource.
type Kind string

const (
	KindGesturePoll      Kind = "gesture_poll"
	KindStatusPoll       Kind = "status_poll"
	KindDrawingPoll      Kind = "drawing_poll"
	KindGamePoll         Kind = "game_poll"
	KindPresentationPoll Kind = "presentation_poll"
	KindStream           Kind = "stream"
)

// Handle identifies one live resource.
type Handle struct {
	ID    id.HandleID
	Owner string
	Kind  Kind
}

// TickFunc runs on each poll interval. seq is the monotonic sequence
// number for this (owner, kind); handlers compare it against Latest to
// discard responses that arrive after a newer tick was dispatched.
type TickFunc func(ctx context.Context, seq uint64) error

// Stream is anything the registry can blank on teardown.
type Stream interface {
	Blank() error
}

type key struct {
	owner string
	kind  Kind
}

type entry struct {
	handle Handle
	cancel context.CancelFunc
	done   chan struct{}
	stream Stream
}

// Registry tracks live pollers and streams. The zero value is not
// usable; construct with New.
type Registry struct {
	mu      sync.Mutex
	entries map[key]*entry
	seqs    map[key]uint64

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates an empty registry.
func New(logger *logging.Logger, metrics *monitoring.Metrics) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		entries: make(map[key]*entry),
		seqs:    make(map[key]uint64),
		logger:  logger.Named("registry"),
		metrics: metrics,
	}
}

// StartPoller spawns a ticker goroutine running tick every interval.
// At most one poller lives per (owner, kind); a duplicate registration
// stops the previous one first. The first tick fires after one interval.
func (r *Registry) StartPoller(owner string, kind Kind, interval time.Duration, tick TickFunc) Handle {
	k := key{owner, kind}
	r.stopKey(k)

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		handle: Handle{ID: id.NewHandleID(), Owner: owner, Kind: kind},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.entries[k] = e
	r.mu.Unlock()
	r.gauge(kind, 1)

	go r.run(ctx, e, k, interval, tick)
	return e.handle
}

// BindStream registers a media stream under (owner, kind). Clearing the
// handle blanks the stream, it does not merely forget it.
func (r *Registry) BindStream(owner string, kind Kind, stream Stream) Handle {
	k := key{owner, kind}
	r.stopKey(k)

	e := &entry{
		handle: Handle{ID: id.NewHandleID(), Owner: owner, Kind: kind},
		stream: stream,
	}

	r.mu.Lock()
	r.entries[k] = e
	r.mu.Unlock()
	r.gauge(kind, 1)

	return e.handle
}

// Latest returns the most recently dispatched sequence number for
// (owner, kind). Zero means no tick has been dispatched.
func (r *Registry) Latest(owner string, kind Kind) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seqs[key{owner, kind}]
}

// Live reports whether the handle still owns its (owner, kind) slot.
func (r *Registry) Live(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key{h.Owner, h.Kind}]
	return ok && e.handle.ID == h.ID
}

// Handles returns all live handles, for diagnostics and tests.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.handle)
	}
	return out
}

// Clear stops the resource behind the handle. Idempotent; clearing a
// superseded or already-cleared handle is a no-op. Does not return until
// the poller goroutine has exited.
func (r *Registry) Clear(h Handle) {
	k := key{h.Owner, h.Kind}
	r.mu.Lock()
	e, ok := r.entries[k]
	if !ok || e.handle.ID != h.ID {
		r.mu.Unlock()
		return
	}
	delete(r.entries, k)
	r.mu.Unlock()
	r.stop(e, k)
}

// ClearOwner stops every resource registered under owner.
func (r *Registry) ClearOwner(owner string) {
	r.clearMatching(func(k key) bool { return k.owner == owner })
}

// ClearKind stops every resource of one kind across all owners.
func (r *Registry) ClearKind(kind Kind) {
	r.clearMatching(func(k key) bool { return k.kind == kind })
}

// ClearAll stops everything. This is the navigation-time teardown.
func (r *Registry) ClearAll() {
	r.clearMatching(func(key) bool { return true })
}

func (r *Registry) clearMatching(match func(key) bool) {
	r.mu.Lock()
	var victims []*entry
	var keys []key
	for k, e := range r.entries {
		if match(k) {
			victims = append(victims, e)
			keys = append(keys, k)
			delete(r.entries, k)
		}
	}
	r.mu.Unlock()
	for i, e := range victims {
		r.stop(e, keys[i])
	}
}

// stopKey detaches and stops whatever currently occupies k.
func (r *Registry) stopKey(k key) {
	r.mu.Lock()
	e, ok := r.entries[k]
	if ok {
		delete(r.entries, k)
	}
	r.mu.Unlock()
	if ok {
		r.stop(e, k)
	}
}

// stop runs outside r.mu so an in-flight tick calling Latest cannot
// deadlock against the teardown.
func (r *Registry) stop(e *entry, k key) {
	if e.cancel != nil {
		e.cancel()
	}
	if e.done != nil {
		<-e.done
	}
	if e.stream != nil {
		if err := e.stream.Blank(); err != nil {
			r.logger.Debug("blank stream",
				zap.String("owner", k.owner),
				zap.String("kind", string(k.kind)),
				zap.Error(err))
		}
	}
	r.gauge(k.kind, -1)
}

func (r *Registry) run(ctx context.Context, e *entry, k key, interval time.Duration, tick TickFunc) {
	defer close(e.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.dispatch(ctx, k, tick)
		}
	}
}

func (r *Registry) dispatch(ctx context.Context, k key, tick TickFunc) {
	r.mu.Lock()
	r.seqs[k]++
	seq := r.seqs[k]
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.PollTicks.WithLabelValues(k.owner, string(k.kind)).Inc()
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tick panicked",
				zap.String("owner", k.owner),
				zap.String("kind", string(k.kind)),
				zap.Any("panic", rec))
			if r.metrics != nil {
				r.metrics.PollErrors.WithLabelValues(k.owner, string(k.kind)).Inc()
			}
		}
	}()

	if err := tick(ctx, seq); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Debug("tick failed",
			zap.String("owner", k.owner),
			zap.String("kind", string(k.kind)),
			zap.Error(err))
		if r.metrics != nil {
			r.metrics.PollErrors.WithLabelValues(k.owner, string(k.kind)).Inc()
		}
	}
}

func (r *Registry) gauge(kind Kind, delta float64) {
	if r.metrics != nil {
		r.metrics.HandlesLive.WithLabelValues(string(kind)).Add(delta)
	}
}
