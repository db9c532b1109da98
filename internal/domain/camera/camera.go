// Package camera coordinates the backend camera lifecycle with gesture
// delivery. A status poll watches for the camera coming up or going
// down; while it is up, a gesture poll samples the classifier and
// dispatches debounce-limited updates to whichever screen is active.
package camera

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gestureflow/client/internal/backend"
	"github.com/gestureflow/client/internal/domain/gesture"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
	"github.com/gestureflow/client/internal/shared/types"
)

// Vision is the slice of the backend client the manager needs.
type Vision interface {
	CameraStatusNow(ctx context.Context) (*backend.CameraStatus, error)
	StartCamera(ctx context.Context) error
	StopCamera(ctx context.Context) error
	RestartCamera(ctx context.Context) error
	Gesture(ctx context.Context) (*backend.GestureResult, error)
	ProcessFrame(ctx context.Context, frameDataURL string) (*backend.FrameResult, error)
}

// FrameSource supplies locally captured frames for the frame-processing
// mode, encoded as base64 data URLs.
type FrameSource interface {
	NextFrame(ctx context.Context) (string, error)
}

// Dispatcher receives accepted gesture samples.
type Dispatcher func(sample types.GestureSample)

// TransitionHook fires when the camera flips between inactive and
// active. The router uses it to start or stop screen features.
type TransitionHook func(active bool)

// Options configures a Manager.
type Options struct {
	Vision         Vision
	Registry       *registry.Registry
	StatusInterval time.Duration
	PollInterval   time.Duration
	MinUpdateGap   time.Duration
	FrameInterval  time.Duration
	Logger         *logging.Logger
	Metrics        *monitoring.Metrics
}

// Manager owns camera status and gesture polling.
type Manager struct {
	vision   Vision
	registry *registry.Registry
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	statusInterval time.Duration
	pollInterval   time.Duration
	frameInterval  time.Duration
	limiter        *rate.Limiter

	mu           sync.Mutex
	status       types.CameraStatus
	lastSymbol   gesture.Symbol
	notice       *types.Notice
	dispatch     Dispatcher
	onTransition TransitionHook
	gestureOn    bool
	recheck      *time.Timer
}

// New creates a manager with inactive camera state.
func New(opts Options) *Manager {
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 200 * time.Millisecond
	}
	if opts.MinUpdateGap <= 0 {
		opts.MinUpdateGap = 350 * time.Millisecond
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 150 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Manager{
		vision:         opts.Vision,
		registry:       opts.Registry,
		logger:         opts.Logger.Named("camera"),
		metrics:        opts.Metrics,
		statusInterval: opts.StatusInterval,
		pollInterval:   opts.PollInterval,
		frameInterval:  opts.FrameInterval,
		limiter:        rate.NewLimiter(rate.Every(opts.MinUpdateGap), 1),
		lastSymbol:     gesture.Unknown,
	}
}

// SetDispatcher installs the sample receiver. The router points this at
// the active screen's handler.
func (m *Manager) SetDispatcher(d Dispatcher) {
	m.mu.Lock()
	m.dispatch = d
	m.mu.Unlock()
}

// OnTransition installs the camera up/down hook.
func (m *Manager) OnTransition(h TransitionHook) {
	m.mu.Lock()
	m.onTransition = h
	m.mu.Unlock()
}

// Status returns the last observed camera status.
func (m *Manager) Status() types.CameraStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Notice returns the current inline notice, if any.
func (m *Manager) Notice() *types.Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}

// LastGesture returns the most recently dispatched symbol.
func (m *Manager) LastGesture() gesture.Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSymbol
}

// GesturePolling reports whether a gesture poll is live.
func (m *Manager) GesturePolling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gestureOn
}

// StartStatusPolling begins the once-a-second status watch under the
// given owner. Replaces any prior status poll for that owner.
func (m *Manager) StartStatusPolling(owner string) registry.Handle {
	return m.registry.StartPoller(owner, registry.KindStatusPoll, m.statusInterval,
		func(ctx context.Context, seq uint64) error {
			return m.statusTick(ctx, owner, seq)
		})
}

func (m *Manager) statusTick(ctx context.Context, owner string, seq uint64) error {
	st, err := m.vision.CameraStatusNow(ctx)
	if m.registry.Latest(owner, registry.KindStatusPoll) != seq {
		if m.metrics != nil {
			m.metrics.PollStale.WithLabelValues(owner, string(registry.KindStatusPoll)).Inc()
		}
		return nil
	}
	if err != nil {
		m.applyStatus(types.CameraStatus{Error: "failed to check camera status"})
		return err
	}
	if st.Initializing {
		m.scheduleRecheck(owner)
	}
	m.applyStatus(*st)
	return nil
}

// scheduleRecheck runs one extra status fetch a second from now, so an
// initializing camera is noticed without waiting a full tick.
func (m *Manager) scheduleRecheck(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recheck != nil {
		return
	}
	m.recheck = time.AfterFunc(m.statusInterval, func() {
		m.mu.Lock()
		m.recheck = nil
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.statusInterval)
		defer cancel()
		st, err := m.vision.CameraStatusNow(ctx)
		if err != nil {
			return
		}
		m.applyStatus(*st)
	})
}

func (m *Manager) applyStatus(st types.CameraStatus) {
	m.mu.Lock()
	wasActive := m.status.Active
	m.status = st
	if st.Error != "" {
		m.status.Active = false
		m.notice = &types.Notice{Level: "error", Message: st.Error}
	}
	nowActive := m.status.Active
	hook := m.onTransition
	m.mu.Unlock()

	if wasActive == nowActive {
		return
	}
	transition := "stopped"
	if nowActive {
		transition = "started"
	}
	m.logger.Info("camera transition", zap.String("transition", transition))
	if m.metrics != nil {
		m.metrics.CameraTransitions.WithLabelValues(transition).Inc()
	}
	if hook != nil {
		hook(nowActive)
	}
}

// StartGesturePolling begins sampling the classifier for the given
// screen. Transport polls run every 200 ms; dispatched updates are
// limited to one per minimum gap. Idempotent per screen.
func (m *Manager) StartGesturePolling(owner string) registry.Handle {
	m.mu.Lock()
	m.gestureOn = true
	m.mu.Unlock()
	return m.registry.StartPoller(owner, registry.KindGesturePoll, m.pollInterval,
		func(ctx context.Context, seq uint64) error {
			return m.gestureTick(ctx, owner, seq)
		})
}

// StopGesturePolling halts gesture delivery across all screens. Safe to
// call when nothing is polling.
func (m *Manager) StopGesturePolling() {
	m.registry.ClearKind(registry.KindGesturePoll)
	m.mu.Lock()
	m.gestureOn = false
	m.lastSymbol = gesture.Unknown
	m.mu.Unlock()
}

func (m *Manager) gestureTick(ctx context.Context, owner string, seq uint64) error {
	res, err := m.vision.Gesture(ctx)
	if m.registry.Latest(owner, registry.KindGesturePoll) != seq {
		if m.metrics != nil {
			m.metrics.PollStale.WithLabelValues(owner, string(registry.KindGesturePoll)).Inc()
		}
		return nil
	}

	symbol := gesture.Unknown
	if err == nil {
		symbol = gesture.Parse(res.Gesture)
	}
	if m.metrics != nil {
		m.metrics.GestureSamples.WithLabelValues(string(symbol)).Inc()
	}

	if !m.limiter.Allow() {
		if m.metrics != nil {
			m.metrics.GestureSuppressed.Inc()
		}
		return err
	}

	m.mu.Lock()
	m.lastSymbol = symbol
	dispatch := m.dispatch
	m.mu.Unlock()

	if dispatch != nil {
		dispatch(types.GestureSample{Symbol: string(symbol), At: time.Now()})
		if m.metrics != nil {
			m.metrics.GestureDispatched.Inc()
		}
	}
	return err
}

// StartCamera asks the backend to open the capture device. A failure
// becomes an inline notice, never a hard error to the caller's screen.
func (m *Manager) StartCamera(ctx context.Context) error {
	if err := m.vision.StartCamera(ctx); err != nil {
		m.setNotice("error", err.Error())
		return err
	}
	m.clearNotice()
	m.mu.Lock()
	m.status.Requested = true
	m.mu.Unlock()
	return nil
}

// StopCamera asks the backend to release the capture device.
func (m *Manager) StopCamera(ctx context.Context) error {
	if err := m.vision.StopCamera(ctx); err != nil {
		m.setNotice("warn", err.Error())
		return err
	}
	m.mu.Lock()
	m.status.Requested = false
	m.mu.Unlock()
	return nil
}

// RestartCamera power-cycles the capture device. Used when the feed
// freezes or the classifier stops responding; the next status tick
// picks up the recovered state.
func (m *Manager) RestartCamera(ctx context.Context) error {
	if err := m.vision.RestartCamera(ctx); err != nil {
		m.setNotice("error", err.Error())
		return err
	}
	m.clearNotice()
	m.mu.Lock()
	m.status.Requested = true
	m.mu.Unlock()
	return nil
}

// StartFrameProcessing runs the local-capture mode: frames from the
// source are posted for classification at the frame interval and only
// symbol changes are forwarded. A source failure is treated as a camera
// permission problem and surfaces as a persistent notice.
func (m *Manager) StartFrameProcessing(owner string, source FrameSource) registry.Handle {
	var last gesture.Symbol = gesture.Unknown
	var lastMu sync.Mutex

	return m.registry.StartPoller(owner, registry.KindGesturePoll, m.frameInterval,
		func(ctx context.Context, seq uint64) error {
			frame, err := source.NextFrame(ctx)
			if err != nil {
				m.setNotice("error", "Camera access denied. Enable camera permissions to continue")
				m.mu.Lock()
				m.status.Active = false
				m.mu.Unlock()
				return err
			}
			res, err := m.vision.ProcessFrame(ctx, frame)
			if err != nil {
				return err
			}
			symbol := gesture.Parse(res.Gesture)

			lastMu.Lock()
			changed := symbol != last
			last = symbol
			lastMu.Unlock()
			if !changed {
				return nil
			}

			m.mu.Lock()
			m.lastSymbol = symbol
			dispatch := m.dispatch
			m.mu.Unlock()
			if dispatch != nil && symbol.Known() {
				dispatch(types.GestureSample{Symbol: string(symbol), At: time.Now()})
			}
			return nil
		})
}

func (m *Manager) setNotice(level, message string) {
	m.mu.Lock()
	m.notice = &types.Notice{Level: level, Message: message}
	m.mu.Unlock()
}

func (m *Manager) clearNotice() {
	m.mu.Lock()
	m.notice = nil
	m.mu.Unlock()
}
