// Package router owns screen navigation. Exactly one screen is active;
// switching screens tears down every poller and stream through the
// registry, then provisions the target from scratch. Feature state
// lives behind each screen's provision function, scoped to a context
// the router cancels on the next navigation.
package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gestureflow/client/internal/domain/camera"
	"github.com/gestureflow/client/internal/domain/registry"
	"github.com/gestureflow/client/internal/domain/session"
	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
	"github.com/gestureflow/client/internal/shared/types"
)

// Screen is one navigable panel.
type Screen interface {
	ID() types.ScreenID
	RequiresAuth() bool
	// Provision starts the screen's pollers and features. It runs on
	// navigation while the camera is up, and again on every camera
	// inactive-to-active transition. The context is canceled when the
	// screen stops being active.
	Provision(ctx context.Context)
	HandleGesture(sample types.GestureSample)
}

// ChangeListener observes completed navigations.
type ChangeListener func(screen types.ScreenID)

// Options configures a Router.
type Options struct {
	Registry *registry.Registry
	Camera   *camera.Manager
	Session  *session.Guard
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
}

// Router coordinates screens, camera, and session.
type Router struct {
	registry *registry.Registry
	camera   *camera.Manager
	session  *session.Guard
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu        sync.Mutex
	screens   map[types.ScreenID]Screen
	active    types.ScreenID
	ctx       context.Context
	cancel    context.CancelFunc
	listeners []ChangeListener
}

// New creates a router with no screens registered. Call Register for
// each screen, then Start to hook camera and session events.
func New(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Router{
		registry: opts.Registry,
		camera:   opts.Camera,
		session:  opts.Session,
		logger:   opts.Logger.Named("router"),
		metrics:  opts.Metrics,
		screens:  make(map[types.ScreenID]Screen),
	}
}

// Register adds a screen. Screens must be registered before Start.
func (r *Router) Register(s Screen) {
	r.mu.Lock()
	r.screens[s.ID()] = s
	r.mu.Unlock()
}

// Subscribe adds a navigation listener.
func (r *Router) Subscribe(l ChangeListener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Start wires camera transitions and session changes to navigation and
// lands on the initial screen: dashboard when signed in, login
// otherwise.
func (r *Router) Start() error {
	r.camera.OnTransition(func(active bool) {
		if active {
			r.provisionActive()
		} else {
			r.suspendActive()
		}
	})
	r.session.Subscribe(func(authenticated bool, identity string) {
		if authenticated {
			_ = r.Navigate(types.ScreenDashboard)
		} else {
			_ = r.Navigate(types.ScreenLogin)
		}
	})

	initial := types.ScreenLogin
	if _, ok := r.session.CurrentIdentity(); ok {
		initial = types.ScreenDashboard
	}
	return r.Navigate(initial)
}

// Active returns the current screen.
func (r *Router) Active() types.ScreenID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Navigate switches to the target screen. Navigating to the current
// screen reruns the full teardown and provision cycle.
func (r *Router) Navigate(target types.ScreenID) error {
	r.mu.Lock()
	screen, ok := r.screens[target]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("router: unknown screen %q", target)
	}

	if screen.RequiresAuth() {
		if _, authed := r.session.CurrentIdentity(); !authed {
			r.logger.Info("navigation blocked, not authenticated",
				zap.String("target", string(target)))
			if target == types.ScreenLogin {
				return fmt.Errorf("router: login screen misconfigured to require auth")
			}
			return r.Navigate(types.ScreenLogin)
		}
	}

	// Blanket teardown: every poller stops, every stream blanks.
	r.registry.ClearAll()

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.ctx = ctx
	r.cancel = cancel
	r.active = target
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.Unlock()

	r.camera.SetDispatcher(func(sample types.GestureSample) {
		// Only the screen that was active at dispatch time sees the
		// sample.
		if r.Active() == target {
			screen.HandleGesture(sample)
		}
	})

	owner := string(target)
	r.camera.StartStatusPolling(owner)
	if r.camera.Status().Active {
		r.camera.StartGesturePolling(owner)
		screen.Provision(ctx)
	}

	r.logger.Info("navigated", zap.String("screen", string(target)))
	if r.metrics != nil {
		r.metrics.ScreenTransitions.WithLabelValues(string(target)).Inc()
	}
	for _, l := range listeners {
		l(target)
	}
	return nil
}

// provisionActive starts gesture polling and features for the active
// screen after the camera comes up.
func (r *Router) provisionActive() {
	r.mu.Lock()
	screen, ok := r.screens[r.active]
	// The active screen's context is only canceled by the next
	// navigation, so re-provisioning reuses it.
	ctx := r.ctx
	r.mu.Unlock()
	if !ok || ctx == nil {
		return
	}

	r.camera.StartGesturePolling(string(screen.ID()))
	screen.Provision(ctx)
}

// suspendActive stops gesture delivery and feature pollers when the
// camera goes down, keeping only the status poll alive so recovery is
// noticed.
func (r *Router) suspendActive() {
	r.camera.StopGesturePolling()
	r.registry.ClearKind(registry.KindStream)
	r.registry.ClearKind(registry.KindGamePoll)
	r.registry.ClearKind(registry.KindDrawingPoll)
	r.registry.ClearKind(registry.KindPresentationPoll)
}
