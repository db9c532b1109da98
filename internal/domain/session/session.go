// Package session owns the authenticated session: who is signed in,
// their bearer token, and the periodic token refresh that keeps
// long-lived sessions from expiring mid-use.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gestureflow/client/internal/infrastructure/logging"
	"github.com/gestureflow/client/internal/infrastructure/monitoring"
)

// ErrNotAuthenticated is returned by operations that need a session
// when none exists.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Session is the current signed-in state.
type Session struct {
	Identity  string
	Token     string
	StartedAt time.Time
}

// Authenticator performs the credential exchange. The backend client
// implements it against the auth endpoints.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (identity, token string, err error)
	Register(ctx context.Context, email, password string) (identity, token string, err error)
	Refresh(ctx context.Context, token string) (newToken string, err error)
	Logout(ctx context.Context) error
}

// Listener is notified on sign-in and sign-out. Called outside the
// guard's lock.
type Listener func(authenticated bool, identity string)

// Guard owns the session and its refresh loop.
type Guard struct {
	auth            Authenticator
	logger          *logging.Logger
	metrics         *monitoring.Metrics
	refreshInterval time.Duration

	mu        sync.Mutex
	session   *Session
	listeners []Listener
	stopRef   context.CancelFunc
}

// Options configures a Guard.
type Options struct {
	Authenticator   Authenticator
	RefreshInterval time.Duration
	Logger          *logging.Logger
	Metrics         *monitoring.Metrics
}

// New creates a signed-out guard.
func New(opts Options) *Guard {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 50 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Guard{
		auth:            opts.Authenticator,
		logger:          opts.Logger.Named("session"),
		metrics:         opts.Metrics,
		refreshInterval: opts.RefreshInterval,
	}
}

// Subscribe registers a listener for auth transitions.
func (g *Guard) Subscribe(l Listener) {
	g.mu.Lock()
	g.listeners = append(g.listeners, l)
	g.mu.Unlock()
}

// SignIn authenticates and starts the session clock and refresh loop.
// Errors come back already mapped to user-facing messages.
func (g *Guard) SignIn(ctx context.Context, email, password string) error {
	identity, token, err := g.auth.Login(ctx, email, password)
	if err != nil {
		return MapAuthError(err)
	}
	g.install(identity, token)
	g.logger.Info("signed in", zap.String("identity", identity))
	return nil
}

// SignUp creates an account and signs in. Password length is validated
// here so obviously short passwords never reach the wire.
func (g *Guard) SignUp(ctx context.Context, email, password string) error {
	if len(password) < 6 {
		return errors.New("Password must be at least 6 characters")
	}
	identity, token, err := g.auth.Register(ctx, email, password)
	if err != nil {
		return MapAuthError(err)
	}
	g.install(identity, token)
	g.logger.Info("registered", zap.String("identity", identity))
	return nil
}

// SignOut ends the session and stops the refresh loop. Safe to call
// when already signed out.
func (g *Guard) SignOut(ctx context.Context) {
	g.mu.Lock()
	hadSession := g.session != nil
	g.session = nil
	if g.stopRef != nil {
		g.stopRef()
		g.stopRef = nil
	}
	listeners := append([]Listener(nil), g.listeners...)
	g.mu.Unlock()

	if !hadSession {
		return
	}
	if g.auth != nil {
		if err := g.auth.Logout(ctx); err != nil {
			g.logger.Warn("logout call failed", zap.Error(err))
		}
	}
	g.logger.Info("signed out")
	for _, l := range listeners {
		l(false, "")
	}
}

// CurrentIdentity returns the signed-in identity.
func (g *Guard) CurrentIdentity() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return "", false
	}
	return g.session.Identity, true
}

// CurrentToken returns the live bearer token.
func (g *Guard) CurrentToken() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return "", false
	}
	return g.session.Token, true
}

// Token implements the backend client's token source. A signed-out
// guard yields an empty token, never an error, so public endpoints
// still work.
func (g *Guard) Token(ctx context.Context) (string, error) {
	token, _ := g.CurrentToken()
	return token, nil
}

// SessionElapsed reports how long the session has been live.
func (g *Guard) SessionElapsed() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return 0, false
	}
	return time.Since(g.session.StartedAt), true
}

// Refresh implements the backend client's refresher: exchange the
// current token for a fresh one after a request came back 401.
func (g *Guard) Refresh(ctx context.Context) error {
	return g.refresh(ctx, "unauthorized")
}

// RefreshNow forces an immediate refresh outside the schedule.
func (g *Guard) RefreshNow(ctx context.Context) error {
	return g.refresh(ctx, "manual")
}

func (g *Guard) refresh(ctx context.Context, trigger string) error {
	g.mu.Lock()
	if g.session == nil {
		g.mu.Unlock()
		return ErrNotAuthenticated
	}
	oldToken := g.session.Token
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.TokenRefreshes.WithLabelValues(trigger).Inc()
	}

	newToken, err := g.auth.Refresh(ctx, oldToken)
	if err != nil {
		return MapAuthError(err)
	}

	g.mu.Lock()
	if g.session != nil {
		g.session.Token = newToken
	}
	g.mu.Unlock()

	g.logger.Debug("token refreshed", zap.String("trigger", trigger))
	return nil
}

func (g *Guard) install(identity, token string) {
	g.mu.Lock()
	if g.stopRef != nil {
		g.stopRef()
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.stopRef = cancel
	g.session = &Session{Identity: identity, Token: token, StartedAt: time.Now()}
	listeners := append([]Listener(nil), g.listeners...)
	g.mu.Unlock()

	go g.refreshLoop(ctx)
	for _, l := range listeners {
		l(true, identity)
	}
}

func (g *Guard) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(g.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.refresh(ctx, "scheduled"); err != nil {
				g.logger.Warn("scheduled token refresh failed", zap.Error(err))
			}
		}
	}
}

// authMessages maps authenticator error codes to the fixed user-facing
// message table.
var authMessages = map[string]string{
	"invalid-credential":     "Invalid email or password",
	"user-not-found":         "Invalid email or password",
	"wrong-password":         "Invalid email or password",
	"invalid-email":          "Please enter a valid email address",
	"user-disabled":          "This account has been disabled",
	"too-many-requests":      "Too many attempts. Please try again later",
	"network-request-failed": "Network error. Check your connection and try again",
	"weak-password":          "Password must be at least 6 characters",
	"email-already-in-use":   "Email already exists",
}

// CodedError carries an authenticator error code.
type CodedError interface {
	error
	Code() string
}

// MapAuthError converts an authenticator error to its user-facing
// message. Unknown codes get a generic fallback.
func MapAuthError(err error) error {
	if err == nil {
		return nil
	}
	var coded CodedError
	if errors.As(err, &coded) {
		code := strings.TrimPrefix(coded.Code(), "auth/")
		if msg, ok := authMessages[code]; ok {
			return errors.New(msg)
		}
	}
	return errors.New("Authentication failed. Please try again")
}
