package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedErr struct {
	code string
}

func (e *codedErr) Error() string { return e.code }
func (e *codedErr) Code() string  { return e.code }

type fakeAuth struct {
	mu         sync.Mutex
	loginErr   error
	refreshErr error
	refreshes  int
	logouts    int
	tokenSeq   int
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return "", "", f.loginErr
	}
	f.tokenSeq++
	return email, "tok-1", nil
}

func (f *fakeAuth) Register(ctx context.Context, email, password string) (string, string, error) {
	return f.Login(ctx, email, password)
}

func (f *fakeAuth) Refresh(ctx context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.refreshes++
	f.tokenSeq++
	return "tok-refreshed", nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return nil
}

func (f *fakeAuth) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

func TestSignInStoresSessionAndNotifies(t *testing.T) {
	auth := &fakeAuth{}
	g := New(Options{Authenticator: auth})

	var events []bool
	g.Subscribe(func(authenticated bool, identity string) {
		events = append(events, authenticated)
	})

	require.NoError(t, g.SignIn(context.Background(), "a@b.c", "hunter22"))
	defer g.SignOut(context.Background())

	identity, ok := g.CurrentIdentity()
	require.True(t, ok)
	assert.Equal(t, "a@b.c", identity)

	token, ok := g.CurrentToken()
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)

	elapsed, ok := g.SessionElapsed()
	require.True(t, ok)
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))

	assert.Equal(t, []bool{true}, events)
}

func TestSignOutClearsAndNotifies(t *testing.T) {
	auth := &fakeAuth{}
	g := New(Options{Authenticator: auth})

	var events []bool
	g.Subscribe(func(authenticated bool, identity string) {
		events = append(events, authenticated)
	})

	require.NoError(t, g.SignIn(context.Background(), "a@b.c", "pw12345"))
	g.SignOut(context.Background())

	_, ok := g.CurrentIdentity()
	assert.False(t, ok)
	_, ok = g.CurrentToken()
	assert.False(t, ok)
	assert.Equal(t, []bool{true, false}, events)
	assert.Equal(t, 1, auth.logouts)

	g.SignOut(context.Background()) // idempotent
	assert.Equal(t, []bool{true, false}, events)
	assert.Equal(t, 1, auth.logouts)
}

func TestSignUpRejectsShortPassword(t *testing.T) {
	g := New(Options{Authenticator: &fakeAuth{}})
	err := g.SignUp(context.Background(), "a@b.c", "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6 characters")
}

func TestSignInMapsAuthErrors(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"invalid-credential", "Invalid email or password"},
		{"auth/wrong-password", "Invalid email or password"},
		{"user-disabled", "This account has been disabled"},
		{"too-many-requests", "Too many attempts. Please try again later"},
		{"something-novel", "Authentication failed. Please try again"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			g := New(Options{Authenticator: &fakeAuth{loginErr: &codedErr{code: tc.code}}})
			err := g.SignIn(context.Background(), "a@b.c", "hunter22")
			require.Error(t, err)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestMapAuthErrorWithoutCode(t *testing.T) {
	err := MapAuthError(errors.New("raw transport failure"))
	assert.Equal(t, "Authentication failed. Please try again", err.Error())
	assert.NoError(t, MapAuthError(nil))
}

func TestRefreshUpdatesToken(t *testing.T) {
	auth := &fakeAuth{}
	g := New(Options{Authenticator: auth})
	require.NoError(t, g.SignIn(context.Background(), "a@b.c", "hunter22"))
	defer g.SignOut(context.Background())

	require.NoError(t, g.Refresh(context.Background()))
	token, _ := g.CurrentToken()
	assert.Equal(t, "tok-refreshed", token)
}

func TestRefreshWithoutSession(t *testing.T) {
	g := New(Options{Authenticator: &fakeAuth{}})
	assert.ErrorIs(t, g.Refresh(context.Background()), ErrNotAuthenticated)
}

func TestScheduledRefreshLoop(t *testing.T) {
	auth := &fakeAuth{}
	g := New(Options{Authenticator: auth, RefreshInterval: 10 * time.Millisecond})
	require.NoError(t, g.SignIn(context.Background(), "a@b.c", "hunter22"))
	defer g.SignOut(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if auth.refreshCount() >= 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("refresh loop never ran")
}

func TestTokenSourceYieldsEmptyWhenSignedOut(t *testing.T) {
	g := New(Options{Authenticator: &fakeAuth{}})
	token, err := g.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}
