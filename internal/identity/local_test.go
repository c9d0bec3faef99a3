package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"huebook/api/internal/docstore"
	"huebook/api/internal/session"
)

func newTestProvider(t *testing.T) *Local {
	t.Helper()
	return NewLocal(docstore.NewMemory(), nil, "test-device", zap.NewNop())
}

func TestSignUpAndSignIn(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	user, err := p.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.UID)
	assert.Equal(t, "a@b.com", user.Email)
	assert.False(t, user.IsAnonymous)

	got, err := p.SignIn(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.UID, got.UID)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "a@b.com", "other-password")
	assert.EqualError(t, err, "email already registered")
}

func TestSignInWrongPassword(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "a@b.com", "wrong")
	assert.EqualError(t, err, "invalid email or password")

	_, err = p.SignIn(ctx, "nobody@b.com", "secret1")
	assert.EqualError(t, err, "invalid email or password")
}

func TestSignInAnonymously(t *testing.T) {
	p := newTestProvider(t)

	user, err := p.SignInAnonymously(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, user.UID)
	assert.Empty(t, user.Email)
	assert.True(t, user.IsAnonymous)
}

func TestSignOutClearsCurrentUser(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, p.CurrentUser())

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, p.CurrentUser())
}

func TestOnAuthStateChangeDeliversCurrentState(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	// Signed out: first notification is nil
	got := make(chan *User, 1)
	unsubscribe := p.OnAuthStateChange(func(u *User) { got <- u })
	select {
	case u := <-got:
		assert.Nil(t, u)
	case <-time.After(time.Second):
		t.Fatal("no auth-state notification delivered")
	}
	unsubscribe()

	// Signed in: first notification carries the user
	user, err := p.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	unsubscribe = p.OnAuthStateChange(func(u *User) { got <- u })
	defer unsubscribe()
	select {
	case u := <-got:
		require.NotNil(t, u)
		assert.Equal(t, user.UID, u.UID)
	case <-time.After(time.Second):
		t.Fatal("no auth-state notification delivered")
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	got := make(chan *User, 4)
	unsubscribe := p.OnAuthStateChange(func(u *User) { got <- u })
	<-got // initial nil state
	unsubscribe()

	_, err := p.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	select {
	case <-got:
		t.Fatal("unsubscribed listener was notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionPersistenceAcrossRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := session.NewRedisStoreWithClient(client, time.Hour)
	store := docstore.NewMemory()
	ctx := context.Background()

	p := NewLocal(store, sessions, "device-1", zap.NewNop())
	user, err := p.SignUp(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	// Simulate a process restart against the same stores
	restarted := NewLocal(store, sessions, "device-1", zap.NewNop())
	restarted.Restore(ctx)
	current := restarted.CurrentUser()
	require.NotNil(t, current)
	assert.Equal(t, user.UID, current.UID)
	assert.Equal(t, "a@b.com", current.Email)

	// Sign-out revokes the persisted session
	require.NoError(t, restarted.SignOut(ctx))
	again := NewLocal(store, sessions, "device-1", zap.NewNop())
	again.Restore(ctx)
	assert.Nil(t, again.CurrentUser())
}
