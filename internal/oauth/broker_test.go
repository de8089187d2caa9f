package oauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/identity"
)

type fakeIdentityProvider struct {
	mu       sync.Mutex
	sessions map[string]*identity.SessionData
	calls    int
	err      error
}

func (f *fakeIdentityProvider) SessionData(_ context.Context, id string) (*identity.SessionData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	data, ok := f.sessions[id]
	if !ok {
		return nil, identity.ErrInvalidSession
	}

	cp := *data
	return &cp, nil
}

type brokerFixture struct {
	broker   *Broker
	idp      *fakeIdentityProvider
	users    *users.MemoryStore
	sessions *sessions.MemoryStore
	now      time.Time
}

func newBrokerFixture(cfg Config) *brokerFixture {
	f := &brokerFixture{
		idp: &fakeIdentityProvider{sessions: map[string]*identity.SessionData{
			"ext-1": {ID: "g-1", Email: "player@avk.ru", Name: "Player", SessionToken: "up-1"},
		}},
		users:    users.NewMemoryStore(),
		sessions: sessions.NewMemoryStore(),
		now:      time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}

	f.broker = NewBroker(f.idp, f.users, f.sessions, cfg)
	f.broker.now = func() time.Time { return f.now }

	return f
}

func TestLogin_CreatesUserAndSession(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	user, session, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)

	assert.Equal(t, "player@avk.ru", user.Email)
	assert.Equal(t, "Player", user.FullName)
	assert.Equal(t, users.RoleCustomer, user.Role)
	assert.True(t, user.IsActive)

	linked, ok := user.Identity(ProviderEmergent)
	require.True(t, ok)
	assert.Equal(t, "g-1", linked.ProviderID)

	assert.Len(t, session.SessionToken, 64)
	assert.Equal(t, f.now.Add(sessions.DefaultTTL), session.ExpiresAt)
	assert.Equal(t, user.ID, session.UserID)
}

func TestLogin_Idempotent(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	first, s1, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)

	second, s2, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, s1.SessionToken, s2.SessionToken)
	assert.Equal(t, 1, f.users.Count())
}

func TestMaterializeUser_ConcurrentFirstExchange(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	ext := &ExternalIdentity{Provider: ProviderEmergent, ExternalID: "new-ext", Email: "new@avk.ru"}

	const workers = 16

	var wg sync.WaitGroup
	ids := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			u, err := f.broker.MaterializeUser(ctx, ext)
			if assert.NoError(t, err) {
				ids <- u.ID
			}
		}()
	}

	wg.Wait()
	close(ids)

	distinct := map[string]bool{}
	for id := range ids {
		distinct[id] = true
	}

	assert.Len(t, distinct, 1)
	assert.Equal(t, 1, f.users.Count())
}

func TestMaterializeUser_EmailOwnedByLocalAccount(t *testing.T) {
	ctx := context.Background()
	local := &users.User{ID: "local", Email: "player@avk.ru", PasswordHash: "x", Role: users.RoleCustomer, IsActive: true}

	t.Run("conflict by default", func(t *testing.T) {
		f := newBrokerFixture(Config{})
		require.NoError(t, f.users.Create(ctx, local))

		_, _, err := f.broker.Login(ctx, "ext-1")
		assert.ErrorIs(t, err, users.ErrEmailTaken)
		assert.Equal(t, 0, f.sessions.Count())
	})

	t.Run("linked when enabled", func(t *testing.T) {
		f := newBrokerFixture(Config{LinkByEmail: true})
		require.NoError(t, f.users.Create(ctx, local))

		user, _, err := f.broker.Login(ctx, "ext-1")
		require.NoError(t, err)

		assert.Equal(t, "local", user.ID)
		assert.True(t, user.HasPassword())
		assert.Equal(t, 1, f.users.Count())

		_, ok := user.Identity(ProviderEmergent)
		assert.True(t, ok)
	})
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	user, _, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)

	_, err = f.users.SetActive(ctx, user.ID, false)
	require.NoError(t, err)

	before := f.sessions.Count()

	_, session, err := f.broker.Login(ctx, "ext-1")
	assert.ErrorIs(t, err, ErrAccountDisabled)
	assert.Nil(t, session)
	assert.Equal(t, before, f.sessions.Count())
}

func TestLogin_UpstreamErrors(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	_, _, err := f.broker.Login(ctx, "unknown")
	assert.ErrorIs(t, err, identity.ErrInvalidSession)

	f.idp.err = identity.ErrUpstreamUnavailable
	_, _, err = f.broker.Login(ctx, "ext-1")
	assert.ErrorIs(t, err, identity.ErrUpstreamUnavailable)

	assert.Equal(t, 0, f.users.Count())
}

func TestResolve(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	user, session, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)

	resolved, err := f.broker.Resolve(ctx, session.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	_, err = f.broker.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)

	_, err = f.broker.Resolve(ctx, "")
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestResolve_ExpiredIsDeleted(t *testing.T) {
	f := newBrokerFixture(Config{SessionTTL: time.Hour})
	ctx := context.Background()

	_, session, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour + time.Second)

	_, err = f.broker.Resolve(ctx, session.SessionToken)
	assert.ErrorIs(t, err, sessions.ErrSessionExpired)

	_, err = f.broker.Resolve(ctx, session.SessionToken)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
	assert.Equal(t, 0, f.sessions.Count())
}

func TestResolve_DeletedUser(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	user, session, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)
	require.NoError(t, f.users.Delete(ctx, user.ID))

	_, err = f.broker.Resolve(ctx, session.SessionToken)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestRevoke_Idempotent(t *testing.T) {
	f := newBrokerFixture(Config{})
	ctx := context.Background()

	_, session, err := f.broker.Login(ctx, "ext-1")
	require.NoError(t, err)

	require.NoError(t, f.broker.Revoke(ctx, session.SessionToken))
	require.NoError(t, f.broker.Revoke(ctx, session.SessionToken))
	require.NoError(t, f.broker.Revoke(ctx, "never-existed"))

	_, err = f.broker.Resolve(ctx, session.SessionToken)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
}
