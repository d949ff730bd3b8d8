package sessions_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/edu-console/fakeapi"
	"github.com/jrsteele09/edu-console/gateway"
	"github.com/jrsteele09/edu-console/sessions"
	"github.com/jrsteele09/edu-console/token"
	"github.com/jrsteele09/edu-console/token/memstore"
	"github.com/jrsteele09/edu-console/users"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	api     *fakeapi.Server
	srv     *httptest.Server
	store   *token.Store
	client  *gateway.Client
	manager *sessions.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := fakeapi.New()
	require.NoError(t, api.SeedDemo())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store := token.NewStore(context.Background(), memstore.New())
	client := gateway.New(srv.URL, store)
	return &testFixture{
		api:     api,
		srv:     srv,
		store:   store,
		client:  client,
		manager: sessions.NewManager(client),
	}
}

func TestBoot(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored token stays anonymous without a request", func(t *testing.T) {
		f := setupTestFixture(t)
		snap := f.manager.Boot(ctx)

		require.Equal(t, sessions.StatusAnonymous, snap.Status)
		require.Zero(t, f.api.Calls(http.MethodGet, gateway.PathUser))
	})

	t.Run("stored tokens restore the user", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.client.Login(ctx, "mentor", "mentor123")
		require.NoError(t, err)

		snap := sessions.NewManager(f.client).Boot(ctx)
		require.True(t, snap.IsAuthenticated())
		require.Equal(t, users.RoleMentor, snap.Role())
	})

	t.Run("rejected tokens are discarded", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.SetPair(ctx, token.Pair{Access: "stale", Refresh: "stale"})

		snap := f.manager.Boot(ctx)
		require.Equal(t, sessions.StatusAnonymous, snap.Status)
		require.True(t, f.store.Pair(ctx).Empty())
	})

	t.Run("unreachable backend degrades to anonymous", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.SetPair(ctx, token.Pair{Access: "a", Refresh: "r"})
		f.srv.Close()

		snap := f.manager.Boot(ctx)
		require.Equal(t, sessions.StatusAnonymous, snap.Status)
		require.False(t, snap.IsLoading())
		require.True(t, f.store.Pair(ctx).Empty())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("admin credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.manager.Login(ctx, "admin", "admin123"))

		snap := f.manager.Snapshot()
		require.True(t, snap.IsAuthenticated())
		require.Equal(t, users.RoleAdministrator, snap.Role())
		require.Empty(t, snap.LastError)
		require.True(t, f.store.Pair(ctx).Valid())
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.manager.Login(ctx, "admin", "nope")
		require.Error(t, err)

		snap := f.manager.Snapshot()
		require.Equal(t, sessions.StatusAnonymous, snap.Status)
		require.Nil(t, snap.User)
		require.Equal(t, "Incorrect username or password", snap.LastError)
		require.True(t, f.store.Pair(ctx).Empty())
	})

	t.Run("failure after a previous login discards its tokens", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.manager.Login(ctx, "admin", "admin123"))
		require.Error(t, f.manager.Login(ctx, "owner", "wrong"))

		require.Equal(t, sessions.StatusAnonymous, f.manager.Snapshot().Status)
		require.True(t, f.store.Pair(ctx).Empty())

		next := sessions.NewManager(f.client)
		require.Equal(t, sessions.StatusAnonymous, next.Boot(ctx).Status)
	})

	t.Run("a later success clears the last error", func(t *testing.T) {
		f := setupTestFixture(t)
		require.Error(t, f.manager.Login(ctx, "admin", "nope"))
		require.NoError(t, f.manager.Login(ctx, "admin", "admin123"))
		require.Empty(t, f.manager.Snapshot().LastError)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears user and tokens", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.manager.Login(ctx, "owner", "owner123"))
		f.manager.Logout(ctx)

		require.Equal(t, sessions.StatusAnonymous, f.manager.Snapshot().Status)
		require.True(t, f.store.Pair(ctx).Empty())
		require.Equal(t, 1, f.api.Calls(http.MethodPost, gateway.PathLogout))
	})

	t.Run("network down", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.manager.Login(ctx, "owner", "owner123"))
		f.srv.Close()
		f.manager.Logout(ctx)

		require.Equal(t, sessions.StatusAnonymous, f.manager.Snapshot().Status)
		require.True(t, f.store.Pair(ctx).Empty())
	})
}

func TestSessionExpiryFromDataFetch(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	require.NoError(t, f.manager.Login(ctx, "owner", "owner123"))

	f.api.RevokeAccessTokens()
	f.api.RejectRefresh(true)

	err := f.client.Get(ctx, gateway.PathGroups, nil)
	require.Error(t, err)

	snap := f.manager.Snapshot()
	require.Equal(t, sessions.StatusAnonymous, snap.Status)
	require.Nil(t, snap.User)
	require.Equal(t, "Your session has expired. Please log in again.", snap.LastError)
	require.True(t, f.store.Pair(ctx).Empty())
}

func TestHandleError(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	require.NoError(t, f.manager.Login(ctx, "owner", "owner123"))

	require.False(t, f.manager.HandleError(errors.New("boom")))
	require.False(t, f.manager.HandleError(&gateway.APIError{Status: http.StatusNotFound}))
	require.True(t, f.manager.Snapshot().IsAuthenticated())

	require.True(t, f.manager.HandleError(&gateway.SessionExpiredError{}))
	require.False(t, f.manager.Snapshot().IsAuthenticated())
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	var seen []sessions.Status
	unsubscribe := f.manager.Subscribe(func(s sessions.Snapshot) {
		seen = append(seen, s.Status)
	})

	require.NoError(t, f.manager.Login(ctx, "student", "student123"))
	require.Equal(t, []sessions.Status{sessions.StatusAuthenticating, sessions.StatusAuthenticated}, seen)

	unsubscribe()
	f.manager.Logout(ctx)
	require.Len(t, seen, 2)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	require.NoError(t, f.manager.Login(ctx, "student", "student123"))

	snap := f.manager.Snapshot()
	snap.User.Role = users.RoleOwner
	require.Equal(t, users.RoleStudent, f.manager.Snapshot().Role())
}

// blockingGateway holds CurrentUser until released.
type blockingGateway struct {
	release chan struct{}
	entered chan struct{}

	mu     sync.Mutex
	tokens bool
}

func (g *blockingGateway) Login(context.Context, string, string) (*gateway.LoginResult, error) {
	return nil, errors.New("unused")
}

func (g *blockingGateway) Logout(context.Context) {
	g.DiscardTokens(context.Background())
}

func (g *blockingGateway) CurrentUser(context.Context) (*users.User, error) {
	close(g.entered)
	<-g.release
	return &users.User{Username: "late", Role: users.RoleOwner}, nil
}

func (g *blockingGateway) HasAccessToken(context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tokens
}

func (g *blockingGateway) DiscardTokens(context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens = false
}

func (g *blockingGateway) OnSessionExpired(gateway.SessionExpiredFunc) {}

func TestBootDoesNotOverrideLaterLogout(t *testing.T) {
	ctx := context.Background()
	gw := &blockingGateway{release: make(chan struct{}), entered: make(chan struct{}), tokens: true}
	m := sessions.NewManager(gw)

	done := make(chan sessions.Snapshot)
	go func() {
		done <- m.Boot(ctx)
	}()

	<-gw.entered
	require.True(t, m.Snapshot().IsLoading())
	m.Logout(ctx)
	close(gw.release)

	snap := <-done
	require.Equal(t, sessions.StatusAnonymous, snap.Status)
	require.Nil(t, m.Snapshot().User)
}
