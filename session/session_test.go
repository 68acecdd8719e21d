package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-wallet-client/credentials/storefakes"
	"github.com/jrsteele09/go-wallet-client/gateway"
	"github.com/jrsteele09/go-wallet-client/gateway/gatewayfakes"
	"github.com/jrsteele09/go-wallet-client/session"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	store      *storefakes.FakeStore
	caller     *gatewayfakes.FakeCaller
	controller *session.Controller
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	store := storefakes.NewFakeStore()
	caller := gatewayfakes.NewFakeCaller()

	controller, err := session.New(store, caller)
	require.NoError(t, err)

	return &testFixture{store: store, caller: caller, controller: controller}
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.caller.Stub(http.MethodPost, "/api/login", `{"token":"abc123"}`, nil)

	require.NoError(t, f.controller.Login(context.Background(), "alice", "pw"))

	state := f.controller.State()
	require.Equal(t, session.Authenticated, state.Name)
	require.Equal(t, "abc123", state.Token)

	token, err := f.store.Get()
	require.NoError(t, err)
	require.Equal(t, "abc123", token, "durable store mirrors the session")

	calls := f.caller.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, map[string]string{"username": "alice", "password": "pw"}, calls[0].Body)
}

func TestLoginFailureSurfacesBackendMessage(t *testing.T) {
	f := setupTestFixture(t)
	f.caller.Stub(http.MethodPost, "/api/login", "", &gateway.BackendError{Message: "incorrect username or password"})

	err := f.controller.Login(context.Background(), "alice", "wrong")
	var backendErr *gateway.BackendError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, "incorrect username or password", backendErr.Message)

	require.Equal(t, session.Anonymous, f.controller.State().Name)
}

func TestLoginMissingTokenIsMalformed(t *testing.T) {
	f := setupTestFixture(t)
	f.caller.Stub(http.MethodPost, "/api/login", `{}`, nil)

	err := f.controller.Login(context.Background(), "alice", "pw")
	require.ErrorIs(t, err, gateway.ErrMalformedResponse)
	require.Equal(t, session.Anonymous, f.controller.State().Name)
}

func TestSignupDoesNotAuthenticate(t *testing.T) {
	f := setupTestFixture(t)
	f.caller.Stub(http.MethodPost, "/api/signup", `{"message":"user created"}`, nil)

	msg, err := f.controller.Signup(context.Background(), "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "user created", msg)

	require.Equal(t, session.Anonymous, f.controller.State().Name)
	token, err := f.store.Get()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestSignupTakenUsername(t *testing.T) {
	f := setupTestFixture(t)
	f.caller.Stub(http.MethodPost, "/api/signup", "", &gateway.BackendError{Message: "username taken"})

	_, err := f.controller.Signup(context.Background(), "alice", "alice@example.com", "pw")
	var backendErr *gateway.BackendError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, "username taken", backendErr.Message)
	require.Equal(t, session.Anonymous, f.controller.State().Name)
}

func TestLogoutClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.caller.Stub(http.MethodPost, "/api/login", `{"token":"abc123"}`, nil)
	require.NoError(t, f.controller.Login(context.Background(), "alice", "pw"))

	f.controller.Logout()

	require.Equal(t, session.Anonymous, f.controller.State().Name)
	token, err := f.store.Get()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestRestoresSessionFromStore(t *testing.T) {
	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set("abc123"))

	controller, err := session.New(store, gatewayfakes.NewFakeCaller())
	require.NoError(t, err)

	state := controller.State()
	require.Equal(t, session.Authenticated, state.Name)
	require.Equal(t, "abc123", state.Token)
}

func TestSubscribersSeeTransitions(t *testing.T) {
	f := setupTestFixture(t)
	f.caller.Stub(http.MethodPost, "/api/login", `{"token":"abc123"}`, nil)

	var seen []session.StateName
	f.controller.Subscribe(func(s session.State) {
		seen = append(seen, s.Name)
	})

	require.NoError(t, f.controller.Login(context.Background(), "alice", "pw"))
	f.controller.Logout()

	require.Equal(t, []session.StateName{session.Authenticated, session.Anonymous}, seen)
}

// Any protected call observing a 401 must leave the store cleared and the
// controller Anonymous, whichever endpoint triggered it.
func TestForcedLogoutThroughGateway(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set("stale-token"))

	g, err := gateway.New(server.URL, time.Second, store)
	require.NoError(t, err)

	controller, err := session.New(store, g)
	require.NoError(t, err)
	g.OnUnauthorized(controller.ForceLogout)

	for _, path := range []string{"/api/wallets", "/api/wallet", "/api/sign-transaction"} {
		require.NoError(t, store.Set("stale-token"))

		_, err = g.Call(context.Background(), http.MethodGet, path, nil)
		require.ErrorIs(t, err, gateway.ErrUnauthorized)

		require.Equal(t, session.Anonymous, controller.State().Name)
		token, err := store.Get()
		require.NoError(t, err)
		require.Empty(t, token)
	}
}

// Re-logging in with a wrong password while a valid session is stored
// must surface the backend message and leave the session untouched.
func TestFailedReloginKeepsExistingSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set("abc123"))

	g, err := gateway.New(server.URL, time.Second, store)
	require.NoError(t, err)

	controller, err := session.New(store, g)
	require.NoError(t, err)
	g.OnUnauthorized(controller.ForceLogout)

	err = controller.Login(context.Background(), "alice", "wrong")
	var backendErr *gateway.BackendError
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, "Invalid credentials", backendErr.Message)

	state := controller.State()
	require.Equal(t, session.Authenticated, state.Name)
	require.Equal(t, "abc123", state.Token)

	token, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, "abc123", token)
}

func TestClaimsDecodesWithoutVerification(t *testing.T) {
	// Signed with a key this client never sees; header/claims are still readable.
	token := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJzdWIiOiJhbGljZSIsInVzZXJuYW1lIjoiYWxpY2UifQ." +
		"bm90LWEtcmVhbC1zaWduYXR1cmU"

	claims, err := session.Claims(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, "alice", claims["username"])
}

func TestClaimsRejectsOpaqueToken(t *testing.T) {
	_, err := session.Claims("not-a-jwt")
	require.Error(t, err)
}
