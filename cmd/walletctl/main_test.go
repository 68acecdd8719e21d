package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-wallet-client/credentials/storefakes"
	"github.com/jrsteele09/go-wallet-client/gateway"
	"github.com/jrsteele09/go-wallet-client/session"
	"github.com/jrsteele09/go-wallet-client/wallets"
	"github.com/stretchr/testify/require"
)

// A 401 on a protected call must leave the session Anonymous, the store
// cleared and the cached wallet list discarded, through the same wiring
// the CLI runs with.
func TestUnauthorizedCallDiscardsWalletRegistry(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Write([]byte(`[{"name":"savings","public_key":"0xA","balance":"100"}]`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set("abc123"))

	g, err := gateway.New(server.URL, time.Second, store)
	require.NoError(t, err)

	controller, err := session.New(store, g)
	require.NoError(t, err)

	registry, err := wallets.NewRegistry(g)
	require.NoError(t, err)

	bindSessionTeardown(g, controller, registry)

	list, err := registry.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = registry.Refresh(context.Background())
	require.ErrorIs(t, err, gateway.ErrUnauthorized)

	require.Equal(t, session.Anonymous, controller.State().Name)
	token, err := store.Get()
	require.NoError(t, err)
	require.Empty(t, token)

	list, loaded := registry.List()
	require.False(t, loaded, "cached wallet list must be discarded on forced logout")
	require.Empty(t, list)
}

func TestExplicitLogoutDiscardsWalletRegistry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"savings","public_key":"0xA","balance":"100"}]`))
	}))
	t.Cleanup(server.Close)

	store := storefakes.NewFakeStore()
	require.NoError(t, store.Set("abc123"))

	g, err := gateway.New(server.URL, time.Second, store)
	require.NoError(t, err)

	controller, err := session.New(store, g)
	require.NoError(t, err)

	registry, err := wallets.NewRegistry(g)
	require.NoError(t, err)

	bindSessionTeardown(g, controller, registry)

	_, err = registry.Refresh(context.Background())
	require.NoError(t, err)

	controller.Logout()

	_, loaded := registry.List()
	require.False(t, loaded)
}
