// Package wallets caches the wallet list for the current session. The
// cache is only ever replaced wholesale by a refresh, so the view is never
// a mix of two backend snapshots.
package wallets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-wallet-client/gateway"
)

const (
	listPath   = "/api/wallets"
	createPath = "/api/wallet"
)

// Registry is the client-side wallet cache. It is either not yet loaded,
// consistent with the last successful refresh, or stale pending a new
// refresh; there is no partial-update state.
type Registry struct {
	lock   sync.RWMutex
	caller gateway.Caller
	loaded bool
	list   []Wallet
	subs   []func([]Wallet)
}

func NewRegistry(caller gateway.Caller) (*Registry, error) {
	if caller == nil {
		return nil, fmt.Errorf("[wallets.NewRegistry] gateway caller is required")
	}
	return &Registry{caller: caller}, nil
}

// Subscribe registers a change observer, invoked with the new list after
// every refresh and after Invalidate (with a nil list).
func (r *Registry) Subscribe(fn func([]Wallet)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.subs = append(r.subs, fn)
}

// Refresh fetches the full wallet list and replaces the cache wholesale.
// A response with duplicate public keys is rejected as malformed and the
// prior cache is kept.
func (r *Registry) Refresh(ctx context.Context) ([]Wallet, error) {
	body, err := r.caller.Call(ctx, http.MethodGet, listPath, nil)
	if err != nil {
		return nil, err
	}

	var list []Wallet
	if len(body) > 0 {
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("%w: wallet list undecodable", gateway.ErrMalformedResponse)
		}
	}

	seen := make(map[string]struct{}, len(list))
	for _, w := range list {
		if w.PublicKey == "" {
			return nil, fmt.Errorf("%w: wallet entry missing public key", gateway.ErrMalformedResponse)
		}
		if _, dup := seen[w.PublicKey]; dup {
			return nil, fmt.Errorf("%w: duplicate public key %q", gateway.ErrMalformedResponse, w.PublicKey)
		}
		seen[w.PublicKey] = struct{}{}
	}

	r.replace(list)
	log.Debug().Int("wallets", len(list)).Msg("wallet list refreshed")
	current, _ := r.List()
	return current, nil
}

// Create submits a create-wallet request and, on success, refreshes the
// list rather than inserting optimistically: the backend is the sole
// generator of public keys and balances.
func (r *Registry) Create(ctx context.Context, name string) error {
	if name == "" {
		return ErrNameRequired
	}

	body, err := r.caller.Call(ctx, http.MethodPost, createPath, map[string]string{"name": name})
	if err != nil {
		return err
	}

	var created Wallet
	if err := json.Unmarshal(body, &created); err != nil || created.PublicKey == "" {
		return fmt.Errorf("%w: created wallet undecodable", gateway.ErrMalformedResponse)
	}
	log.Info().Str("name", created.Name).Str("public_key", created.PublicKey).Msg("wallet created")

	if _, err := r.Refresh(ctx); err != nil {
		return fmt.Errorf("[Registry.Create] wallet created but list refresh failed: %w", err)
	}
	return nil
}

// Fetch retrieves a single wallet by address without touching the cache.
func (r *Registry) Fetch(ctx context.Context, address string) (Wallet, error) {
	body, err := r.caller.Call(ctx, http.MethodGet, createPath+"/"+address, nil)
	if err != nil {
		return Wallet{}, err
	}

	var w Wallet
	if err := json.Unmarshal(body, &w); err != nil || w.PublicKey == "" {
		return Wallet{}, fmt.Errorf("%w: wallet undecodable", gateway.ErrMalformedResponse)
	}
	return w, nil
}

// List returns a copy of the cached wallets and whether a refresh has
// completed since construction or the last Invalidate.
func (r *Registry) List() ([]Wallet, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	out := make([]Wallet, len(r.list))
	copy(out, r.list)
	return out, r.loaded
}

// Get returns the cached wallet with the given public key.
func (r *Registry) Get(publicKey string) (Wallet, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if !r.loaded {
		return Wallet{}, ErrNotLoaded
	}
	for _, w := range r.list {
		if w.PublicKey == publicKey {
			return w, nil
		}
	}
	return Wallet{}, ErrWalletNotFound
}

// Invalidate discards the cache. Wired to session transitions so a logout
// (forced or explicit) never leaves protected data displayed.
func (r *Registry) Invalidate() {
	r.lock.Lock()
	r.list = nil
	r.loaded = false
	subs := make([]func([]Wallet), len(r.subs))
	copy(subs, r.subs)
	r.lock.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

func (r *Registry) replace(list []Wallet) {
	r.lock.Lock()
	r.list = list
	r.loaded = true
	subs := make([]func([]Wallet), len(r.subs))
	copy(subs, r.subs)
	notified := make([]Wallet, len(list))
	copy(notified, list)
	r.lock.Unlock()

	for _, fn := range subs {
		fn(notified)
	}
}
