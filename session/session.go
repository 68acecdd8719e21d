// Package session owns the "is a user logged in" state. The controller is
// the only writer of the credential store besides the gateway's forced
// logout path, which it registers as the unauthorized hook.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-wallet-client/credentials"
	"github.com/jrsteele09/go-wallet-client/gateway"
	"github.com/jrsteele09/go-wallet-client/internal/errors"
)

// State of the session. Token is empty exactly when Name is Anonymous.
type State struct {
	Name  StateName
	Token string
}

type StateName string

const (
	Anonymous     StateName = "anonymous"
	Authenticated StateName = "authenticated"
)

const (
	loginPath  = "/api/login"
	signupPath = "/api/signup"
)

// Controller mediates login, signup and logout transitions and notifies
// subscribers on every transition.
type Controller struct {
	lock   sync.Mutex
	store  credentials.Store
	caller gateway.Caller
	token  string
	subs   []func(State)
}

// New builds a Controller, restoring an existing session from the durable
// store so a restart does not force re-authentication.
func New(store credentials.Store, caller gateway.Caller) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("[session.New] credentials store is required")
	}
	if caller == nil {
		return nil, fmt.Errorf("[session.New] gateway caller is required")
	}

	token, err := store.Get()
	if err != nil {
		return nil, errors.Wrapf(err, "[session.New] failed to restore session")
	}

	return &Controller{store: store, caller: caller, token: token}, nil
}

// State returns the current session state.
func (c *Controller) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	if c.token == "" {
		return State{Name: Anonymous}
	}
	return State{Name: Authenticated, Token: c.token}
}

// Subscribe registers a transition observer. Consumers react to state
// changes instead of polling; the callback runs on the mutating goroutine.
func (c *Controller) Subscribe(fn func(State)) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.subs = append(c.subs, fn)
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates against the backend. On success the token is stored
// durably and the session becomes Authenticated; on failure the session
// stays Anonymous and the backend message is returned as the error.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	body, err := c.caller.Call(ctx, http.MethodPost, loginPath, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
		return fmt.Errorf("%w: login response missing token", gateway.ErrMalformedResponse)
	}

	if err := c.store.Set(resp.Token); err != nil {
		return fmt.Errorf("[Controller.Login] failed to persist token: %w", err)
	}

	c.transition(resp.Token)
	log.Info().Str("username", username).Msg("logged in")
	return nil
}

type signupResponse struct {
	Message string `json:"message"`
}

// Signup registers a new user. It never authenticates: on success the user
// is expected to log in, and the session state does not change.
func (c *Controller) Signup(ctx context.Context, username, email, password string) (string, error) {
	body, err := c.caller.Call(ctx, http.MethodPost, signupPath, map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	var resp signupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: signup response undecodable", gateway.ErrMalformedResponse)
	}
	return resp.Message, nil
}

// Logout is the explicit user action: clears the durable store and moves
// to Anonymous unconditionally.
func (c *Controller) Logout() {
	if err := c.store.Clear(); err != nil {
		log.Err(err).Msg("failed to clear credential store on logout")
	}
	c.transition("")
	log.Info().Msg("logged out")
}

// ForceLogout has the identical effect to Logout but is driven by the
// gateway observing a 401, never by direct user action. Register it with
// Gateway.OnUnauthorized.
func (c *Controller) ForceLogout() {
	if err := c.store.Clear(); err != nil {
		log.Err(err).Msg("failed to clear credential store on forced logout")
	}
	c.transition("")
	log.Warn().Msg("session terminated: token rejected by backend")
}

func (c *Controller) transition(token string) {
	c.lock.Lock()
	c.token = token
	state := c.stateLocked()
	subs := make([]func(State), len(c.subs))
	copy(subs, c.subs)
	c.lock.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
