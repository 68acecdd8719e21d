// Package gateway wraps every backend call: it injects the bearer token,
// translates transport/HTTP outcomes into the client error taxonomy and
// drives the forced-logout hook on authorization rejection. No component
// above it inspects raw status codes.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-wallet-client/credentials"
)

// Caller is the backend call contract consumed by the session controller,
// wallet registry and transfer flow.
type Caller interface {
	Call(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// Gateway is the Caller implementation over net/http. Every call is
// at-most-once: no retries, no backoff; the user re-triggers the action.
type Gateway struct {
	baseURL        string
	client         *http.Client
	store          credentials.Store
	onUnauthorized func()
}

var _ Caller = (*Gateway)(nil)

// Option modifies the Gateway instance.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

func New(baseURL string, timeout time.Duration, store credentials.Store, options ...Option) (*Gateway, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("[gateway.New] baseURL is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[gateway.New] credentials store is required")
	}

	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		store:   store,
	}

	for _, opt := range options {
		opt(g)
	}

	return g, nil
}

// OnUnauthorized registers the session-termination hook invoked whenever a
// call observes HTTP 401. Registered once by the session controller; the
// hook is the single writer of session state outside user-driven actions.
func (g *Gateway) OnUnauthorized(fn func()) {
	g.onUnauthorized = fn
}

// Call performs one backend request. The returned json.RawMessage is the
// decoded-side of a 2xx response; every other outcome maps onto
// ErrUnauthorized, *BackendError or ErrNetwork.
func (g *Gateway) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Gateway.Call] failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("[Gateway.Call] failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	authenticated := false
	if !isPublicPath(path) {
		token, err := g.store.Get()
		if err != nil {
			log.Warn().Err(err).Msg("credential store unreadable, calling unauthenticated")
			token = ""
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	log.Debug().Str("method", method).Str("path", path).Msg("backend call")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && authenticated:
		// Only a rejected bearer token terminates the session. A 401 on a
		// token-less call is a credentials rejection (wrong password on
		// login) and is surfaced like any other backend failure.
		log.Warn().Str("path", path).Msg("token rejected by backend, terminating session")
		if g.onUnauthorized != nil {
			g.onUnauthorized()
		}
		return nil, ErrUnauthorized

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if len(respBody) > 0 && !json.Valid(respBody) {
			return nil, fmt.Errorf("%w: response is not valid JSON", ErrMalformedResponse)
		}
		return json.RawMessage(respBody), nil

	default:
		return nil, &BackendError{Message: decodeErrorMessage(respBody, resp.StatusCode)}
	}
}

// login and signup take no bearer token per the backend contract, so a
// stored token is never attached to them. Re-authenticating with a bad
// password must not destroy an existing session.
var publicPaths = map[string]struct{}{
	"/api/login":  {},
	"/api/signup": {},
}

func isPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// errorEnvelope covers both failure shapes the backend uses: login and
// sign-transaction report {message}, signup reports {error}.
type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeErrorMessage(body []byte, statusCode int) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}
