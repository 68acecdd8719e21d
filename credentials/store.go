// Package credentials holds the bearer token for the current session.
// The durable implementations write through synchronously so that a new
// process reconstructs the session without re-authenticating. No expiry
// logic lives here; the backend is the sole authority on token validity.
package credentials

// Store is the contract for the credential holder. Get returns an empty
// string when no token is stored.
type Store interface {
	Set(token string) error
	Get() (string, error)
	Clear() error
}
