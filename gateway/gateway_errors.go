package gateway

import "errors"

var (
	// ErrUnauthorized means the backend rejected the token. The forced
	// logout hook has already run; callers abandon the operation and must
	// never surface this as a form error.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNetwork means no interpretable response was received.
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse means the backend answered 2xx with a body that
	// does not match the expected schema.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// BackendError carries a message from a semantically rejected request
// (valid session, non-2xx status). The message is surfaced verbatim to
// the user near the triggering action.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}
