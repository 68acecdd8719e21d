package wallets

import "errors"

// Wallet is the client view of a server-custodied wallet. PublicKey is the
// stable identifier; Balance is a numeric string in wei, backend-sourced.
type Wallet struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
	Balance   string `json:"balance"`
}

var (
	// ErrNotLoaded is returned before the first successful refresh.
	ErrNotLoaded = errors.New("wallet list not loaded")

	// ErrWalletNotFound is returned when no cached wallet has the key.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrNameRequired is returned by Create for an empty wallet name.
	ErrNameRequired = errors.New("wallet name is required")
)
