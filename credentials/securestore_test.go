package credentials_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-wallet-client/credentials"
	"github.com/stretchr/testify/require"
)

func TestSecureStoreRoundTrip(t *testing.T) {
	folder := t.TempDir()
	store := credentials.NewSecureStore(folder, "correct horse battery staple")

	token, err := store.Get()
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, store.Set("abc123"))

	token, err = store.Get()
	require.NoError(t, err)
	require.Equal(t, "abc123", token)
}

func TestSecureStoreWrongPassphrase(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, credentials.NewSecureStore(folder, "right").Set("abc123"))

	_, err := credentials.NewSecureStore(folder, "wrong").Get()
	require.ErrorIs(t, err, credentials.ErrInvalidPassphraseOrCorrupt)
}

func TestSecureStoreTokenNotOnDiskInPlaintext(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, credentials.NewSecureStore(folder, "pass").Set("super-secret-token"))

	raw, err := os.ReadFile(filepath.Join(folder, "credentials.enc"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "super-secret-token")
}

func TestSecureStoreClear(t *testing.T) {
	folder := t.TempDir()
	store := credentials.NewSecureStore(folder, "pass")

	require.NoError(t, store.Set("abc123"))
	require.NoError(t, store.Clear())

	token, err := store.Get()
	require.NoError(t, err)
	require.Empty(t, token)
}
