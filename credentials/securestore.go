package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const secureFileName = "credentials.enc"

// ErrInvalidPassphraseOrCorrupt is returned when the credentials file
// cannot be decrypted. Kept generic to avoid leaking which it was.
var ErrInvalidPassphraseOrCorrupt = errors.New("invalid passphrase or corrupted credentials file")

// Argon2id parameters for the at-rest token envelope.
const (
	argonTime    = 2
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 32
	saltLen      = 16
)

// SecureStore persists the token encrypted at rest: Argon2id for key
// derivation, XChaCha20-Poly1305 for the envelope. Same atomic-write
// policy as FileStore.
type SecureStore struct {
	path       string
	passphrase []byte
}

var _ Store = (*SecureStore)(nil)

type secureEnvelope struct {
	Version  int    `json:"version"`
	SaltB64  string `json:"salt_b64"`
	NonceB64 string `json:"nonce_b64"`
	CTB64    string `json:"ct_b64"`
}

func NewSecureStore(dataFolder, passphrase string) *SecureStore {
	return &SecureStore{
		path:       filepath.Join(dataFolder, secureFileName),
		passphrase: []byte(passphrase),
	}
}

func (ss *SecureStore) Set(token string) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("[SecureStore.Set] failed to generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(ss.deriveKey(salt))
	if err != nil {
		return fmt.Errorf("[SecureStore.Set] failed to initialise cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("[SecureStore.Set] failed to generate nonce: %w", err)
	}

	ct := aead.Seal(nil, nonce, []byte(token), nil)
	env := secureEnvelope{
		Version:  1,
		SaltB64:  base64.StdEncoding.EncodeToString(salt),
		NonceB64: base64.StdEncoding.EncodeToString(nonce),
		CTB64:    base64.StdEncoding.EncodeToString(ct),
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("[SecureStore.Set] failed to marshal envelope: %w", err)
	}
	if err := writeFileAtomic(ss.path, data); err != nil {
		return fmt.Errorf("[SecureStore.Set] failed to write credentials: %w", err)
	}
	return nil
}

func (ss *SecureStore) Get() (string, error) {
	data, err := os.ReadFile(ss.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("[SecureStore.Get] failed to read credentials: %w", err)
	}

	var env secureEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", ErrInvalidPassphraseOrCorrupt
	}
	if env.Version != 1 {
		return "", fmt.Errorf("[SecureStore.Get] unsupported envelope version: %d", env.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(env.SaltB64)
	if err != nil {
		return "", ErrInvalidPassphraseOrCorrupt
	}
	nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
	if err != nil {
		return "", ErrInvalidPassphraseOrCorrupt
	}
	ct, err := base64.StdEncoding.DecodeString(env.CTB64)
	if err != nil {
		return "", ErrInvalidPassphraseOrCorrupt
	}

	aead, err := chacha20poly1305.NewX(ss.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("[SecureStore.Get] failed to initialise cipher: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return "", ErrInvalidPassphraseOrCorrupt
	}

	token, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrInvalidPassphraseOrCorrupt
	}
	return string(token), nil
}

func (ss *SecureStore) Clear() error {
	if err := os.Remove(ss.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[SecureStore.Clear] failed to remove credentials: %w", err)
	}
	return nil
}

func (ss *SecureStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(ss.passphrase, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}
