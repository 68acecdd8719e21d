package storefakes

import (
	"sync"

	"github.com/jrsteele09/go-wallet-client/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory Store for tests. SetErr, GetErr and ClearErr
// can be assigned to force the corresponding call to fail.
type FakeStore struct {
	lock  sync.RWMutex
	token string

	SetErr   error
	GetErr   error
	ClearErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Set(token string) error {
	if fs.SetErr != nil {
		return fs.SetErr
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.token = token
	return nil
}

func (fs *FakeStore) Get() (string, error) {
	if fs.GetErr != nil {
		return "", fs.GetErr
	}
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.token, nil
}

func (fs *FakeStore) Clear() error {
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.token = ""
	return nil
}
