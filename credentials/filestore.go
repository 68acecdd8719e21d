package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-wallet-client/internal/errors"
)

const credentialsFileName = "credentials.json"

// FileStore persists the token as a JSON file inside a data folder.
// Writes are atomic (tmp file + rename) and the file is user-readable only.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

type credentialsFile struct {
	Token string `json:"token"`
}

func NewFileStore(dataFolder string) *FileStore {
	return &FileStore{path: filepath.Join(dataFolder, credentialsFileName)}
}

func (fs *FileStore) Set(token string) error {
	data, err := json.Marshal(credentialsFile{Token: token})
	if err != nil {
		return errors.Wrapf(err, "[FileStore.Set] failed to marshal credentials")
	}
	if err := writeFileAtomic(fs.path, data); err != nil {
		return errors.Wrapf(err, "[FileStore.Set] failed to write credentials")
	}
	return nil
}

func (fs *FileStore) Get() (string, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "[FileStore.Get] failed to read credentials")
	}
	var cf credentialsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return "", errors.Wrapf(err, "[FileStore.Get] failed to parse credentials")
	}
	return cf.Token, nil
}

func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "[FileStore.Clear] failed to remove credentials")
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
