package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetDataFolder() string
	GetCredentialsPassphrase() string
	GetAppName() string
	GetEnv() string
}

// EnvVars is the environment-variable backed Config implementation.
type EnvVars struct {
	APIBaseURL  string        `env:"WALLET_API_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"WALLET_HTTP_TIMEOUT" envDefault:"10s"`
	DataFolder  string        `env:"WALLET_DATA_FOLDER"`
	Passphrase  string        `env:"WALLET_PASSPHRASE"`
	AppName     string        `env:"APP_NAME" envDefault:"Wallet Client"`
	Env         string        `env:"ENV" envDefault:"DEV"`
}

var _ Config = (*EnvVars)(nil)

func New() (Config, error) {
	var e EnvVars
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("[config.New] failed to parse environment: %w", err)
	}
	if e.DataFolder == "" {
		e.DataFolder = defaultDataFolder()
	}
	return &e, nil
}

func (e *EnvVars) GetAPIBaseURL() string {
	return e.APIBaseURL
}

func (e *EnvVars) GetHTTPTimeout() time.Duration {
	return e.HTTPTimeout
}

func (e *EnvVars) GetDataFolder() string {
	return e.DataFolder
}

func (e *EnvVars) GetCredentialsPassphrase() string {
	return e.Passphrase
}

func (e *EnvVars) GetAppName() string {
	return e.AppName
}

func (e *EnvVars) GetEnv() string {
	return e.Env
}

func defaultDataFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".wallet-client")
}
