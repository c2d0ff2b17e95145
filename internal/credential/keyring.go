// Package credential keeps secrets such as the Postgres DSN in the OS
// keyring instead of the config file.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/nhle/planner/internal/model"
)

const serviceName = "planner"

// DatabaseDSN is the keyring entry holding the Postgres connection string.
const DatabaseDSN = "database-dsn"

// ErrNoDSN is returned when postgres is selected but no DSN is configured
// in the config file or the keyring.
var ErrNoDSN = errors.New("no postgres dsn configured")

// Vault reads and writes secrets in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// NewVault wraps an already opened keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Open opens the system keyring, falling back to an encrypted file under
// ~/.config/planner/credentials.
func Open() (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/planner/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("planner-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewVault(ring), nil
}

// Get retrieves a secret by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a secret by key.
func (v *Vault) Set(key, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "planner " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a secret by key.
func (v *Vault) Delete(key string) error {
	if err := v.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// ResolveDSN fills cfg.DSN from the vault when the postgres driver is
// selected and the config leaves it empty. Other drivers pass through.
func ResolveDSN(cfg model.DatabaseConfig, v *Vault) (model.DatabaseConfig, error) {
	if cfg.Driver != "postgres" || cfg.DSN != "" {
		return cfg, nil
	}
	if v == nil {
		return cfg, ErrNoDSN
	}

	dsn, err := v.Get(DatabaseDSN)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return cfg, ErrNoDSN
	}
	if err != nil {
		return cfg, err
	}
	cfg.DSN = dsn
	return cfg, nil
}
