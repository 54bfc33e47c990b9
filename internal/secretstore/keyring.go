package secretstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/mkalvans/passvault/internal/common"
)

// KeyringStore keeps secrets in the OS credential store (Keychain on macOS,
// Credential Manager on Windows, Secret Service on Linux). All entries are
// namespaced under the client identity used as the keyring service name.
type KeyringStore struct {
	client string
}

// NewKeyringStore returns a store bound to the given client identity.
func NewKeyringStore(client string) *KeyringStore {
	return &KeyringStore{client: client}
}

func (s *KeyringStore) Get(name string) (string, error) {
	value, err := keyring.Get(s.client, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("failed to get secret %q: %w", name, err)
	}
	return value, nil
}

func (s *KeyringStore) Set(name string, value string) error {
	if err := keyring.Set(s.client, name, value); err != nil {
		return fmt.Errorf("failed to set secret %q: %w", name, err)
	}
	return nil
}

func (s *KeyringStore) Delete(name string) error {
	if err := keyring.Delete(s.client, name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("failed to delete secret %q: %w", name, err)
	}
	return nil
}
