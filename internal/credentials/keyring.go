package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const keyringService = "scheduleai"

// KeyringStore keeps credential records in the OS keychain. The secret
// payload is the same versioned JSON record the file store uses.
type KeyringStore struct{}

// NewKeyringStore creates a keychain-backed store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// KeyringAvailable probes whether an OS keychain is usable in this
// environment (headless hosts and containers typically have none).
func KeyringAvailable() bool {
	const testKey = "scheduleai::probe"
	if err := keyring.Set(keyringService, testKey, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}

func keyringKey(userID string) string {
	return fmt.Sprintf("scheduleai::%s", UserKey(userID))
}

// Load reads the user's record from the keychain.
func (s *KeyringStore) Load(userID string) (*Record, error) {
	secret, err := keyring.Get(keyringService, keyringKey(userID))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential from keyring: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(secret), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode credential record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save writes the user's record to the keychain.
func (s *KeyringStore) Save(userID string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode credential record: %w", err)
	}
	if err := keyring.Set(keyringService, keyringKey(userID), string(data)); err != nil {
		return fmt.Errorf("failed to write credential to keyring: %w", err)
	}
	return nil
}

// Delete removes the user's record from the keychain.
func (s *KeyringStore) Delete(userID string) (bool, error) {
	err := keyring.Delete(keyringService, keyringKey(userID))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete credential from keyring: %w", err)
	}
	return true, nil
}

// NewStore selects a store backend by name. When the keyring backend is
// requested but no keychain is usable, it falls back to the file store so
// credentials still land somewhere under the operator's control.
func NewStore(backend, dir string, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	if backend == "keyring" {
		if KeyringAvailable() {
			return NewKeyringStore()
		}
		logger.Warn("system keyring unavailable, falling back to file store", "dir", dir)
	}
	return NewFileStore(dir)
}
