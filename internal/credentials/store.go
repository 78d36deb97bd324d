package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrNotFound is returned by Load when no record exists for the user.
var ErrNotFound = errors.New("credential not found")

// Store persists one credential record per user, keyed by the hashed user
// identifier. Delete reports whether a record existed.
type Store interface {
	Load(userID string) (*Record, error)
	Save(userID string, rec *Record) error
	Delete(userID string) (bool, error)
}

// lockTimeout is the maximum time to wait for the per-user file lock.
// If exceeded, operations proceed without locking (fail-open) rather than
// hanging a CLI invocation behind a crashed process.
const lockTimeout = 100 * time.Millisecond

// FileStore keeps one JSON record file per user under a base directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir. The directory is
// created lazily on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the store's base directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) recordPath(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("token_%s.json", UserKey(userID)))
}

func (s *FileStore) lockPath(userID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("token_%s.lock", UserKey(userID)))
}

// acquireLock obtains the per-user exclusive lock. Returns nil without error
// when the lock cannot be acquired within lockTimeout.
func (s *FileStore) acquireLock(userID string) (*flock.Flock, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}

	fl := flock.New(s.lockPath(userID))

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	return fl, nil
}

func releaseLock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}

// Load reads the user's record. Returns ErrNotFound when absent.
func (s *FileStore) Load(userID string) (*Record, error) {
	data, err := os.ReadFile(s.recordPath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode credential record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save writes the user's record atomically: the new content lands in a temp
// file first and replaces the old record with a rename, so a crashed write
// never corrupts the last-known-good record.
func (s *FileStore) Save(userID string, rec *Record) error {
	fl, err := s.acquireLock(userID)
	if err != nil {
		return fmt.Errorf("failed to lock credential record: %w", err)
	}
	defer releaseLock(fl)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential record: %w", err)
	}

	path := s.recordPath(userID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write credential record: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set record permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace credential record: %w", err)
	}
	return nil
}

// Delete removes the user's record. Returns false when no record existed.
func (s *FileStore) Delete(userID string) (bool, error) {
	fl, err := s.acquireLock(userID)
	if err != nil {
		return false, fmt.Errorf("failed to lock credential record: %w", err)
	}
	defer releaseLock(fl)

	err = os.Remove(s.recordPath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete credential record: %w", err)
	}
	return true, nil
}
