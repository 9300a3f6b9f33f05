package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
	logger "github.com/PolarWolf314/hush/internal/logging"
)

// PrivateKeyStore persists exported private keys locally, one per user id.
// Keys never leave the store except to be imported in process.
type PrivateKeyStore interface {
	// Load returns the exported private key for userID, or an error wrapping
	// ErrPrivateKeyNotFound if none is stored.
	Load(ctx context.Context, userID string) (string, error)

	// Save stores the exported private key for userID, replacing any existing one.
	Save(ctx context.Context, userID string, privateKey string) error

	// Delete removes the stored key for userID. Deleting a missing key is not an error.
	Delete(ctx context.Context, userID string) error
}

// privateKeyExtension is the file suffix for stored private keys.
const privateKeyExtension = ".key"

// FileKeyStore stores each private key in its own 0600 file under Dir.
type FileKeyStore struct {
	Dir string
	Log logger.Logger
}

// NewFileKeyStore returns a store rooted at dir.
func NewFileKeyStore(dir string, log logger.Logger) *FileKeyStore {
	return &FileKeyStore{Dir: dir, Log: log}
}

// KeyPath returns the file holding userID's private key.
func (s *FileKeyStore) KeyPath(userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, userID+privateKeyExtension), nil
}

func (s *FileKeyStore) Load(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.KeyPath(userID)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", kerrors.ErrPrivateKeyNotFound, userID)
		}
		return "", fmt.Errorf("failed to stat private key at %s: %w", path, err)
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		s.Log.Warnf("Private key %s has permissions %04o, expected 0600", path, mode)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read private key at %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileKeyStore) Save(ctx context.Context, userID string, privateKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.KeyPath(userID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory %s: %w", s.Dir, err)
	}

	// Write to a temp file in the same directory and rename over the
	// destination so a crash never leaves a truncated key behind.
	tmp, err := os.CreateTemp(s.Dir, "."+userID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary key file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set key file permissions: %w", err)
	}
	if _, err := tmp.WriteString(privateKey + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close private key file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to save private key to %s: %w", path, err)
	}

	s.Log.Debugf("Saved private key for %s to %s", userID, path)
	return nil
}

func (s *FileKeyStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.KeyPath(userID)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete private key at %s: %w", path, err)
	}
	return nil
}

func validateUserID(userID string) error {
	if userID == "" {
		return kerrors.ErrUserNotConfigured
	}
	if userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) || strings.ContainsRune(userID, 0) {
		return fmt.Errorf("%w %q", kerrors.ErrInvalidUserID, userID)
	}
	return nil
}

// MemoryKeyStore is an in-memory PrivateKeyStore for tests and ephemeral sessions.
type MemoryKeyStore struct {
	mu   sync.Mutex
	keys map[string]string

	// LoadErr, when set, is returned by every Load call.
	LoadErr error
	// SaveErr, when set, is returned by every Save call.
	SaveErr error

	Saves int
}

// NewMemoryKeyStore returns an empty store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]string)}
}

func (s *MemoryKeyStore) Load(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.LoadErr != nil {
		return "", s.LoadErr
	}
	key, ok := s.keys[userID]
	if !ok {
		return "", fmt.Errorf("%w: %s", kerrors.ErrPrivateKeyNotFound, userID)
	}
	return key, nil
}

func (s *MemoryKeyStore) Save(ctx context.Context, userID string, privateKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	if s.keys == nil {
		s.keys = make(map[string]string)
	}
	s.keys[userID] = privateKey
	s.Saves++
	return nil
}

func (s *MemoryKeyStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, userID)
	return nil
}
