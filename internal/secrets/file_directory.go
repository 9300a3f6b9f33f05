package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/PolarWolf314/hush/internal/configs"
	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

// Compile-time check that FileDirectory implements PublicKeyDirectory
var _ PublicKeyDirectory = (*FileDirectory)(nil)

// FileDirectory is a PublicKeyDirectory backed by a TOML file, for single
// machine setups and shared network drives.
//
//	[users.<id>]
//	public_key = "MIIBIjAN..."
//	updated_at = 2024-05-01T12:00:00Z
type FileDirectory struct {
	Path string

	mu sync.Mutex
}

type directoryFile struct {
	Users map[string]directoryEntry `toml:"users"`
}

type directoryEntry struct {
	PublicKey string    `toml:"public_key"`
	UpdatedAt time.Time `toml:"updated_at"`
}

// NewFileDirectory returns a directory stored at path. The file is created on
// the first publish.
func NewFileDirectory(path string) *FileDirectory {
	return &FileDirectory{Path: path}
}

func (d *FileDirectory) PublicKey(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.load()
	if err != nil {
		return "", err
	}

	entry, ok := file.Users[userID]
	if !ok || entry.PublicKey == "" {
		return "", fmt.Errorf("%w: %s", kerrors.ErrPublicKeyNotFound, userID)
	}
	return entry.PublicKey, nil
}

func (d *FileDirectory) PublishPublicKey(ctx context.Context, userID string, publicKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" {
		return kerrors.ErrUserNotConfigured
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.load()
	if err != nil {
		return err
	}

	file.Users[userID] = directoryEntry{
		PublicKey: publicKey,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := configs.SaveTOML(d.Path, file); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", kerrors.ErrDirectoryUnavailable, d.Path, err)
	}
	return nil
}

// UpdatedAt returns when userID's key was last published.
func (d *FileDirectory) UpdatedAt(userID string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.load()
	if err != nil {
		return time.Time{}, false
	}
	entry, ok := file.Users[userID]
	return entry.UpdatedAt, ok
}

func (d *FileDirectory) load() (*directoryFile, error) {
	file := &directoryFile{}
	if err := configs.LoadTOML(d.Path, file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to read %s: %v", kerrors.ErrDirectoryUnavailable, d.Path, err)
	}
	if file.Users == nil {
		file.Users = make(map[string]directoryEntry)
	}
	return file, nil
}
