package secrets

import (
	"context"
	"fmt"
	"sync"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

// Compile-time check that FakeDirectory implements PublicKeyDirectory
var _ PublicKeyDirectory = (*FakeDirectory)(nil)

// FakeDirectory is an in-memory PublicKeyDirectory for testing.
type FakeDirectory struct {
	mu   sync.Mutex
	keys map[string]string

	// Err is returned by every PublicKey call when set.
	Err error

	// PublishErr is returned by every PublishPublicKey call when set.
	PublishErr error

	// PublicKeyCalls tracks how many times PublicKey was called
	PublicKeyCalls int

	// PublishCalls tracks how many times PublishPublicKey was called
	PublishCalls int
}

// NewFakeDirectory creates an empty fake directory.
func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{keys: make(map[string]string)}
}

func (f *FakeDirectory) PublicKey(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PublicKeyCalls++
	if f.Err != nil {
		return "", f.Err
	}
	key, ok := f.keys[userID]
	if !ok {
		return "", fmt.Errorf("%w: %s", kerrors.ErrPublicKeyNotFound, userID)
	}
	return key, nil
}

func (f *FakeDirectory) PublishPublicKey(ctx context.Context, userID string, publicKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PublishCalls++
	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.set(userID, publicKey)
	return nil
}

// Set stores a key without counting a publish.
func (f *FakeDirectory) Set(userID, publicKey string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(userID, publicKey)
}

func (f *FakeDirectory) set(userID, publicKey string) {
	if f.keys == nil {
		f.keys = make(map[string]string)
	}
	f.keys[userID] = publicKey
}
