package secrets

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"sync"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
	logger "github.com/PolarWolf314/hush/internal/logging"
)

// KeyOutcome reports what EnsureKeys or Import did to produce a key pair.
type KeyOutcome int

const (
	// KeysLoaded means an existing local private key was used.
	KeysLoaded KeyOutcome = iota

	// KeysGenerated means the user had no key material and a first key pair was created.
	KeysGenerated

	// KeysRegenerated means the local private key was lost while a public key
	// was still published, and a new pair replaced it. Envelopes addressed to
	// the previous key can no longer be opened.
	KeysRegenerated

	// KeysImported means an existing private key was imported and its public half published.
	KeysImported
)

func (o KeyOutcome) String() string {
	switch o {
	case KeysLoaded:
		return "loaded"
	case KeysGenerated:
		return "generated"
	case KeysRegenerated:
		return "regenerated"
	case KeysImported:
		return "imported"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// KeyState is a usable key pair for one user.
type KeyState struct {
	UserID     string
	PrivateKey *rsa.PrivateKey

	// PublicKey is the exported public key.
	PublicKey string

	Outcome KeyOutcome

	// Published reports whether this call wrote the public key to the directory.
	Published bool
}

// KeyStatus is a user's position in the key lifecycle.
type KeyStatus int

const (
	// NoKey means neither a local private key nor a published public key exists.
	NoKey KeyStatus = iota

	// HasKey means the local private key matches the published public key.
	HasKey

	// HasKeyStale means a public key is published but the local private key is missing or unreadable.
	HasKeyStale

	// Unpublished means a local private key exists but no public key is published.
	Unpublished

	// Mismatch means the published public key does not belong to the local private key.
	Mismatch
)

func (s KeyStatus) String() string {
	switch s {
	case NoKey:
		return "no-key"
	case HasKey:
		return "has-key"
	case HasKeyStale:
		return "has-key-stale"
	case Unpublished:
		return "unpublished"
	case Mismatch:
		return "mismatch"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// KeyManager generates, stores and publishes user key pairs.
//
// Private keys live only in Store. There is no escrow: losing a private key
// makes every envelope addressed to it permanently unreadable, and the next
// EnsureKeys replaces the pair.
type KeyManager struct {
	Store     PrivateKeyStore
	Directory PublicKeyDirectory
	Provider  CryptoProvider
	Log       logger.Logger

	// ConfirmRegenerate, if set, is asked before a published key pair is
	// replaced. Returning false makes EnsureKeys fail with ErrRegenerateDeclined.
	ConfirmRegenerate func(userID string) bool

	mu sync.Mutex
}

// NewKeyManager returns a manager. A nil provider selects the native provider
// with default key size.
func NewKeyManager(store PrivateKeyStore, directory PublicKeyDirectory, provider CryptoProvider, log logger.Logger) *KeyManager {
	if provider == nil {
		provider = NewNativeProvider(MinRSAKeySize)
	}
	return &KeyManager{
		Store:     store,
		Directory: directory,
		Provider:  provider,
		Log:       log,
	}
}

// EnsureKeys returns a usable key pair for userID, creating one if needed:
//
//  1. A readable local private key is used as is. If the directory has no
//     public key for the user, the matching one is published.
//  2. With no readable local key but a published public key, a new pair is
//     generated and replaces the published key.
//  3. With neither, a first pair is generated and published.
//
// The public key is always published before the private key is stored, so a
// failed publish leaves the user in a state the next call repairs.
func (m *KeyManager) EnsureKeys(ctx context.Context, userID string) (*KeyState, error) {
	if userID == "" {
		return nil, kerrors.ErrUserNotConfigured
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	privateKey, err := m.loadPrivateKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	if privateKey != nil {
		return m.useExisting(ctx, userID, privateKey)
	}

	published, err := m.publishedKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	if published == "" {
		m.Log.Infof("No key material found for %s, generating a new key pair", userID)
		return m.generate(ctx, userID, KeysGenerated)
	}

	if m.ConfirmRegenerate != nil && !m.ConfirmRegenerate(userID) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrRegenerateDeclined, userID)
	}

	m.Log.Warnf("Private key for %s is missing, regenerating. Messages encrypted to the previous key can no longer be read.", userID)
	return m.generate(ctx, userID, KeysRegenerated)
}

func (m *KeyManager) useExisting(ctx context.Context, userID string, privateKey *rsa.PrivateKey) (*KeyState, error) {
	publicKey, err := ExportPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	state := &KeyState{
		UserID:     userID,
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		Outcome:    KeysLoaded,
	}

	published, err := m.publishedKey(ctx, userID)
	if err != nil {
		// The local key is still usable for reading and sending.
		m.Log.Warnf("Could not check published key for %s: %v", userID, err)
		return state, nil
	}

	switch {
	case published == "":
		m.Log.Infof("Publishing public key for %s", userID)
		if err := m.Directory.PublishPublicKey(ctx, userID, publicKey); err != nil {
			return nil, fmt.Errorf("publishing public key for %s: %w", userID, err)
		}
		state.Published = true
	case !SamePublicKey(published, publicKey):
		m.Log.Warnf("Published public key for %s does not match the local private key", userID)
	default:
		m.Log.Debugf("Using existing key pair for %s", userID)
	}

	return state, nil
}

func (m *KeyManager) generate(ctx context.Context, userID string, outcome KeyOutcome) (*KeyState, error) {
	privateKey, err := m.Provider.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating key pair for %s: %w", userID, err)
	}

	state, err := m.install(ctx, userID, privateKey)
	if err != nil {
		return nil, err
	}
	state.Outcome = outcome
	return state, nil
}

// install publishes the public half of privateKey, then stores the private key.
func (m *KeyManager) install(ctx context.Context, userID string, privateKey *rsa.PrivateKey) (*KeyState, error) {
	publicKey, err := ExportPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	encodedPrivate, err := ExportPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	if err := m.Directory.PublishPublicKey(ctx, userID, publicKey); err != nil {
		return nil, fmt.Errorf("publishing public key for %s: %w", userID, err)
	}
	if err := m.Store.Save(ctx, userID, encodedPrivate); err != nil {
		return nil, fmt.Errorf("saving private key for %s: %w", userID, err)
	}

	return &KeyState{
		UserID:     userID,
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		Published:  true,
	}, nil
}

// Import installs an existing private key for userID, replacing any local key
// and publishing its public half. passphrase is only used for protected
// OpenSSH keys and may be nil.
func (m *KeyManager) Import(ctx context.Context, userID string, encoded string, passphrase []byte) (*KeyState, error) {
	if userID == "" {
		return nil, kerrors.ErrUserNotConfigured
	}

	privateKey, err := ImportPrivateKeyWithPassphrase(encoded, passphrase)
	if err != nil {
		return nil, err
	}
	if size := privateKey.N.BitLen(); size < MinRSAKeySize {
		return nil, fmt.Errorf("%w: must be at least %d bits, got %d bits", kerrors.ErrKeyTooSmall, MinRSAKeySize, size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.install(ctx, userID, privateKey)
	if err != nil {
		return nil, err
	}
	state.Outcome = KeysImported
	return state, nil
}

// Status reports where userID is in the key lifecycle without changing anything.
func (m *KeyManager) Status(ctx context.Context, userID string) (KeyStatus, error) {
	if userID == "" {
		return NoKey, kerrors.ErrUserNotConfigured
	}

	privateKey, err := m.loadPrivateKey(ctx, userID)
	if err != nil {
		return NoKey, err
	}
	published, err := m.publishedKey(ctx, userID)
	if err != nil {
		return NoKey, err
	}

	switch {
	case privateKey == nil && published == "":
		return NoKey, nil
	case privateKey == nil:
		return HasKeyStale, nil
	case published == "":
		return Unpublished, nil
	}

	local, err := ExportPublicKey(&privateKey.PublicKey)
	if err != nil {
		return NoKey, err
	}
	if !SamePublicKey(published, local) {
		return Mismatch, nil
	}
	return HasKey, nil
}

// PrivateKey returns userID's stored private key without creating one.
func (m *KeyManager) PrivateKey(ctx context.Context, userID string) (*rsa.PrivateKey, error) {
	privateKey, err := m.loadPrivateKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	if privateKey == nil {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPrivateKeyNotFound, userID)
	}
	return privateKey, nil
}

// loadPrivateKey returns nil with no error when the key is absent, cannot be
// imported, or is smaller than MinRSAKeySize.
func (m *KeyManager) loadPrivateKey(ctx context.Context, userID string) (*rsa.PrivateKey, error) {
	encoded, err := m.Store.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, kerrors.ErrPrivateKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading private key for %s: %w", userID, err)
	}

	privateKey, err := ImportPrivateKey(encoded)
	if err != nil {
		m.Log.Warnf("Stored private key for %s is unreadable, treating it as missing: %v", userID, err)
		return nil, nil
	}
	if size := privateKey.N.BitLen(); size < MinRSAKeySize {
		m.Log.Warnf("Stored private key for %s is %d bits, below the %d bit minimum, treating it as missing", userID, size, MinRSAKeySize)
		return nil, nil
	}
	return privateKey, nil
}

// publishedKey returns "" with no error when the user has no published key.
func (m *KeyManager) publishedKey(ctx context.Context, userID string) (string, error) {
	published, err := m.Directory.PublicKey(ctx, userID)
	if err != nil {
		if errors.Is(err, kerrors.ErrPublicKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("looking up public key for %s: %w", userID, err)
	}
	return published, nil
}
