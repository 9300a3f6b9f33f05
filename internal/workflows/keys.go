package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/hush/internal/audit"
	kerrors "github.com/PolarWolf314/hush/internal/errors"
	"github.com/PolarWolf314/hush/internal/secrets"
)

// KeysResult contains the outcome of a key lifecycle operation.
type KeysResult struct {
	// UserID is the identity the keys belong to.
	UserID string

	// Outcome reports whether keys were loaded, generated, regenerated or imported.
	Outcome secrets.KeyOutcome

	// Fingerprint is the SHA256 fingerprint of the public key.
	Fingerprint string

	// PublicKey is the exported public key.
	PublicKey string

	// Published reports whether the public key was written to the directory.
	Published bool
}

// EnsureKeys makes sure the local user has a usable key pair, generating or
// regenerating one as needed. env.Keys.ConfirmRegenerate is consulted before
// a published key pair is replaced.
//
// Returns ErrRegenerateDeclined if the confirmation hook refuses.
// Returns ErrDirectoryUnavailable if the public key directory cannot be reached.
func EnsureKeys(ctx context.Context, env *Environment) (*KeysResult, error) {
	state, err := env.Keys.EnsureKeys(ctx, env.UserID())
	if err != nil {
		return nil, err
	}

	result, err := keysResult(state)
	if err != nil {
		return nil, err
	}

	var op string
	switch {
	case state.Outcome == secrets.KeysGenerated:
		op = audit.OpKeysGenerate
	case state.Outcome == secrets.KeysRegenerated:
		op = audit.OpKeysSelfHeal
	case state.Published:
		op = audit.OpKeysPublish
	}
	if op != "" {
		logKeysEvent(op, result)
	}

	return result, nil
}

// ImportKeyOptions configures the import workflow.
type ImportKeyOptions struct {
	// KeyData is the private key in any supported encoding.
	KeyData []byte

	// Passphrase unlocks a protected OpenSSH key. May be nil.
	Passphrase []byte
}

// ImportKey installs an existing private key for the local user and publishes
// its public half.
//
// Returns ErrPassphraseRequired if the key is protected and no passphrase was given.
// Returns ErrInvalidPrivateKey if the key cannot be parsed.
// Returns ErrKeyTooSmall if the key is below the minimum size.
func ImportKey(ctx context.Context, env *Environment, opts ImportKeyOptions) (*KeysResult, error) {
	state, err := env.Keys.Import(ctx, env.UserID(), string(opts.KeyData), opts.Passphrase)
	if err != nil {
		return nil, err
	}

	result, err := keysResult(state)
	if err != nil {
		return nil, err
	}

	logKeysEvent(audit.OpKeysImport, result)
	return result, nil
}

// KeyStatusResult describes where the local user is in the key lifecycle.
type KeyStatusResult struct {
	UserID string
	Status secrets.KeyStatus

	// LocalFingerprint is the fingerprint of the local private key's public half, if any.
	LocalFingerprint string

	// PublishedFingerprint is the fingerprint of the published public key, if any.
	PublishedFingerprint string
}

// KeyStatus reports the local user's key state without changing anything.
func KeyStatus(ctx context.Context, env *Environment) (*KeyStatusResult, error) {
	userID := env.UserID()

	status, err := env.Keys.Status(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &KeyStatusResult{UserID: userID, Status: status}

	if privateKey, err := env.Keys.PrivateKey(ctx, userID); err == nil {
		fingerprint, err := secrets.Fingerprint(&privateKey.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("fingerprinting local key: %w", err)
		}
		result.LocalFingerprint = fingerprint
	}

	published, err := env.Directory.PublicKey(ctx, userID)
	if err == nil {
		publicKey, err := secrets.ImportPublicKey(published)
		if err != nil {
			env.Log.Debugf("Published key for %s is unusable, no fingerprint shown: %v", userID, err)
		} else {
			fingerprint, err := secrets.Fingerprint(publicKey)
			if err != nil {
				return nil, fmt.Errorf("fingerprinting published key: %w", err)
			}
			result.PublishedFingerprint = fingerprint
		}
	} else if !errors.Is(err, kerrors.ErrPublicKeyNotFound) {
		return nil, fmt.Errorf("looking up published key: %w", err)
	}

	return result, nil
}

// ExportPublicKey returns the local user's exported public key.
//
// Returns ErrPrivateKeyNotFound if the user has no local key pair.
func ExportPublicKey(ctx context.Context, env *Environment) (*KeysResult, error) {
	privateKey, err := env.Keys.PrivateKey(ctx, env.UserID())
	if err != nil {
		return nil, err
	}

	return keysResult(&secrets.KeyState{
		UserID:     env.UserID(),
		PrivateKey: privateKey,
		Outcome:    secrets.KeysLoaded,
	})
}

func keysResult(state *secrets.KeyState) (*KeysResult, error) {
	publicKey := state.PublicKey
	if publicKey == "" {
		exported, err := secrets.ExportPublicKey(&state.PrivateKey.PublicKey)
		if err != nil {
			return nil, err
		}
		publicKey = exported
	}

	fingerprint, err := secrets.Fingerprint(&state.PrivateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KeysResult{
		UserID:      state.UserID,
		Outcome:     state.Outcome,
		Fingerprint: fingerprint,
		PublicKey:   publicKey,
		Published:   state.Published,
	}, nil
}

func logKeysEvent(op string, result *KeysResult) {
	entry := audit.LogWithUser(op)
	entry.UserID = result.UserID
	entry.Outcome = result.Outcome.String()
	entry.Fingerprint = result.Fingerprint
	audit.Log(entry)
}
