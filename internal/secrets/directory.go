package secrets

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
	"github.com/PolarWolf314/hush/internal/utils"
)

// PublicKeyDirectory is the user-profile store holding each user's published
// public key. Any party may read a key; only its owner publishes it.
type PublicKeyDirectory interface {
	// PublicKey returns the exported public key for userID, or an error
	// wrapping ErrPublicKeyNotFound if the user has none.
	PublicKey(ctx context.Context, userID string) (string, error)

	// PublishPublicKey sets userID's public key, replacing any existing one.
	PublishPublicKey(ctx context.Context, userID string, publicKey string) error
}

// ResolveRecipients looks up the public key of every id. Ids without a
// published key are returned in missing; any other directory failure aborts.
// Duplicate and blank ids are ignored.
func ResolveRecipients(ctx context.Context, directory PublicKeyDirectory, ids []string) (map[string]string, []string, error) {
	resolved := make(map[string]string)
	var missing []string

	for _, id := range utils.NormalizeIDs(ids) {
		publicKey, err := directory.PublicKey(ctx, id)
		if err != nil {
			if errors.Is(err, kerrors.ErrPublicKeyNotFound) {
				missing = append(missing, id)
				continue
			}
			return nil, nil, fmt.Errorf("resolving public key for %s: %w", id, err)
		}
		resolved[id] = publicKey
	}

	return resolved, missing, nil
}
