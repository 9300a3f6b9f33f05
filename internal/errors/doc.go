// Package errors provides typed error values for hush.
//
// Sentinel errors let callers branch on a failure with errors.Is() rather
// than string matching.
//
// # Error Categories
//
//   - Key errors: missing or unusable key material (ErrPrivateKeyNotFound, ErrInvalidPublicKey)
//   - Crypto errors: envelope failures (ErrNotAnEnvelope, ErrNotAddressed, ErrDecryptFailed)
//   - Configuration errors: local identity and directory issues (ErrUserNotConfigured)
//   - File errors: envelope file discovery (ErrNoFilesFound, ErrFileNotFound)
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("loading key for user %s: %w", userID, errors.ErrPrivateKeyNotFound)
//
// Handle them in the CLI layer:
//
//	state, err := workflows.EnsureKeys(ctx, opts)
//	if errors.Is(err, kerrors.ErrRegenerateDeclined) {
//	    // Show user-friendly message
//	}
package errors
