// Package workflows provides high-level orchestration for hush commands.
//
// Workflows coordinate the configs, secrets and audit packages to implement
// complete user-facing features. Each workflow handles one command's business
// logic, independent of CLI concerns like flag parsing, spinners, and output
// formatting, so a messaging client can call the same functions.
//
// # Environment
//
// An Environment carries the local user's config together with the key
// manager, envelope codec and public key directory built from it:
//
//	env, err := workflows.NewEnvironment(log)
//	env.Keys.ConfirmRegenerate = promptUser
//
// Tests build one with NewEnvironmentWith and in-memory collaborators.
//
// # Available Workflows
//
//   - EnsureKeys: Generates, loads or self-heals the user's key pair
//   - KeyStatus: Reports the key lifecycle state
//   - ImportKey, ExportPublicKey: Move existing keys in and out
//   - Send: Encrypts a message for several recipients
//   - SendDirect: Encrypts a one-to-one message, falling back to plaintext
//   - Read, ReadFiles: Open envelopes for the local user
//   - Log: Reads the audit trail
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package. Use
// errors.Is() to check for specific error conditions:
//
//	result, err := workflows.EnsureKeys(ctx, env)
//	if errors.Is(err, kerrors.ErrRegenerateDeclined) {
//	    // Show user-friendly message
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// It is passed to key store and directory I/O. Cryptographic operations are
// not cancellable.
package workflows
