package errors

import "errors"

// Key errors indicate the acting identity lacks usable key material.
var (
	// ErrPrivateKeyNotFound indicates the user's private key could not be located in the local store.
	ErrPrivateKeyNotFound = errors.New("private key not found")

	// ErrPublicKeyNotFound indicates no public key has been published for a user.
	ErrPublicKeyNotFound = errors.New("public key not found")

	// ErrInvalidPrivateKey indicates the private key is malformed or unsupported.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")

	// ErrInvalidPublicKey indicates the public key is malformed or unsupported.
	ErrInvalidPublicKey = errors.New("invalid or unsupported public key format")

	// ErrKeyTooSmall indicates an RSA key below the minimum accepted size.
	ErrKeyTooSmall = errors.New("RSA key is too small")

	// ErrPassphraseRequired indicates an OpenSSH private key is passphrase protected.
	ErrPassphraseRequired = errors.New("private key is passphrase protected")

	// ErrRegenerateDeclined indicates the user refused to replace an already published key pair.
	ErrRegenerateDeclined = errors.New("key regeneration declined")
)

// Cryptographic errors indicate failures during encryption or decryption operations.
var (
	// ErrEncryptFailed indicates the message body could not be encrypted.
	ErrEncryptFailed = errors.New("failed to encrypt message")

	// ErrNotAnEnvelope indicates the input is not a parseable envelope.
	ErrNotAnEnvelope = errors.New("input is not an encrypted envelope")

	// ErrNotAddressed indicates the envelope carries no wrapped key for the reader.
	ErrNotAddressed = errors.New("envelope is not addressed to this identity")

	// ErrKeyUnwrapFailed indicates the wrapped content key could not be recovered.
	ErrKeyUnwrapFailed = errors.New("failed to unwrap content key")

	// ErrDecryptFailed indicates authentication of the message body failed.
	ErrDecryptFailed = errors.New("failed to decrypt message")
)

// Configuration and collaborator errors.
var (
	// ErrUserNotConfigured indicates the local user identity has not been initialised.
	ErrUserNotConfigured = errors.New("user identity has not been configured")

	// ErrInvalidUserID indicates a user id cannot be used as a path segment.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrDirectoryUnavailable indicates the public key directory could not be reached.
	ErrDirectoryUnavailable = errors.New("public key directory unavailable")
)

// File errors indicate issues with file discovery or access.
var (
	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFileType indicates the file is not of the expected type.
	ErrInvalidFileType = errors.New("invalid file type")
)

// Input errors.
var (
	// ErrInvalidDateFormat indicates a date filter is not in YYYY-MM-DD format.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidPartner indicates a direct message has no partner, or the partner is the sender.
	ErrInvalidPartner = errors.New("direct message needs a partner other than yourself")
)
