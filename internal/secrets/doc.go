// Package secrets provides the key lifecycle and message envelopes for hush.
//
// # Encryption Architecture
//
// hush uses a hybrid encryption scheme:
//
//  1. A random 256-bit content key encrypts the message once with AES-256-GCM
//  2. Each recipient's RSA public key wraps a copy of the content key (RSA-OAEP, SHA-256)
//  3. A recipient unwraps its copy with its private key, then decrypts the body
//
// The body is encrypted exactly once regardless of how many recipients an
// envelope has. Every envelope gets a fresh content key and a fresh 12-byte
// nonce.
//
// # Envelope Format
//
//	{
//	  "encryptedKeys": {"<userId>": "<base64 wrapped key>", ...},
//	  "iv": "<base64 nonce>",
//	  "ciphertext": "<base64 ciphertext and tag>"
//	}
//
// Envelopes written by older clients carry a single "encryptedKey" instead of
// the map. Those are still accepted by Codec.Open.
//
// # Key Management
//
// KeyManager.EnsureKeys keeps each user in a usable state:
//   - Private keys are stored locally by a PrivateKeyStore, never transmitted
//   - Public keys are published to a PublicKeyDirectory for other users to read
//
// A user whose local private key is lost while a public key is still
// published gets a new key pair. Nothing escrows private keys, so messages
// encrypted to the old key become permanently unreadable.
//
// # Key Encodings
//
// Public keys are exchanged as base64 DER SubjectPublicKeyInfo and private
// keys are stored as base64 DER PKCS#8. Import also accepts PEM keys and
// OpenSSH RSA private keys.
//
// # Security Considerations
//
// Private key files are written with 0600 permissions. The FileKeyStore warns
// when an existing key file is more permissive but still reads it.
package secrets
