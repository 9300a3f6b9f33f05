package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

const (
	// SymmetricKeySize is the AES-256 content key size in bytes.
	SymmetricKeySize = 32

	// NonceSize is the AES-GCM nonce size in bytes. A fresh content key is
	// generated for every envelope, so a random 96-bit nonce is never reused
	// under the same key.
	NonceSize = 12

	// MinRSAKeySize is the smallest RSA modulus, in bits, accepted for wrapping.
	MinRSAKeySize = 2048
)

// CryptoProvider is the primitive set the key manager and envelope codec are built on.
type CryptoProvider interface {
	// GenerateKeyPair creates a new asymmetric key pair.
	GenerateKeyPair() (*rsa.PrivateKey, error)

	// WrapKey encrypts a raw symmetric key to a recipient's public key.
	WrapKey(publicKey *rsa.PublicKey, key []byte) ([]byte, error)

	// UnwrapKey recovers a raw symmetric key with the recipient's private key.
	UnwrapKey(privateKey *rsa.PrivateKey, wrapped []byte) ([]byte, error)

	// SymmetricEncrypt seals plaintext with an authenticated cipher.
	SymmetricEncrypt(key, nonce, plaintext []byte) ([]byte, error)

	// SymmetricDecrypt opens and authenticates ciphertext.
	SymmetricDecrypt(key, nonce, ciphertext []byte) ([]byte, error)

	// RandomBytes returns n bytes from a cryptographically secure source.
	RandomBytes(n int) ([]byte, error)
}

// Compile-time check that NativeProvider implements CryptoProvider
var _ CryptoProvider = (*NativeProvider)(nil)

// NativeProvider implements CryptoProvider with RSA-OAEP (SHA-256) key wrapping
// and AES-256-GCM content encryption from the Go standard library.
type NativeProvider struct {
	bits int
	rand io.Reader
}

// NewNativeProvider returns a provider generating RSA keys of the given size.
// Sizes below MinRSAKeySize are raised to MinRSAKeySize.
func NewNativeProvider(bits int) *NativeProvider {
	if bits < MinRSAKeySize {
		bits = MinRSAKeySize
	}
	return &NativeProvider{bits: bits, rand: rand.Reader}
}

func (p *NativeProvider) GenerateKeyPair() (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(p.rand, p.bits)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	return privateKey, nil
}

func (p *NativeProvider) WrapKey(publicKey *rsa.PublicKey, key []byte) ([]byte, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("%w: RSA public key cannot be nil", kerrors.ErrInvalidPublicKey)
	}
	if size := publicKey.N.BitLen(); size < MinRSAKeySize {
		return nil, fmt.Errorf("%w: must be at least %d bits, got %d bits", kerrors.ErrKeyTooSmall, MinRSAKeySize, size)
	}
	return rsa.EncryptOAEP(sha256.New(), p.rand, publicKey, key, nil)
}

func (p *NativeProvider) UnwrapKey(privateKey *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, kerrors.ErrPrivateKeyNotFound
	}
	return rsa.DecryptOAEP(sha256.New(), p.rand, privateKey, wrapped, nil)
}

func (p *NativeProvider) SymmetricEncrypt(key, nonce, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

func (p *NativeProvider) SymmetricDecrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func (p *NativeProvider) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.rand, buf); err != nil {
		return nil, fmt.Errorf("reading random bytes: %w", err)
	}
	return buf, nil
}

func newGCM(key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("invalid symmetric key length: expected %d bytes, got %d bytes", SymmetricKeySize, len(key))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("invalid nonce length: expected %d bytes, got %d bytes", NonceSize, len(nonce))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return gcm, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
