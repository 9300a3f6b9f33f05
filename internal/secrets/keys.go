package secrets

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

// ExportPublicKey encodes a public key as base64 of its DER SubjectPublicKeyInfo.
func ExportPublicKey(publicKey *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ExportPrivateKey encodes a private key as base64 of its DER PKCS#8 structure.
func ExportPrivateKey(privateKey *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ImportPublicKey decodes a public key produced by ExportPublicKey.
// PEM "PUBLIC KEY" and "RSA PUBLIC KEY" blocks are also accepted.
func ImportPublicKey(encoded string) (*rsa.PublicKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty key", kerrors.ErrInvalidPublicKey)
	}

	if strings.HasPrefix(encoded, "-----BEGIN") {
		return parsePublicKeyPEM([]byte(encoded))
	}

	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPublicKey, err)
	}
	return parsePublicKeyDER(der, true)
}

func parsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", kerrors.ErrInvalidPublicKey)
	}

	switch block.Type {
	case "PUBLIC KEY":
		return parsePublicKeyDER(block.Bytes, false)
	case "RSA PUBLIC KEY":
		rsaKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS1 RSA public key: %v", kerrors.ErrInvalidPublicKey, err)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %s", kerrors.ErrInvalidPublicKey, block.Type)
	}
}

func parsePublicKeyDER(der []byte, allowPKCS1 bool) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		if allowPKCS1 {
			if rsaKey, pkcs1Err := x509.ParsePKCS1PublicKey(der); pkcs1Err == nil {
				return rsaKey, nil
			}
		}
		return nil, fmt.Errorf("%w: failed to parse PKIX public key: %v", kerrors.ErrInvalidPublicKey, err)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not an RSA public key, got %T", kerrors.ErrInvalidPublicKey, pub)
	}
	return rsaKey, nil
}

// ImportPrivateKey decodes a private key produced by ExportPrivateKey.
// PEM PKCS#1, PEM PKCS#8 and unencrypted OpenSSH RSA keys are also accepted.
func ImportPrivateKey(encoded string) (*rsa.PrivateKey, error) {
	return ImportPrivateKeyWithPassphrase(encoded, nil)
}

// ImportPrivateKeyWithPassphrase is ImportPrivateKey for keys that may be
// passphrase protected OpenSSH keys. Returns ErrPassphraseRequired when the
// key is protected and passphrase is nil.
func ImportPrivateKeyWithPassphrase(encoded string, passphrase []byte) (*rsa.PrivateKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty key", kerrors.ErrInvalidPrivateKey)
	}

	if strings.HasPrefix(encoded, "-----BEGIN") {
		return parsePrivateKeyPEM([]byte(encoded), passphrase)
	}

	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	return parsePrivateKeyDER(der)
}

func parsePrivateKeyPEM(data []byte, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", kerrors.ErrInvalidPrivateKey)
	}

	switch block.Type {
	case "OPENSSH PRIVATE KEY":
		return parseOpenSSHPrivateKey(data, passphrase)
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
		}
		return key, nil
	case "PRIVATE KEY":
		return parsePrivateKeyDER(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %s", kerrors.ErrInvalidPrivateKey, block.Type)
	}
}

func parsePrivateKeyDER(der []byte) (*rsa.PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		if key, pkcs1Err := x509.ParsePKCS1PrivateKey(der); pkcs1Err == nil {
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: key is not an RSA private key, got %T", kerrors.ErrInvalidPrivateKey, parsed)
	}
	return key, nil
}

// parseOpenSSHPrivateKey parses an OpenSSH format RSA private key.
func parseOpenSSHPrivateKey(data []byte, passphrase []byte) (*rsa.PrivateKey, error) {
	var (
		raw interface{}
		err error
	)
	if len(passphrase) == 0 {
		raw, err = ssh.ParseRawPrivateKey(data)
	} else {
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
		if err != nil {
			// A passphrase supplied for an unencrypted key is ignored.
			if plain, plainErr := ssh.ParseRawPrivateKey(data); plainErr == nil {
				raw, err = plain, nil
			}
		}
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, kerrors.ErrPassphraseRequired
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}

	key, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported OpenSSH key type %T (only RSA keys are supported)", kerrors.ErrInvalidPrivateKey, raw)
	}
	return key, nil
}

// Fingerprint returns the OpenSSH style SHA256 fingerprint of a public key.
func Fingerprint(publicKey *rsa.PublicKey) (string, error) {
	sshKey, err := ssh.NewPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to convert public key: %w", err)
	}
	return ssh.FingerprintSHA256(sshKey), nil
}

// SamePublicKey reports whether two exported public keys hold the same key material,
// regardless of which accepted encoding each one uses.
func SamePublicKey(a, b string) bool {
	keyA, err := ImportPublicKey(a)
	if err != nil {
		return false
	}
	keyB, err := ImportPublicKey(b)
	if err != nil {
		return false
	}
	return keyA.Equal(keyB)
}
