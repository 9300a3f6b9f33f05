package secrets

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
)

// Envelope is the wire form of an encrypted message. One nonce and one
// ciphertext body are shared by every recipient; each recipient gets its own
// wrapped copy of the content key.
type Envelope struct {
	EncryptedKeys map[string]string `json:"encryptedKeys"`

	// EncryptedKey is the single-recipient form written by older clients.
	EncryptedKey string `json:"encryptedKey,omitempty"`

	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// Marshal serializes the envelope to its JSON wire string.
func (e *Envelope) Marshal() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(data), nil
}

// ParseEnvelope decodes a wire string. Anything that is not a JSON object
// carrying a nonce, a ciphertext and a wrapped key map (or a legacy single
// wrapped key) is reported as ErrNotAnEnvelope.
func ParseEnvelope(input string) (*Envelope, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, kerrors.ErrNotAnEnvelope
	}

	var env Envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrNotAnEnvelope, err)
	}

	if env.IV == "" || env.Ciphertext == "" {
		return nil, fmt.Errorf("%w: missing iv or ciphertext", kerrors.ErrNotAnEnvelope)
	}
	if env.EncryptedKeys == nil && env.EncryptedKey == "" {
		return nil, fmt.Errorf("%w: missing encryptedKeys", kerrors.ErrNotAnEnvelope)
	}

	return &env, nil
}

// IsEnvelope reports whether input parses as an envelope.
func IsEnvelope(input string) bool {
	_, err := ParseEnvelope(input)
	return err == nil
}

// WrappedKeyFor returns the wrapped content key addressed to userID. Envelopes
// in the legacy single-recipient form yield their only key for any reader.
func (e *Envelope) WrappedKeyFor(userID string) (string, bool) {
	if wrapped, ok := e.EncryptedKeys[userID]; ok && wrapped != "" {
		return wrapped, true
	}
	if len(e.EncryptedKeys) == 0 && e.EncryptedKey != "" {
		return e.EncryptedKey, true
	}
	return "", false
}

// IsLegacy reports whether the envelope uses the single-recipient form.
func (e *Envelope) IsLegacy() bool {
	return len(e.EncryptedKeys) == 0 && e.EncryptedKey != ""
}

// Recipients returns the addressed recipient ids in sorted order.
func (e *Envelope) Recipients() []string {
	ids := make([]string, 0, len(e.EncryptedKeys))
	for id := range e.EncryptedKeys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// decodeBodies returns the raw nonce and ciphertext.
func (e *Envelope) decodeBodies() (nonce, ciphertext []byte, err error) {
	nonce, err = base64.StdEncoding.DecodeString(e.IV)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid iv encoding: %v", kerrors.ErrNotAnEnvelope, err)
	}
	if len(nonce) != NonceSize {
		return nil, nil, fmt.Errorf("%w: iv must be %d bytes, got %d", kerrors.ErrNotAnEnvelope, NonceSize, len(nonce))
	}
	ciphertext, err = base64.StdEncoding.DecodeString(e.Ciphertext)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid ciphertext encoding: %v", kerrors.ErrNotAnEnvelope, err)
	}
	return nonce, ciphertext, nil
}
