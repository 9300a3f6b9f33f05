package secrets

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
	logger "github.com/PolarWolf314/hush/internal/logging"
)

// Codec produces and consumes envelopes. It holds no per-message state and is
// safe for concurrent use.
type Codec struct {
	provider CryptoProvider
	log      logger.Logger
}

// NewCodec returns a codec backed by provider. A nil provider selects the
// native provider with default key size.
func NewCodec(provider CryptoProvider, log logger.Logger) *Codec {
	if provider == nil {
		provider = NewNativeProvider(MinRSAKeySize)
	}
	return &Codec{provider: provider, log: log}
}

// EncryptResult describes an encrypted envelope and who can read it.
type EncryptResult struct {
	// Envelope is the serialized wire string.
	Envelope string

	// Recipients lists the ids that received a wrapped key, sorted.
	Recipients []string

	// Omitted lists the ids dropped because their public key was unusable, sorted.
	Omitted []string
}

// EncryptForRecipients encrypts plaintext once under a fresh content key and
// wraps that key for every recipient in recipients (id to exported public key).
//
// A recipient whose key cannot be imported or used for wrapping is omitted
// with a warning. Only failures to produce randomness or to encrypt the body
// are returned as errors.
func (c *Codec) EncryptForRecipients(plaintext string, recipients map[string]string) (*EncryptResult, error) {
	contentKey, err := c.provider.RandomBytes(SymmetricKeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: generating content key: %v", kerrors.ErrEncryptFailed, err)
	}
	defer zeroBytes(contentKey)

	nonce, err := c.provider.RandomBytes(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", kerrors.ErrEncryptFailed, err)
	}

	ciphertext, err := c.provider.SymmetricEncrypt(contentKey, nonce, []byte(plaintext))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}

	ids := make([]string, 0, len(recipients))
	for id := range recipients {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &EncryptResult{
		Recipients: []string{},
		Omitted:    []string{},
	}
	wrappedKeys := make(map[string]string, len(ids))

	for _, id := range ids {
		publicKey, err := ImportPublicKey(recipients[id])
		if err != nil {
			c.log.Warnf("Skipping recipient %s: %v", id, err)
			result.Omitted = append(result.Omitted, id)
			continue
		}

		wrapped, err := c.provider.WrapKey(publicKey, contentKey)
		if err != nil {
			c.log.Warnf("Skipping recipient %s: failed to wrap content key: %v", id, err)
			result.Omitted = append(result.Omitted, id)
			continue
		}

		wrappedKeys[id] = base64.StdEncoding.EncodeToString(wrapped)
		result.Recipients = append(result.Recipients, id)
		c.log.Debugf("Wrapped content key for %s", id)
	}

	if len(result.Recipients) == 0 {
		c.log.Warnf("Envelope has no readable recipients")
	}

	env := &Envelope{
		EncryptedKeys: wrappedKeys,
		IV:            base64.StdEncoding.EncodeToString(nonce),
		Ciphertext:    base64.StdEncoding.EncodeToString(ciphertext),
	}
	result.Envelope, err = env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEncryptFailed, err)
	}

	c.log.Infof("Encrypted message for %d recipient(s)", len(result.Recipients))
	return result, nil
}

// Status is the outcome of opening an envelope.
type Status int

const (
	// Decrypted means the envelope was opened and Text holds the plaintext.
	Decrypted Status = iota

	// NotAnEnvelope means the input did not parse as an envelope. It is
	// usually a plaintext message from a client that did not encrypt.
	NotAnEnvelope

	// NotAddressed means the envelope carries no wrapped key for the reader.
	NotAddressed

	// TamperedOrWrongKey means key unwrapping or body authentication failed.
	TamperedOrWrongKey
)

func (s Status) String() string {
	switch s {
	case Decrypted:
		return "decrypted"
	case NotAnEnvelope:
		return "not-an-envelope"
	case NotAddressed:
		return "not-addressed"
	case TamperedOrWrongKey:
		return "tampered-or-wrong-key"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the tagged outcome of Codec.Open.
type Result struct {
	Status Status

	// Text is the plaintext when Status is Decrypted.
	Text string

	// Original is the input exactly as given.
	Original string

	// Err describes the failure when Status is not Decrypted.
	Err error
}

// OK reports whether the envelope was decrypted.
func (r Result) OK() bool {
	return r.Status == Decrypted
}

// Display returns the text a reader should be shown: the plaintext when
// decrypted, otherwise the original input.
func (r Result) Display() string {
	if r.Status == Decrypted {
		return r.Text
	}
	return r.Original
}

// Open decrypts input for the identity me using privateKey. It never mutates
// input and never panics on malformed data; every failure is reported through
// the returned Result.
func (c *Codec) Open(input string, privateKey *rsa.PrivateKey, me string) Result {
	env, err := ParseEnvelope(input)
	if err != nil {
		return Result{Status: NotAnEnvelope, Original: input, Err: err}
	}

	nonce, ciphertext, err := env.decodeBodies()
	if err != nil {
		return Result{Status: NotAnEnvelope, Original: input, Err: err}
	}

	encodedKey, ok := env.WrappedKeyFor(me)
	if !ok {
		return Result{
			Status:   NotAddressed,
			Original: input,
			Err:      fmt.Errorf("%w: %s", kerrors.ErrNotAddressed, me),
		}
	}

	wrapped, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return Result{
			Status:   TamperedOrWrongKey,
			Original: input,
			Err:      fmt.Errorf("%w: invalid wrapped key encoding: %v", kerrors.ErrKeyUnwrapFailed, err),
		}
	}

	if privateKey == nil {
		return Result{Status: TamperedOrWrongKey, Original: input, Err: kerrors.ErrPrivateKeyNotFound}
	}

	contentKey, err := c.provider.UnwrapKey(privateKey, wrapped)
	if err != nil {
		return Result{
			Status:   TamperedOrWrongKey,
			Original: input,
			Err:      fmt.Errorf("%w: %v", kerrors.ErrKeyUnwrapFailed, err),
		}
	}
	defer zeroBytes(contentKey)

	plaintext, err := c.provider.SymmetricDecrypt(contentKey, nonce, ciphertext)
	if err != nil {
		return Result{
			Status:   TamperedOrWrongKey,
			Original: input,
			Err:      fmt.Errorf("%w: %v", kerrors.ErrDecryptFailed, err),
		}
	}

	return Result{Status: Decrypted, Text: string(plaintext), Original: input}
}

// DecryptForMe returns the plaintext of input, or input unchanged if it could
// not be decrypted for any reason. Callers that need to tell legacy plaintext
// apart from a tampered envelope should use Open.
func (c *Codec) DecryptForMe(input string, privateKey *rsa.PrivateKey, me string) string {
	result := c.Open(input, privateKey, me)
	if !result.OK() {
		c.log.Debugf("Returning input as-is (%s): %v", result.Status, result.Err)
	}
	return result.Display()
}

// StatusOf maps an error returned in a Result back to its Status. Errors not
// produced by the codec map to TamperedOrWrongKey.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return Decrypted
	case errors.Is(err, kerrors.ErrNotAnEnvelope):
		return NotAnEnvelope
	case errors.Is(err, kerrors.ErrNotAddressed):
		return NotAddressed
	default:
		return TamperedOrWrongKey
	}
}
