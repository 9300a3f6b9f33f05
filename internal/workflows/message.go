package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/hush/internal/audit"
	kerrors "github.com/PolarWolf314/hush/internal/errors"
	"github.com/PolarWolf314/hush/internal/secrets"
	"github.com/PolarWolf314/hush/internal/utils"
)

// SendOptions configures the send workflow.
type SendOptions struct {
	// Plaintext is the message body.
	Plaintext string

	// Recipients are the user ids the message is addressed to.
	Recipients []string

	// IncludeSelf also addresses the envelope to the sender so it can be
	// read back from the sender's own history.
	IncludeSelf bool
}

// SendResult contains the outcome of a send operation.
type SendResult struct {
	// Envelope is the serialized envelope to transmit.
	Envelope string

	// Recipients lists the ids that can open the envelope.
	Recipients []string

	// Omitted lists ids whose published key was unusable.
	Omitted []string

	// Unresolved lists ids with no published key.
	Unresolved []string
}

// Send encrypts a message for every recipient with a published public key.
//
// The sender's keys are ensured first. Recipients without a published key are
// reported in Unresolved and left out of the envelope; recipients whose key
// cannot be used are reported in Omitted.
//
// Returns ErrEncryptFailed only if the message body could not be encrypted.
func Send(ctx context.Context, env *Environment, opts SendOptions) (*SendResult, error) {
	me := env.UserID()

	state, err := env.Keys.EnsureKeys(ctx, me)
	if err != nil {
		return nil, fmt.Errorf("ensuring keys for %s: %w", me, err)
	}

	resolved, unresolved, err := secrets.ResolveRecipients(ctx, env.Directory, opts.Recipients)
	if err != nil {
		return nil, err
	}
	if opts.IncludeSelf {
		resolved[me] = state.PublicKey
	}

	for _, id := range unresolved {
		env.Log.Warnf("No public key published for %s, message will not be readable by them", id)
	}

	encrypted, err := env.Codec.EncryptForRecipients(opts.Plaintext, resolved)
	if err != nil {
		return nil, err
	}

	entry := audit.LogWithUser(audit.OpEncrypt)
	entry.UserID = me
	entry.Recipients = encrypted.Recipients
	entry.Omitted = append(append([]string{}, encrypted.Omitted...), unresolved...)
	audit.Log(entry)

	return &SendResult{
		Envelope:   encrypted.Envelope,
		Recipients: encrypted.Recipients,
		Omitted:    encrypted.Omitted,
		Unresolved: unresolved,
	}, nil
}

// SendDirectOptions configures the direct message workflow.
type SendDirectOptions struct {
	Plaintext string

	// Partner is the other participant of the conversation.
	Partner string
}

// SendDirectResult contains the outcome of a direct message.
type SendDirectResult struct {
	// Message is the body to transmit: an envelope when Encrypted, otherwise
	// the plaintext.
	Message string

	// Encrypted reports whether Message is an envelope.
	Encrypted bool

	// Missing lists the participants without a usable public key when the
	// message fell back to plaintext.
	Missing []string
}

// SendDirect encrypts a one-to-one message for the sender and the partner.
//
// Both participants must have a usable published public key. If either is
// missing, the plaintext is returned unencrypted with Encrypted set to false
// rather than producing an envelope only one side can read.
//
// Returns ErrInvalidPartner if Partner is blank or is the sender.
func SendDirect(ctx context.Context, env *Environment, opts SendDirectOptions) (*SendDirectResult, error) {
	me := env.UserID()

	partner := strings.TrimSpace(opts.Partner)
	if partner == "" || partner == me {
		return nil, fmt.Errorf("%w: %q", kerrors.ErrInvalidPartner, opts.Partner)
	}

	if _, err := env.Keys.EnsureKeys(ctx, me); err != nil {
		return nil, fmt.Errorf("ensuring keys for %s: %w", me, err)
	}

	resolved, missing, err := secrets.ResolveRecipients(ctx, env.Directory, []string{me, partner})
	if err != nil {
		return nil, err
	}

	plaintext := &SendDirectResult{Message: opts.Plaintext}

	if len(missing) > 0 {
		env.Log.Warnf("Sending unencrypted: no public key published for %v", missing)
		plaintext.Missing = missing
		return plaintext, nil
	}

	encrypted, err := env.Codec.EncryptForRecipients(opts.Plaintext, resolved)
	if err != nil {
		return nil, err
	}
	if len(encrypted.Omitted) > 0 {
		env.Log.Warnf("Sending unencrypted: unusable public key for %v", encrypted.Omitted)
		plaintext.Missing = encrypted.Omitted
		return plaintext, nil
	}

	entry := audit.LogWithUser(audit.OpEncrypt)
	entry.UserID = me
	entry.Recipients = encrypted.Recipients
	audit.Log(entry)

	return &SendDirectResult{Message: encrypted.Envelope, Encrypted: true}, nil
}

// ReadOptions configures the read workflow.
type ReadOptions struct {
	// Messages are raw message bodies: envelopes or legacy plaintext.
	Messages []string
}

// ReadResult contains one outcome per input message, in input order.
type ReadResult struct {
	Results []secrets.Result
}

// Read opens messages with the local user's private key. Messages that are not
// envelopes, are not addressed to the user, or fail authentication are
// reported through each Result's Status and never fail the call.
func Read(ctx context.Context, env *Environment, opts ReadOptions) (*ReadResult, error) {
	me := env.UserID()

	state, err := env.Keys.EnsureKeys(ctx, me)
	if err != nil {
		return nil, fmt.Errorf("ensuring keys for %s: %w", me, err)
	}

	result := &ReadResult{Results: make([]secrets.Result, 0, len(opts.Messages))}
	for _, message := range opts.Messages {
		result.Results = append(result.Results, env.Codec.Open(message, state.PrivateKey, me))
	}

	logDecrypt(me, result.Results, nil)
	return result, nil
}

// ReadFilesOptions configures reading envelopes from files.
type ReadFilesOptions struct {
	// Patterns are files, directories or doublestar globs.
	Patterns []string

	// BaseDir resolves relative patterns. Defaults to the working directory.
	BaseDir string
}

// FileResult is the outcome of opening one file.
type FileResult struct {
	Path   string
	Result secrets.Result
}

// ReadFilesResult contains one outcome per resolved file, in match order.
type ReadFilesResult struct {
	Files []FileResult
}

// ReadFiles opens every envelope file matched by the patterns.
//
// Returns ErrNoFilesFound if no files match.
// Returns ErrFileNotFound if an explicitly named file does not exist.
func ReadFiles(ctx context.Context, env *Environment, opts ReadFilesOptions) (*ReadFilesResult, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		baseDir = wd
	}

	paths, err := utils.ResolveEnvelopeFiles(opts.Patterns, baseDir)
	if err != nil {
		return nil, err
	}

	messages := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		// Envelope files are written with a trailing newline.
		messages = append(messages, strings.TrimSuffix(string(data), "\n"))
	}

	me := env.UserID()
	state, err := env.Keys.EnsureKeys(ctx, me)
	if err != nil {
		return nil, fmt.Errorf("ensuring keys for %s: %w", me, err)
	}

	result := &ReadFilesResult{Files: make([]FileResult, 0, len(paths))}
	results := make([]secrets.Result, 0, len(paths))
	for i, path := range paths {
		opened := env.Codec.Open(messages[i], state.PrivateKey, me)
		results = append(results, opened)
		result.Files = append(result.Files, FileResult{Path: path, Result: opened})
	}

	logDecrypt(me, results, paths)
	return result, nil
}

func logDecrypt(userID string, results []secrets.Result, files []string) {
	decrypted := 0
	for _, r := range results {
		if r.OK() {
			decrypted++
		}
	}

	entry := audit.LogWithUser(audit.OpDecrypt)
	entry.UserID = userID
	entry.Count = decrypted
	entry.Outcome = fmt.Sprintf("%d/%d decrypted", decrypted, len(results))
	entry.Files = files
	audit.Log(entry)
}
