package secrets

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/hush/internal/errors"
	logger "github.com/PolarWolf314/hush/internal/logging"
)

type managerFixture struct {
	manager   *KeyManager
	store     *MemoryKeyStore
	directory *FakeDirectory
	provider  *poolProvider
	warnings  *bytes.Buffer
}

func newManagerFixture(t *testing.T, keyIndexes ...int) *managerFixture {
	t.Helper()

	warnings := &bytes.Buffer{}
	f := &managerFixture{
		store:     NewMemoryKeyStore(),
		directory: NewFakeDirectory(),
		provider:  newPoolProvider(t, keyIndexes...),
		warnings:  warnings,
	}
	f.manager = NewKeyManager(f.store, f.directory, f.provider, logger.Logger{Out: &bytes.Buffer{}, Err: warnings})
	return f
}

func TestEnsureKeys_FirstTimeGeneration(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, 0)

	state, err := f.manager.EnsureKeys(ctx, "alice")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}

	if state.Outcome != KeysGenerated {
		t.Errorf("expected KeysGenerated, got %s", state.Outcome)
	}
	if !state.Published {
		t.Error("expected the public key to be published")
	}
	if !state.PrivateKey.Equal(testKey(t, 0)) {
		t.Error("expected the generated key to be returned")
	}

	published, err := f.directory.PublicKey(ctx, "alice")
	if err != nil {
		t.Fatalf("expected a published key: %v", err)
	}
	if published != state.PublicKey {
		t.Error("published key differs from returned key")
	}

	stored, err := f.store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("expected a stored private key: %v", err)
	}
	if stored != exportedPrivateKey(t, testKey(t, 0)) {
		t.Error("stored private key is not the PKCS#8 export of the generated key")
	}
}

func TestEnsureKeys_ExistingKeyHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	key := testKey(t, 1)
	if err := f.store.Save(ctx, "bob", exportedPrivateKey(t, key)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	f.directory.Set("bob", exportedPublicKey(t, key))
	savesBefore := f.store.Saves

	state, err := f.manager.EnsureKeys(ctx, "bob")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}

	if state.Outcome != KeysLoaded {
		t.Errorf("expected KeysLoaded, got %s", state.Outcome)
	}
	if state.Published {
		t.Error("expected no publish for an existing key pair")
	}
	if f.directory.PublishCalls != 0 {
		t.Errorf("expected no publish calls, got %d", f.directory.PublishCalls)
	}
	if f.store.Saves != savesBefore {
		t.Error("expected no store writes")
	}
	if f.provider.generated() != 0 {
		t.Error("expected no key generation")
	}
	if !state.PrivateKey.Equal(key) {
		t.Error("expected the stored key to be returned")
	}
}

func TestEnsureKeys_RepublishesMissingPublicKey(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	key := testKey(t, 1)
	if err := f.store.Save(ctx, "bob", exportedPrivateKey(t, key)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state, err := f.manager.EnsureKeys(ctx, "bob")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}
	if state.Outcome != KeysLoaded || !state.Published {
		t.Errorf("expected loaded and published, got %s published=%v", state.Outcome, state.Published)
	}

	published, err := f.directory.PublicKey(ctx, "bob")
	if err != nil || !SamePublicKey(published, exportedPublicKey(t, key)) {
		t.Errorf("expected bob's public key to be published, got %q (%v)", published, err)
	}
}

func TestEnsureKeys_WarnsOnMismatchWithoutOverwriting(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)

	if err := f.store.Save(ctx, "bob", exportedPrivateKey(t, testKey(t, 1))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	other := exportedPublicKey(t, testKey(t, 2))
	f.directory.Set("bob", other)

	if _, err := f.manager.EnsureKeys(ctx, "bob"); err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}

	if !strings.Contains(f.warnings.String(), "does not match") {
		t.Errorf("expected a mismatch warning, got %q", f.warnings.String())
	}
	if published, _ := f.directory.PublicKey(ctx, "bob"); published != other {
		t.Error("published key should not be overwritten on mismatch")
	}
}

func TestEnsureKeys_SelfHeal(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, 0, 1)

	first, err := f.manager.EnsureKeys(ctx, "carol")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}

	// Simulate a device reset: the private key is gone, the profile still has the public key.
	if err := f.store.Delete(ctx, "carol"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	healed, err := f.manager.EnsureKeys(ctx, "carol")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}

	if healed.Outcome != KeysRegenerated {
		t.Errorf("expected KeysRegenerated, got %s", healed.Outcome)
	}
	if healed.PrivateKey.Equal(first.PrivateKey) {
		t.Error("self-heal reused the old private key")
	}
	if healed.PublicKey == first.PublicKey {
		t.Error("self-heal reused the old public key")
	}

	published, err := f.directory.PublicKey(ctx, "carol")
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	if published != healed.PublicKey {
		t.Error("published public key was not overwritten")
	}
	if f.directory.PublishCalls != 2 {
		t.Errorf("expected 2 publish calls, got %d", f.directory.PublishCalls)
	}
	if !strings.Contains(f.warnings.String(), "regenerating") {
		t.Errorf("expected a regeneration warning, got %q", f.warnings.String())
	}
}

func TestEnsureKeys_OldMessagesUnreadableAfterRegenerate(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, 0, 1)
	codec := NewCodec(nil, logger.Logger{Err: &bytes.Buffer{}})

	original, err := f.manager.EnsureKeys(ctx, "dave")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}

	sent, err := codec.EncryptForRecipients("before the reset", map[string]string{"dave": original.PublicKey})
	if err != nil {
		t.Fatalf("EncryptForRecipients failed: %v", err)
	}

	if err := f.store.Delete(ctx, "dave"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	healed, err := f.manager.EnsureKeys(ctx, "dave")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}

	opened := codec.Open(sent.Envelope, healed.PrivateKey, "dave")
	if opened.Status != TamperedOrWrongKey {
		t.Errorf("expected old envelope to be unreadable, got %s", opened.Status)
	}
	if got := codec.DecryptForMe(sent.Envelope, healed.PrivateKey, "dave"); got != sent.Envelope {
		t.Error("expected the raw envelope back")
	}

	// New messages work with the new key.
	fresh, err := codec.EncryptForRecipients("after the reset", map[string]string{"dave": healed.PublicKey})
	if err != nil {
		t.Fatalf("EncryptForRecipients failed: %v", err)
	}
	if got := codec.DecryptForMe(fresh.Envelope, healed.PrivateKey, "dave"); got != "after the reset" {
		t.Errorf("expected new message to decrypt, got %q", got)
	}
}

func TestEnsureKeys_ConfirmRegenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("Declined", func(t *testing.T) {
		f := newManagerFixture(t, 0)
		existing := exportedPublicKey(t, testKey(t, 3))
		f.directory.Set("erin", existing)

		var asked string
		f.manager.ConfirmRegenerate = func(userID string) bool {
			asked = userID
			return false
		}

		_, err := f.manager.EnsureKeys(ctx, "erin")
		if !errors.Is(err, kerrors.ErrRegenerateDeclined) {
			t.Fatalf("expected ErrRegenerateDeclined, got %v", err)
		}
		if asked != "erin" {
			t.Errorf("expected confirmation for erin, got %q", asked)
		}
		if f.provider.generated() != 0 {
			t.Error("expected no key generation after decline")
		}
		if published, _ := f.directory.PublicKey(ctx, "erin"); published != existing {
			t.Error("published key changed after decline")
		}
		if _, err := f.store.Load(ctx, "erin"); !errors.Is(err, kerrors.ErrPrivateKeyNotFound) {
			t.Error("expected no private key after decline")
		}
	})

	t.Run("Accepted", func(t *testing.T) {
		f := newManagerFixture(t, 0)
		f.directory.Set("erin", exportedPublicKey(t, testKey(t, 3)))
		f.manager.ConfirmRegenerate = func(string) bool { return true }

		state, err := f.manager.EnsureKeys(ctx, "erin")
		if err != nil {
			t.Fatalf("EnsureKeys failed: %v", err)
		}
		if state.Outcome != KeysRegenerated {
			t.Errorf("expected KeysRegenerated, got %s", state.Outcome)
		}
	})

	t.Run("NotAskedForFirstKey", func(t *testing.T) {
		f := newManagerFixture(t, 0)
		f.manager.ConfirmRegenerate = func(string) bool {
			t.Error("confirmation requested for a first-time key")
			return false
		}

		if _, err := f.manager.EnsureKeys(ctx, "frank"); err != nil {
			t.Fatalf("EnsureKeys failed: %v", err)
		}
	})
}

func TestEnsureKeys_MalformedStoredKeyIsTreatedAsMissing(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, 0)

	if err := f.store.Save(ctx, "gina", "corrupted-key-data"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state, err := f.manager.EnsureKeys(ctx, "gina")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}
	if state.Outcome != KeysGenerated {
		t.Errorf("expected KeysGenerated, got %s", state.Outcome)
	}

	stored, _ := f.store.Load(ctx, "gina")
	if _, err := ImportPrivateKey(stored); err != nil {
		t.Errorf("expected the corrupted key to be replaced: %v", err)
	}
}

func TestEnsureKeys_UndersizedStoredKeyIsRegenerated(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, 0)

	small, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	encoded, err := ExportPrivateKey(small)
	if err != nil {
		t.Fatalf("ExportPrivateKey failed: %v", err)
	}
	if err := f.store.Save(ctx, "hank", encoded); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	f.directory.Set("hank", exportedPublicKey(t, small))

	status, err := f.manager.Status(ctx, "hank")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != HasKeyStale {
		t.Errorf("expected HasKeyStale for an undersized key, got %s", status)
	}

	state, err := f.manager.EnsureKeys(ctx, "hank")
	if err != nil {
		t.Fatalf("EnsureKeys failed: %v", err)
	}
	if state.Outcome != KeysRegenerated {
		t.Errorf("expected KeysRegenerated, got %s", state.Outcome)
	}
	if size := state.PrivateKey.N.BitLen(); size < MinRSAKeySize {
		t.Errorf("expected a key of at least %d bits, got %d", MinRSAKeySize, size)
	}
	if !strings.Contains(f.warnings.String(), "below the") {
		t.Errorf("expected a warning about the undersized key, got %q", f.warnings.String())
	}
}

func TestEnsureKeys_PublishFailureLeavesNoPrivateKey(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, 0, 1)
	f.directory.PublishErr = kerrors.ErrDirectoryUnavailable

	_, err := f.manager.EnsureKeys(ctx, "hana")
	if !errors.Is(err, kerrors.ErrDirectoryUnavailable) {
		t.Fatalf("expected ErrDirectoryUnavailable, got %v", err)
	}
	if _, err := f.store.Load(ctx, "hana"); !errors.Is(err, kerrors.ErrPrivateKeyNotFound) {
		t.Error("private key was stored despite failed publish")
	}

	// Retrying once the directory is back succeeds as a first-time generation.
	f.directory.PublishErr = nil
	state, err := f.manager.EnsureKeys(ctx, "hana")
	if err != nil {
		t.Fatalf("EnsureKeys retry failed: %v", err)
	}
	if state.Outcome != KeysGenerated {
		t.Errorf("expected KeysGenerated on retry, got %s", state.Outcome)
	}
}

func TestEnsureKeys_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyUserID", func(t *testing.T) {
		f := newManagerFixture(t)
		if _, err := f.manager.EnsureKeys(ctx, ""); !errors.Is(err, kerrors.ErrUserNotConfigured) {
			t.Errorf("expected ErrUserNotConfigured, got %v", err)
		}
	})

	t.Run("StoreFailurePropagates", func(t *testing.T) {
		f := newManagerFixture(t)
		f.store.LoadErr = errors.New("disk on fire")
		if _, err := f.manager.EnsureKeys(ctx, "ivan"); err == nil {
			t.Error("expected store error to propagate")
		}
	})

	t.Run("DirectoryFailureWithoutLocalKey", func(t *testing.T) {
		f := newManagerFixture(t, 0)
		f.directory.Err = kerrors.ErrDirectoryUnavailable
		if _, err := f.manager.EnsureKeys(ctx, "ivan"); !errors.Is(err, kerrors.ErrDirectoryUnavailable) {
			t.Errorf("expected ErrDirectoryUnavailable, got %v", err)
		}
		if f.provider.generated() != 0 {
			t.Error("expected no key generation while the directory is down")
		}
	})

	t.Run("DirectoryFailureWithLocalKey", func(t *testing.T) {
		f := newManagerFixture(t)
		if err := f.store.Save(ctx, "ivan", exportedPrivateKey(t, testKey(t, 2))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		f.directory.Err = kerrors.ErrDirectoryUnavailable

		state, err := f.manager.EnsureKeys(ctx, "ivan")
		if err != nil {
			t.Fatalf("expected the local key to stay usable, got %v", err)
		}
		if state.Outcome != KeysLoaded {
			t.Errorf("expected KeysLoaded, got %s", state.Outcome)
		}
	})
}

func TestKeyManager_Status(t *testing.T) {
	ctx := context.Background()
	keyA := testKey(t, 0)
	keyB := testKey(t, 1)

	testCases := []struct {
		name      string
		private   string
		published string
		want      KeyStatus
	}{
		{name: "NoKey", want: NoKey},
		{name: "HasKey", private: exportedPrivateKey(t, keyA), published: exportedPublicKey(t, keyA), want: HasKey},
		{name: "HasKeyStale", published: exportedPublicKey(t, keyA), want: HasKeyStale},
		{name: "CorruptedIsStale", private: "garbage", published: exportedPublicKey(t, keyA), want: HasKeyStale},
		{name: "Unpublished", private: exportedPrivateKey(t, keyA), want: Unpublished},
		{name: "Mismatch", private: exportedPrivateKey(t, keyA), published: exportedPublicKey(t, keyB), want: Mismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newManagerFixture(t)
			if tc.private != "" {
				if err := f.store.Save(ctx, "u", tc.private); err != nil {
					t.Fatalf("Save failed: %v", err)
				}
			}
			if tc.published != "" {
				f.directory.Set("u", tc.published)
			}

			status, err := f.manager.Status(ctx, "u")
			if err != nil {
				t.Fatalf("Status failed: %v", err)
			}
			if status != tc.want {
				t.Errorf("expected %s, got %s", tc.want, status)
			}
			if f.directory.PublishCalls != 0 {
				t.Error("Status must not publish")
			}
		})
	}
}

func TestKeyManager_Import(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t)
	key := testKey(t, 2)

	state, err := f.manager.Import(ctx, "jules", exportedPrivateKey(t, key), nil)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if state.Outcome != KeysImported {
		t.Errorf("expected KeysImported, got %s", state.Outcome)
	}

	status, err := f.manager.Status(ctx, "jules")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status != HasKey {
		t.Errorf("expected HasKey after import, got %s", status)
	}

	loaded, err := f.manager.PrivateKey(ctx, "jules")
	if err != nil {
		t.Fatalf("PrivateKey failed: %v", err)
	}
	if !loaded.Equal(key) {
		t.Error("loaded key does not match imported key")
	}

	if _, err := f.manager.Import(ctx, "jules", "garbage", nil); !errors.Is(err, kerrors.ErrInvalidPrivateKey) {
		t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
	}
}

func TestKeyManager_PrivateKeyMissing(t *testing.T) {
	f := newManagerFixture(t)
	if _, err := f.manager.PrivateKey(context.Background(), "nobody"); !errors.Is(err, kerrors.ErrPrivateKeyNotFound) {
		t.Errorf("expected ErrPrivateKeyNotFound, got %v", err)
	}
}
