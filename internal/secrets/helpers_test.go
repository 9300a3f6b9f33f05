package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
	"testing"
)

const testKeyCount = 4

var (
	testKeysOnce sync.Once
	testKeys     []*rsa.PrivateKey
	testKeysErr  error
)

// testKey returns one of a small set of RSA keys generated once per test run.
func testKey(t *testing.T, i int) *rsa.PrivateKey {
	t.Helper()

	testKeysOnce.Do(func() {
		for n := 0; n < testKeyCount; n++ {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				testKeysErr = err
				return
			}
			testKeys = append(testKeys, key)
		}
	})
	if testKeysErr != nil {
		t.Fatalf("failed to generate test keys: %v", testKeysErr)
	}
	if i < 0 || i >= len(testKeys) {
		t.Fatalf("test key index %d out of range", i)
	}
	return testKeys[i]
}

func exportedPublicKey(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()

	encoded, err := ExportPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("ExportPublicKey failed: %v", err)
	}
	return encoded
}

func exportedPrivateKey(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()

	encoded, err := ExportPrivateKey(key)
	if err != nil {
		t.Fatalf("ExportPrivateKey failed: %v", err)
	}
	return encoded
}

// poolProvider is a NativeProvider whose GenerateKeyPair hands out the
// pre-generated test keys in order, so manager tests stay fast.
type poolProvider struct {
	*NativeProvider

	mu    sync.Mutex
	keys  []*rsa.PrivateKey
	calls int
}

func newPoolProvider(t *testing.T, indexes ...int) *poolProvider {
	t.Helper()

	p := &poolProvider{NativeProvider: NewNativeProvider(MinRSAKeySize)}
	for _, i := range indexes {
		p.keys = append(p.keys, testKey(t, i))
	}
	return p
}

func (p *poolProvider) GenerateKeyPair() (*rsa.PrivateKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.calls >= len(p.keys) {
		return nil, fmt.Errorf("key pool exhausted after %d keys", len(p.keys))
	}
	key := p.keys[p.calls]
	p.calls++
	return key, nil
}

func (p *poolProvider) generated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
