package threshold

import (
	"context"
	"sync"

	appthreshold "sealpay/internal/application/coupon/threshold"
)

// MockClient is a deterministic local decryptor for dev mode and tests. It
// is selected only by explicit configuration.
type MockClient struct {
	mu         sync.RWMutex
	plaintexts map[string]string // keyed by capsule
	expired    map[string]bool   // policies reported as expired
	err        error
	calls      int
}

func NewMockClient() *MockClient {
	return &MockClient{
		plaintexts: make(map[string]string),
		expired:    make(map[string]bool),
	}
}

var _ appthreshold.Client = (*MockClient)(nil)

// SetPlaintext scripts the decryption result for a capsule.
func (m *MockClient) SetPlaintext(capsule, plaintext string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plaintexts[capsule] = plaintext
}

// ExpirePolicy makes Decrypt report the policy window as closed.
func (m *MockClient) ExpirePolicy(policyID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expired[policyID] = true
}

// FailWith makes every call return err until called with nil.
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many Decrypt invocations were made.
func (m *MockClient) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MockClient) Decrypt(_ context.Context, capsule, _ string, policyID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return "", m.err
	}
	if m.expired[policyID] {
		return "", appthreshold.ErrPolicyExpired
	}
	if plaintext, ok := m.plaintexts[capsule]; ok {
		return plaintext, nil
	}
	// Unscripted capsules decrypt to a derived value, which keeps dev mode
	// usable without per-coupon setup.
	return "mock-plaintext-" + capsule, nil
}
