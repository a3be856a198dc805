package chain

import (
	"context"
	"sync"

	appchain "sealpay/internal/application/payment/chain"
)

// MockClient is a scriptable in-memory chain for dev mode and tests. It is
// selected only by explicit configuration; a real provider outage is never
// silently replaced by it.
type MockClient struct {
	mu            sync.RWMutex
	transactions  map[string]appchain.TransactionInfo
	confirmations map[string]int
	height        uint64
	err           error
}

func NewMockClient() *MockClient {
	return &MockClient{
		transactions:  make(map[string]appchain.TransactionInfo),
		confirmations: make(map[string]int),
	}
}

// SetTransaction scripts the lookup result for a hash.
func (m *MockClient) SetTransaction(txHash string, info appchain.TransactionInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txHash] = info
}

// RemoveTransaction makes a hash unknown again, simulating a reorg drop.
func (m *MockClient) RemoveTransaction(txHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, txHash)
}

// SetConfirmations scripts the confirmation count for a hash.
func (m *MockClient) SetConfirmations(txHash string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations[txHash] = count
}

// SetHeight scripts the chain head height.
func (m *MockClient) SetHeight(height uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height = height
}

// FailWith makes every call return err until called with nil.
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockClient) GetTransaction(_ context.Context, txHash string) (appchain.TransactionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return appchain.TransactionInfo{}, m.err
	}
	info, ok := m.transactions[txHash]
	if !ok {
		return appchain.TransactionInfo{Exists: false}, nil
	}
	return info, nil
}

func (m *MockClient) GetConfirmations(_ context.Context, txHash string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.confirmations[txHash], nil
}

func (m *MockClient) CurrentHeight(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.height, nil
}
