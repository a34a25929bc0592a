package mocks

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/services/reader"
	"github.com/mcoot/whotscan/internal/services/slots"
)

// MockBackend is an in-memory contract storage for testing readers.
// Errors can be injected per path and every call is counted.
type MockBackend struct {
	mu      sync.Mutex
	storage map[common.Hash]common.Hash

	// Injected failures
	ExtsloadErr  error
	StorageAtErr error
	// DropLastWord makes extsload answer with one word too few
	DropLastWord bool

	extsloadCalls      int
	extsloadRangeCalls int
	storageAtCalls     int
}

// Ensure MockBackend implements Backend
var _ reader.Backend = (*MockBackend)(nil)

// NewMockBackend creates an empty MockBackend
func NewMockBackend() *MockBackend {
	return &MockBackend{storage: make(map[common.Hash]common.Hash)}
}

// SetWord stores a word at a slot
func (m *MockBackend) SetWord(slot common.Hash, value *uint256.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage[slot] = common.Hash(value.Bytes32())
}

// SetWords stores consecutive words starting at slot
func (m *MockBackend) SetWords(start common.Hash, values ...*uint256.Int) {
	for i, key := range slots.Range(start, len(values)) {
		m.SetWord(key, values[i])
	}
}

// Clear removes every stored word
func (m *MockBackend) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage = make(map[common.Hash]common.Hash)
}

func (m *MockBackend) Extsload(_ context.Context, _ common.Address, keys []common.Hash) ([]common.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extsloadCalls++
	if m.ExtsloadErr != nil {
		return nil, m.ExtsloadErr
	}
	return m.lookup(keys), nil
}

func (m *MockBackend) ExtsloadRange(_ context.Context, _ common.Address, start common.Hash, count uint64) ([]common.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extsloadRangeCalls++
	if m.ExtsloadErr != nil {
		return nil, m.ExtsloadErr
	}
	return m.lookup(slots.Range(start, int(count))), nil
}

func (m *MockBackend) StorageAt(_ context.Context, _ common.Address, slot common.Hash) (common.Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storageAtCalls++
	if m.StorageAtErr != nil {
		return common.Hash{}, m.StorageAtErr
	}
	return m.storage[slot], nil
}

// ExtsloadCalls returns the number of batched calls (slot list and range)
func (m *MockBackend) ExtsloadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extsloadCalls + m.extsloadRangeCalls
}

// ExtsloadRangeCalls returns the number of range calls
func (m *MockBackend) ExtsloadRangeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extsloadRangeCalls
}

// StorageAtCalls returns the number of per-slot calls
func (m *MockBackend) StorageAtCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storageAtCalls
}

// ResetCalls zeroes the call counters
func (m *MockBackend) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extsloadCalls = 0
	m.extsloadRangeCalls = 0
	m.storageAtCalls = 0
}

func (m *MockBackend) lookup(keys []common.Hash) []common.Hash {
	out := make([]common.Hash, len(keys))
	for i, k := range keys {
		out[i] = m.storage[k]
	}
	if m.DropLastWord && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}
