package markov

import "sync"

// Model is the shared handle to the live chain. Command handlers read
// through it while the updater swaps in merged chains behind it, so a
// reader always sees a complete chain, either pre-merge or post-merge,
// never a half-built one.
type Model struct {
	mu    sync.RWMutex
	chain *Chain
}

// NewModel wraps a built chain in a shared handle.
func NewModel(chain *Chain) *Model {
	return &Model{chain: chain}
}

// Chain returns the current live chain.
func (m *Model) Chain() *Chain {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chain
}

// Swap installs a new live chain and returns the previous one, which
// lets a failed persist put the old chain back.
func (m *Model) Swap(chain *Chain) *Chain {
	m.mu.Lock()
	defer m.mu.Unlock()
	previous := m.chain
	m.chain = chain
	return previous
}
