package store

import (
	"sync"

	"GoldMirror/internal/model"
)

// LedgerStore persists position ledgers keyed by strategy identity
// (typically the traded symbol). Load on a key never written returns
// a fresh empty ledger, not an error.
type LedgerStore interface {
	Load(key string) (*model.PositionLedger, error)
	Save(key string, ledger *model.PositionLedger) error
	Close() error
}

// MemoryStore is an in-process LedgerStore for tests and backtests.
type MemoryStore struct {
	mu      sync.Mutex
	ledgers map[string]*model.PositionLedger
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: make(map[string]*model.PositionLedger)}
}

// Load returns a deep copy of the stored ledger, or an empty ledger for
// unknown keys.
func (s *MemoryStore) Load(key string) (*model.PositionLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[key]
	if !ok {
		return &model.PositionLedger{}, nil
	}
	return copyLedger(l), nil
}

// Save stores a deep copy of the ledger under the key.
func (s *MemoryStore) Save(key string, ledger *model.PositionLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[key] = copyLedger(ledger)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func copyLedger(l *model.PositionLedger) *model.PositionLedger {
	cp := *l
	cp.TradeHistory = append([]model.TradeRecord(nil), l.TradeHistory...)
	if l.OpenPosition != nil {
		pos := *l.OpenPosition
		cp.OpenPosition = &pos
	}
	return &cp
}
