// Package access decides whether a caller may run a simulation: developers
// always may, everyone else gets one free run per session.
package access

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTrialUsed is returned once a session has spent its free simulation.
	ErrTrialUsed = errors.New("free simulation already used")
	// ErrLedgerUnavailable wraps storage failures; the gate fails closed on it.
	ErrLedgerUnavailable = errors.New("usage ledger unavailable")
)

// Ledger records which sessions have used their free simulation.
type Ledger interface {
	HasUsed(ctx context.Context, key string) (bool, error)
	// MarkUsed records key and reports whether this call was the first to do so.
	MarkUsed(ctx context.Context, key string) (bool, error)
}

// MemoryLedger keeps markers in process memory. Markers are lost on restart
// and are not shared between instances; use RedisLedger for that.
type MemoryLedger struct {
	mu   sync.Mutex
	used map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger creates an in-memory ledger. A ttl of 0 keeps markers forever.
func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{
		used: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (l *MemoryLedger) HasUsed(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.liveLocked(key), nil
}

func (l *MemoryLedger) MarkUsed(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.liveLocked(key) {
		return false, nil
	}
	l.used[key] = l.now()
	return true, nil
}

// Len reports how many live markers are held.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key := range l.used {
		if l.liveLocked(key) {
			n++
		}
	}
	return n
}

func (l *MemoryLedger) liveLocked(key string) bool {
	at, ok := l.used[key]
	if !ok {
		return false
	}
	if l.ttl > 0 && l.now().Sub(at) >= l.ttl {
		delete(l.used, key)
		return false
	}
	return true
}
