package access

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

// Decision describes why a request was let through.
type Decision struct {
	Developer bool // matched the developer access code; nothing was recorded
	FirstUse  bool // the session's free simulation was spent by this request
}

// Gate admits developers unconditionally and every other session once.
type Gate struct {
	ledger  Ledger
	devCode string
}

// NewGate creates a gate. An empty devCode disables developer access.
func NewGate(ledger Ledger, devCode string) *Gate {
	return &Gate{ledger: ledger, devCode: devCode}
}

// IsDeveloper compares code against the developer access code in constant time.
func (g *Gate) IsDeveloper(code string) bool {
	if g.devCode == "" || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(g.devCode)) == 1
}

// Admit decides whether session may run a simulation. It returns ErrTrialUsed
// when the free run is gone and wraps ErrLedgerUnavailable when the ledger
// cannot answer, in which case the request must be refused.
func (g *Gate) Admit(ctx context.Context, session, code string) (Decision, error) {
	if g.IsDeveloper(code) {
		return Decision{Developer: true}, nil
	}
	if session == "" {
		return Decision{}, errors.New("session identifier is required")
	}
	first, err := g.ledger.MarkUsed(ctx, session)
	if err != nil {
		if errors.Is(err, ErrLedgerUnavailable) {
			return Decision{}, err
		}
		return Decision{}, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if !first {
		return Decision{}, ErrTrialUsed
	}
	return Decision{FirstUse: true}, nil
}

// Status reports whether session still has its free run, without spending it.
func (g *Gate) Status(ctx context.Context, session, code string) (developer, trialAvailable bool, err error) {
	if g.IsDeveloper(code) {
		return true, true, nil
	}
	used, err := g.ledger.HasUsed(ctx, session)
	if err != nil {
		return false, false, err
	}
	return false, !used, nil
}
