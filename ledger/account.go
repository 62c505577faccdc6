/*
account.go - Client account state

PURPOSE:
  Holds the per-client balance record mutated by the engine. Available is
  usable for withdrawals and disputes, Held is frozen by active disputes,
  and Locked is set permanently once a chargeback lands.

INVARIANT:
  Total is NEVER stored. It is always recomputed as Available + Held, so it
  cannot drift out of sync with its components.

SEE ALSO:
  - engine.go: The only code allowed to mutate accounts
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// ACCOUNT - Per-client balance record
// =============================================================================

// Account is the balance record for one client. Created zero-valued and
// unlocked the first time any transaction references the client id; never
// deleted; mutated only by the Engine.
type Account struct {
	ClientID  ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

func newAccount(clientID ClientID) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total returns Available + Held. Always derived, never cached.
func (a Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}
