/*
engine.go - The replay engine

PURPOSE:
  Applies one transaction at a time against mutable ledger state: client
  accounts, the deposit history, and the set of processed withdrawal ids.
  Validation happens before any mutation, so a rejected transaction leaves
  state exactly as it found it (lazy account creation aside).

VALIDATION ORDER (load-bearing, do not reorder):
  Withdrawal:  duplicate id -> frozen account -> insufficient funds
  Lifecycle:   deposit exists -> status is the required predecessor
               -> client id matches -> funds (dispute only)

OWNERSHIP:
  One Engine owns one ordered stream's state for the lifetime of a run.
  Nothing else mutates accounts, deposits, or withdrawal ids. There is no
  ambient/global state: construct as many independent engines as you like.

CONCURRENCY:
  None. Process is synchronous and the Engine is not safe for concurrent
  use; callers that ingest from multiple goroutines must serialize.
  Transaction-id uniqueness is a single global namespace, so sharding by
  client id alone is not sufficient.

SEE ALSO:
  - types.go: Transaction kinds and the transition table
  - errors.go: The closed error taxonomy
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// DEPOSIT HISTORY - Internal records backing the dispute lifecycle
// =============================================================================

// deposit is the engine's record of one successfully applied deposit.
// Mutated in place as dispute/resolve/chargeback transactions move it
// through the lifecycle; never deleted.
type deposit struct {
	clientID ClientID
	amount   decimal.Decimal
	status   DepositStatus
}

// =============================================================================
// ENGINE - Owns all ledger state for one run
// =============================================================================

// Engine replays an ordered transaction stream against per-client accounts.
type Engine struct {
	accounts      map[ClientID]*Account
	deposits      map[TxID]*deposit
	withdrawalIDs map[TxID]struct{}
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{
		accounts:      make(map[ClientID]*Account),
		deposits:      make(map[TxID]*deposit),
		withdrawalIDs: make(map[TxID]struct{}),
	}
}

// seen reports whether a transaction id exists in either the deposit map or
// the withdrawal-id set. The two share one global namespace.
func (e *Engine) seen(id TxID) bool {
	if _, ok := e.deposits[id]; ok {
		return true
	}
	_, ok := e.withdrawalIDs[id]
	return ok
}

// account returns the client's record, creating a zero-valued unlocked one
// on first reference.
func (e *Engine) account(id ClientID) *Account {
	acct, ok := e.accounts[id]
	if !ok {
		acct = newAccount(id)
		e.accounts[id] = acct
	}
	return acct
}

// Process validates and applies one transaction.
//
// Every returned error is either a recoverable business-rule rejection
// (state unchanged, skip and continue) or a fatal CorruptLedgerError
// (abort the run). Use IsRecoverable to tell them apart.
func (e *Engine) Process(tx Transaction) error {
	duplicate := e.seen(tx.TxID)

	// The account is created on first reference even if the transaction is
	// subsequently rejected.
	acct := e.account(tx.ClientID)

	switch tx.Type {
	case TypeDeposit:
		if duplicate {
			return &DuplicateTransactionError{TxID: tx.TxID}
		}
		acct.Available = acct.Available.Add(tx.Amount)
		e.deposits[tx.TxID] = &deposit{
			clientID: tx.ClientID,
			amount:   tx.Amount,
			status:   StatusDeposited,
		}
		return nil

	case TypeWithdrawal:
		if duplicate {
			return &DuplicateTransactionError{TxID: tx.TxID}
		}
		if acct.Locked {
			return &AccountFrozenError{TxID: tx.TxID, Type: tx.Type, ClientID: tx.ClientID}
		}
		if acct.Available.LessThan(tx.Amount) {
			return &InsufficientFundsError{TxID: tx.TxID, Type: tx.Type}
		}
		acct.Available = acct.Available.Sub(tx.Amount)
		e.withdrawalIDs[tx.TxID] = struct{}{}
		return nil

	case TypeDispute, TypeResolve, TypeChargeback:
		return e.processLifecycle(tx, acct)

	default:
		// Unknown kinds are filtered at construction/decoding; reaching here
		// means a caller bypassed the constructors.
		return &MissingTransactionError{TxID: tx.TxID, ClientID: tx.ClientID, Type: tx.Type}
	}
}

// processLifecycle applies a dispute, resolve, or chargeback against the
// referenced deposit record.
func (e *Engine) processLifecycle(tx Transaction, acct *Account) error {
	dep, ok := e.deposits[tx.TxID]
	if !ok {
		return &MissingTransactionError{TxID: tx.TxID, ClientID: tx.ClientID, Type: tx.Type}
	}

	required, _ := RequiredPriorStatus(tx.Type)
	if dep.status != required {
		return &InvalidTransactionStateError{TxID: tx.TxID, Type: tx.Type, Status: dep.status}
	}

	// A deposit recorded under a different client does not exist as far as
	// this client is concerned; the "missing" kind is reused on purpose.
	if dep.clientID != tx.ClientID {
		return &MissingTransactionError{TxID: tx.TxID, ClientID: tx.ClientID, Type: tx.Type}
	}

	switch tx.Type {
	case TypeDispute:
		if acct.Available.LessThan(dep.amount) {
			return &InsufficientFundsError{TxID: tx.TxID, Type: tx.Type}
		}
		acct.Available = acct.Available.Sub(dep.amount)
		acct.Held = acct.Held.Add(dep.amount)
		dep.status = StatusDisputed

	case TypeResolve:
		if acct.Held.LessThan(dep.amount) {
			return &CorruptLedgerError{TxID: tx.TxID, Type: tx.Type, Held: acct.Held, Amount: dep.amount}
		}
		acct.Held = acct.Held.Sub(dep.amount)
		acct.Available = acct.Available.Add(dep.amount)
		dep.status = StatusResolved

	case TypeChargeback:
		if acct.Held.LessThan(dep.amount) {
			return &CorruptLedgerError{TxID: tx.TxID, Type: tx.Type, Held: acct.Held, Amount: dep.amount}
		}
		acct.Held = acct.Held.Sub(dep.amount)
		dep.status = StatusChargedBack
		acct.Locked = true
	}

	return nil
}

// =============================================================================
// SNAPSHOT - Read-only view for external serialization
// =============================================================================

// Accounts returns a snapshot of all client accounts, unordered, keyed by
// client id. The returned values are copies; mutating them does not touch
// engine state.
func (e *Engine) Accounts() map[ClientID]Account {
	out := make(map[ClientID]Account, len(e.accounts))
	for id, acct := range e.accounts {
		out[id] = *acct
	}
	return out
}

// Account returns a copy of one client's record and whether the client has
// ever been referenced.
func (e *Engine) Account(id ClientID) (Account, bool) {
	acct, ok := e.accounts[id]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}
