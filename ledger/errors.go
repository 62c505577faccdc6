/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All engine errors in one place for consistency and discoverability.
  The taxonomy is closed: callers pattern-match on sentinel errors or the
  structured types, never on message text.

ERROR CATEGORIES:
  1. Recoverable errors - Business-rule rejections of a single transaction.
     Engine state is unchanged for that transaction; the caller should
     skip it and continue with the rest of the stream.
  2. Fatal errors - The engine's own bookkeeping is inconsistent
     (held funds below a disputed amount during resolve/chargeback).
     The run must abort; continuing would replay against corrupted state.

USAGE:
  if err := eng.Process(tx); err != nil {
      if !ledger.IsRecoverable(err) {
          return err // abort the run
      }
      // log and skip
  }

SEE ALSO:
  - engine.go: Produces these errors
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateTransaction is returned when a deposit or withdrawal reuses
	// a transaction id already seen in either namespace.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInsufficientFunds is returned when a withdrawal or dispute exceeds
	// the client's available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMissingTransaction is returned when a referenced deposit does not
	// exist, or exists but belongs to a different client.
	ErrMissingTransaction = errors.New("missing transaction")

	// ErrInvalidTransactionState is returned when a dispute-lifecycle
	// transition is attempted from a status that is not its required
	// predecessor.
	ErrInvalidTransactionState = errors.New("invalid transaction state")

	// ErrAccountFrozen is returned when a withdrawal targets a locked account.
	ErrAccountFrozen = errors.New("client account frozen")

	// ErrLedgerCorrupted signals a broken internal invariant. This is NOT a
	// per-transaction rejection: the run must abort.
	ErrLedgerCorrupted = errors.New("ledger corrupted")
)

// =============================================================================
// STRUCTURED ERRORS - Carry ids and state for precise reporting
// =============================================================================

// DuplicateTransactionError reports a reused transaction id.
type DuplicateTransactionError struct {
	TxID TxID
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("transaction %d has already been processed", e.TxID)
}

func (e *DuplicateTransactionError) Unwrap() error { return ErrDuplicateTransaction }

// InsufficientFundsError reports an available-balance shortage.
type InsufficientFundsError struct {
	TxID TxID
	Type TransactionType
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s transaction %d failed: client has insufficient funds", e.Type, e.TxID)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// MissingTransactionError reports a reference to a deposit that does not
// exist. Also covers a deposit recorded under a different client id: the
// referenced deposit does not exist for THAT client.
type MissingTransactionError struct {
	TxID     TxID
	ClientID ClientID
	Type     TransactionType
}

func (e *MissingTransactionError) Error() string {
	return fmt.Sprintf("cannot %s transaction %d for client %d: no deposit with this id exists",
		e.Type, e.TxID, e.ClientID)
}

func (e *MissingTransactionError) Unwrap() error { return ErrMissingTransaction }

// InvalidTransactionStateError reports an illegal lifecycle transition,
// carrying the deposit's actual current status.
type InvalidTransactionStateError struct {
	TxID   TxID
	Type   TransactionType
	Status DepositStatus
}

func (e *InvalidTransactionStateError) Error() string {
	return fmt.Sprintf("%s transaction %d failed: deposit status is %s", e.Type, e.TxID, e.Status)
}

func (e *InvalidTransactionStateError) Unwrap() error { return ErrInvalidTransactionState }

// AccountFrozenError reports a withdrawal against a locked account.
type AccountFrozenError struct {
	TxID     TxID
	Type     TransactionType
	ClientID ClientID
}

func (e *AccountFrozenError) Error() string {
	return fmt.Sprintf("%s transaction %d failed: client account %d is frozen", e.Type, e.TxID, e.ClientID)
}

func (e *AccountFrozenError) Unwrap() error { return ErrAccountFrozen }

// CorruptLedgerError reports a broken held-funds invariant detected during
// resolve or chargeback. A prior successful dispute is the only path to
// Disputed status and must have moved exactly Amount into held, so Held can
// never be below Amount here unless the engine itself is inconsistent.
type CorruptLedgerError struct {
	TxID   TxID
	Type   TransactionType
	Held   decimal.Decimal
	Amount decimal.Decimal
}

func (e *CorruptLedgerError) Error() string {
	return fmt.Sprintf("logic error: held funds %s below disputed amount %s during %s of transaction %d",
		e.Held.String(), e.Amount.String(), e.Type, e.TxID)
}

func (e *CorruptLedgerError) Unwrap() error { return ErrLedgerCorrupted }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRecoverable reports whether err is a per-transaction business-rule
// rejection. The engine's state is still valid and the caller should skip
// the transaction and continue. False means the run must abort.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrDuplicateTransaction) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrMissingTransaction) ||
		errors.Is(err, ErrInvalidTransactionState) ||
		errors.Is(err, ErrAccountFrozen)
}
