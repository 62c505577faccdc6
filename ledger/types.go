/*
Package ledger provides the core payments ledger engine.

PURPOSE:
  This package contains the domain types and the replay engine for a
  per-client account ledger. Transactions arrive one at a time, in order,
  and are validated against a strict dispute lifecycle before mutating
  account balances.

KEY CONCEPTS IN THIS FILE (types.go):
  - TransactionType: The five input transaction kinds
  - Transaction: One input record (type, client, tx id, optional amount)
  - DepositStatus: Lifecycle tag of a recorded deposit
  - RequiredPriorStatus: The dispute-lifecycle transition table

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: ClientID and TxID are distinct types; they are
     independent namespaces and must never be mixed
  3. Single Source of Truth: transition legality lives ONLY in
     RequiredPriorStatus - the engine never duplicates it inline

USAGE:
  tx := ledger.NewDeposit(1, 1, decimal.NewFromInt(10))
  eng := ledger.NewEngine()
  err := eng.Process(tx)

SEE ALSO:
  - engine.go: Applies transactions to account state
  - errors.go: The closed error taxonomy
*/
package ledger

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ClientID identifies a client account. Assigned on first reference.
type ClientID uint16

// TxID identifies a transaction. Globally unique across deposits and
// withdrawals combined; dispute/resolve/chargeback reuse a prior deposit's id.
type TxID uint32

// =============================================================================
// TRANSACTION TYPE - The five input kinds
// =============================================================================

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeDispute    TransactionType = "dispute"
	TypeResolve    TransactionType = "resolve"
	TypeChargeback TransactionType = "chargeback"
)

// ParseTransactionType converts a lowercase wire name into a TransactionType.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(s) {
	case TypeDeposit, TypeWithdrawal, TypeDispute, TypeResolve, TypeChargeback:
		return TransactionType(s), true
	default:
		return "", false
	}
}

// =============================================================================
// DEPOSIT STATUS - Lifecycle tag of a recorded deposit
// =============================================================================

// DepositStatus tracks where a deposit is in the dispute lifecycle.
// This is deliberately a separate type from TransactionType: a status is a
// property of a recorded deposit, not an input kind.
type DepositStatus string

const (
	StatusDeposited   DepositStatus = "deposited"
	StatusDisputed    DepositStatus = "disputed"
	StatusResolved    DepositStatus = "resolved"
	StatusChargedBack DepositStatus = "charged_back"
)

// RequiredPriorStatus returns the status a referenced deposit must currently
// hold for a dispute-lifecycle transaction to be legal:
//
//	Dispute    <- Deposited
//	Resolve    <- Disputed
//	Chargeback <- Disputed
//
// Deposit and Withdrawal reference no prior deposit; ok is false for them.
func RequiredPriorStatus(t TransactionType) (DepositStatus, bool) {
	switch t {
	case TypeDispute:
		return StatusDeposited, true
	case TypeResolve, TypeChargeback:
		return StatusDisputed, true
	default:
		return "", false
	}
}

// =============================================================================
// TRANSACTION - One input record
// =============================================================================

// Transaction is a single input record. Amount is meaningful only for
// deposits and withdrawals; dispute-lifecycle transactions carry zero and
// act on the referenced deposit's original amount.
type Transaction struct {
	Type     TransactionType
	ClientID ClientID
	TxID     TxID
	Amount   decimal.Decimal
}

// NewDeposit constructs a deposit crediting amount to the client.
func NewDeposit(clientID ClientID, txID TxID, amount decimal.Decimal) Transaction {
	return Transaction{Type: TypeDeposit, ClientID: clientID, TxID: txID, Amount: amount}
}

// NewWithdrawal constructs a withdrawal debiting amount from the client.
func NewWithdrawal(clientID ClientID, txID TxID, amount decimal.Decimal) Transaction {
	return Transaction{Type: TypeWithdrawal, ClientID: clientID, TxID: txID, Amount: amount}
}

// NewDispute constructs a dispute of the deposit recorded under txID.
func NewDispute(clientID ClientID, txID TxID) Transaction {
	return Transaction{Type: TypeDispute, ClientID: clientID, TxID: txID}
}

// NewResolve constructs a resolution of the dispute on txID.
func NewResolve(clientID ClientID, txID TxID) Transaction {
	return Transaction{Type: TypeResolve, ClientID: clientID, TxID: txID}
}

// NewChargeback constructs a chargeback of the dispute on txID.
func NewChargeback(clientID ClientID, txID TxID) Transaction {
	return Transaction{Type: TypeChargeback, ClientID: clientID, TxID: txID}
}
