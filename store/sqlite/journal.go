/*
Package sqlite provides a SQLite-backed processing journal.

PURPOSE:
  An append-only audit trail of every transaction the engine processed and
  what became of it: accepted, or rejected with which error kind. The
  journal is write-only from the engine's point of view - nothing reads it
  back into ledger state, and ledger state itself is never persisted.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the journal table
  - No DELETE statements on the journal table

USAGE:
  journal, err := sqlite.New(":memory:")
  if err != nil {
      log.Fatal(err)
  }
  defer journal.Close()

  journal.Record(ctx, sqlite.EntryFor(tx, err))

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block the
  single writer, and crash recovery is cleaner.

SEE ALSO:
  - ledger/errors.go: The error taxonomy the outcome column reflects
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/payments-engine/ledger"
)

// =============================================================================
// OUTCOMES
// =============================================================================

type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeDuplicate    Outcome = "duplicate_transaction"
	OutcomeInsufficient Outcome = "insufficient_funds"
	OutcomeMissing      Outcome = "missing_transaction"
	OutcomeInvalidState Outcome = "invalid_transaction_state"
	OutcomeFrozen       Outcome = "account_frozen"
	OutcomeFatal        Outcome = "ledger_corrupted"
)

// OutcomeFor maps a Process result onto its journal outcome.
func OutcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAccepted
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return OutcomeDuplicate
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return OutcomeInsufficient
	case errors.Is(err, ledger.ErrMissingTransaction):
		return OutcomeMissing
	case errors.Is(err, ledger.ErrInvalidTransactionState):
		return OutcomeInvalidState
	case errors.Is(err, ledger.ErrAccountFrozen):
		return OutcomeFrozen
	default:
		return OutcomeFatal
	}
}

// =============================================================================
// ENTRIES
// =============================================================================

// Entry is one journal row: a processed transaction and its outcome.
type Entry struct {
	TxID        ledger.TxID
	ClientID    ledger.ClientID
	Type        ledger.TransactionType
	Amount      string // 4-decimal fixed, empty for lifecycle transactions
	Outcome     Outcome
	Detail      string // error message for rejections, empty when accepted
	ProcessedAt time.Time
}

// EntryFor builds the journal entry for a transaction and its Process result.
func EntryFor(tx ledger.Transaction, err error) Entry {
	e := Entry{
		TxID:        tx.TxID,
		ClientID:    tx.ClientID,
		Type:        tx.Type,
		Outcome:     OutcomeFor(err),
		ProcessedAt: time.Now().UTC(),
	}
	if tx.Type == ledger.TypeDeposit || tx.Type == ledger.TypeWithdrawal {
		e.Amount = tx.Amount.StringFixed(4)
	}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

// =============================================================================
// JOURNAL - Append-only outcome log
// =============================================================================

// Journal records processing outcomes in SQLite.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) a journal at dbPath. Use ":memory:" for an
// in-memory journal.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS journal (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_id INTEGER NOT NULL,
		client_id INTEGER NOT NULL,
		txn_type TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		processed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_client ON journal(client_id, seq);
	CREATE INDEX IF NOT EXISTS idx_journal_outcome ON journal(outcome, seq);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends one entry. Append-only: there is no update or delete.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO journal (tx_id, client_id, txn_type, amount, outcome, detail, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uint32(e.TxID), uint16(e.ClientID), string(e.Type), e.Amount,
		string(e.Outcome), e.Detail, e.ProcessedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Entries returns all journal rows in processing order.
func (j *Journal) Entries(ctx context.Context) ([]Entry, error) {
	return j.query(ctx, `
		SELECT tx_id, client_id, txn_type, amount, outcome, detail, processed_at
		FROM journal ORDER BY seq`)
}

// EntriesByClient returns one client's journal rows in processing order.
func (j *Journal) EntriesByClient(ctx context.Context, clientID ledger.ClientID) ([]Entry, error) {
	return j.query(ctx, `
		SELECT tx_id, client_id, txn_type, amount, outcome, detail, processed_at
		FROM journal WHERE client_id = ? ORDER BY seq`, uint16(clientID))
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			txID     uint32
			clientID uint16
			txnType  string
			outcome  string
			at       string
		)
		if err := rows.Scan(&txID, &clientID, &txnType, &e.Amount, &outcome, &e.Detail, &at); err != nil {
			return nil, err
		}
		e.TxID = ledger.TxID(txID)
		e.ClientID = ledger.ClientID(clientID)
		e.Type = ledger.TransactionType(txnType)
		e.Outcome = Outcome(outcome)
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.ProcessedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
