/*
Package csvio adapts the ledger engine to the CSV interchange format.

PURPOSE:
  The engine consumes an ordered sequence of transactions and exposes an
  unordered account snapshot; this package is the thin adapter that decodes
  the one from CSV and serializes the other back out. No business rules
  live here - a row that decodes cleanly can still be rejected by the
  engine.

WIRE FORMAT (transactions):
  type,client,tx,amount
  deposit,1,1,10.0
  withdrawal,1,2,5.0
  dispute,1,1,

  - Header row is required.
  - Field values are trimmed of surrounding whitespace.
  - amount is required for deposit/withdrawal, absent (or empty) otherwise.

SEE ALSO:
  - writer.go: Account snapshot serialization
  - ledger/types.go: The decoded Transaction type
*/
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/payments-engine/ledger"
)

// =============================================================================
// READER - Streaming transaction decode
// =============================================================================

// Reader decodes transactions from CSV, one row at a time, in input order.
type Reader struct {
	csv        *csv.Reader
	line       int
	readHeader bool
}

// NewReader wraps r. The first row is expected to be the header.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// Lifecycle rows may omit the trailing amount column entirely.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{csv: cr}
}

// Read returns the next transaction, or io.EOF when the input is exhausted.
// A malformed row yields a *DecodeError naming the offending line.
func (r *Reader) Read() (ledger.Transaction, error) {
	if !r.readHeader {
		if _, err := r.csv.Read(); err != nil {
			if err == io.EOF {
				return ledger.Transaction{}, io.EOF
			}
			return ledger.Transaction{}, &DecodeError{Line: 1, Reason: "reading header", Err: err}
		}
		r.readHeader = true
		r.line = 1
	}

	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return ledger.Transaction{}, io.EOF
		}
		return ledger.Transaction{}, &DecodeError{Line: r.line + 1, Reason: "reading row", Err: err}
	}
	r.line++

	return r.decode(record)
}

// ReadAll eagerly decodes the remaining input.
func (r *Reader) ReadAll() ([]ledger.Transaction, error) {
	var txs []ledger.Transaction
	for {
		tx, err := r.Read()
		if err == io.EOF {
			return txs, nil
		}
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
}

func (r *Reader) decode(record []string) (ledger.Transaction, error) {
	if len(record) < 3 || len(record) > 4 {
		return ledger.Transaction{}, r.errf("expected 3 or 4 fields, got %d", len(record))
	}

	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	txnType, ok := ledger.ParseTransactionType(record[0])
	if !ok {
		return ledger.Transaction{}, r.errf("unknown transaction type %q", record[0])
	}

	clientID, err := strconv.ParseUint(record[1], 10, 16)
	if err != nil {
		return ledger.Transaction{}, r.errf("invalid client id %q", record[1])
	}

	txID, err := strconv.ParseUint(record[2], 10, 32)
	if err != nil {
		return ledger.Transaction{}, r.errf("invalid transaction id %q", record[2])
	}

	rawAmount := ""
	if len(record) == 4 {
		rawAmount = record[3]
	}

	tx := ledger.Transaction{
		Type:     txnType,
		ClientID: ledger.ClientID(clientID),
		TxID:     ledger.TxID(txID),
	}

	switch txnType {
	case ledger.TypeDeposit, ledger.TypeWithdrawal:
		if rawAmount == "" {
			return ledger.Transaction{}, r.errf("%s requires an amount", txnType)
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return ledger.Transaction{}, r.errf("invalid amount %q", rawAmount)
		}
		tx.Amount = amount
	default:
		if rawAmount != "" {
			return ledger.Transaction{}, r.errf("%s must not carry an amount", txnType)
		}
	}

	return tx, nil
}

func (r *Reader) errf(format string, args ...any) *DecodeError {
	return &DecodeError{Line: r.line, Reason: fmt.Sprintf(format, args...)}
}

// =============================================================================
// DECODE ERROR
// =============================================================================

// DecodeError reports a malformed CSV row.
type DecodeError struct {
	Line   int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("csv line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("csv line %d: %s", e.Line, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is a CSV decode failure.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
